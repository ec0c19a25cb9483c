package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/verify"
)

// Task is one file to fetch.
type Task struct {
	URL  string
	Dest string
	// SHA1 is the expected content digest, hex encoded. Empty disables the
	// post-write check.
	SHA1 string
	// Unzip extracts the fetched archive into Dest instead of writing the
	// body as a file. Used for native-library bundles.
	Unzip bool
}

// Plan is the batch a planner produced, with the retry budget applied
// uniformly to every task. Tasks never share a destination path.
type Plan struct {
	Tasks   []Task
	Retries int
}

// Progress reports batch completion after each finished task.
type Progress struct {
	Completed int64
	Total     int64
}

const DefaultWorkers = 10

// Execute runs the plan on a fixed worker pool and blocks until every task
// has succeeded or the batch has failed. The first task to exhaust its
// retries cancels the remaining queue; files already written stay on disk.
// Failures are returned as one aggregate error.
func Execute(ctx context.Context, plan Plan, workers int, onProgress func(Progress)) error {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if len(plan.Tasks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := int64(len(plan.Tasks))
	var completed atomic.Int64

	work := make(chan int, len(plan.Tasks))
	for i := range plan.Tasks {
		work <- i
	}
	close(work)

	var (
		mu   sync.Mutex
		merr *multierror.Error
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					return
				}
				if err := fetchWithRetry(ctx, plan.Tasks[i], plan.Retries); err != nil {
					mu.Lock()
					merr = multierror.Append(merr, err)
					mu.Unlock()
					// Fail fast: stop handing out the rest of the queue.
					cancel()
					return
				}
				n := completed.Add(1)
				if onProgress != nil {
					onProgress(Progress{Completed: n, Total: total})
				}
			}
		}()
	}
	wg.Wait()

	if err := merr.ErrorOrNil(); err != nil {
		return fmt.Errorf("download batch failed: %w", err)
	}
	return nil
}

// permanentError marks failures that retrying cannot fix, such as a 4xx
// response or a corrupt archive.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func fetchWithRetry(ctx context.Context, t Task, retries int) error {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			logging.Debugf("Verbose: retrying download %s attempt=%d/%d\n", t.URL, attempt+1, retries)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}

		lastErr = fetchOnce(ctx, t)
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			break
		}
	}
	return fmt.Errorf("downloading %s: %w", t.URL, lastErr)
}

func fetchOnce(ctx context.Context, t Task) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return &permanentError{err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &permanentError{fmt.Errorf("HTTP %d", resp.StatusCode)}
	default:
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if t.Unzip {
		return extractArchive(resp.Body, t.Dest)
	}
	return writeFile(resp.Body, t.Dest, t.SHA1)
}

// writeFile streams r to dest using an atomic write (write to dest.tmp,
// verify, then rename).
func writeFile(r io.Reader, dest, sha1hex string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dest, err)
	}

	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}

	_, err = io.Copy(f, r)
	closeErr := f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", dest, closeErr)
	}

	if sha1hex != "" && !verify.FileValid(tmpPath, sha1hex) {
		os.Remove(tmpPath)
		return fmt.Errorf("digest mismatch for %s", dest)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalizing %s: %w", dest, err)
	}
	return nil
}

// extractArchive reads a zip archive from r and extracts its entries under
// destDir.
func extractArchive(r io.Reader, destDir string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return &permanentError{fmt.Errorf("opening archive: %w", err)}
	}

	root := filepath.Clean(destDir)
	for _, f := range zr.File {
		name := filepath.Clean(filepath.FromSlash(f.Name))
		target := filepath.Join(root, name)
		// Reject entries that escape the destination directory.
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			continue
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", target, err)
		}

		rc, err := f.Open()
		if err != nil {
			return &permanentError{fmt.Errorf("opening archive entry %s: %w", f.Name, err)}
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return fmt.Errorf("creating %s: %w", target, err)
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		closeErr := out.Close()
		if err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		if closeErr != nil {
			return fmt.Errorf("closing %s: %w", target, closeErr)
		}
	}
	return nil
}
