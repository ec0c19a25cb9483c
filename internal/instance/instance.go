// Package instance orchestrates the two phases of an instance's lifecycle:
// the download phase (state rebuild, plan, concurrent fetch, native
// cleanup) and the launch phase (command-line synthesis).
package instance

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/minekit/minekit/internal/downloader"
	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/paths"
	"github.com/minekit/minekit/internal/platform"
	"github.com/minekit/minekit/internal/state"
)

// Downloadable prepares an installation: it diffs the build manifest
// against the filesystem into a minimal download plan and records the
// installed components.
type Downloadable interface {
	CollectPlan() (downloader.Plan, error)
	InitializeState() error
}

// Launchable reconstructs the process invocation for an installed instance.
type Launchable interface {
	MainClass() (string, error)
	GameArguments(username string) ([]string, error)
	Classpath() (string, error)
	JVMArguments(classpath string) ([]string, error)
}

// Variant is a game flavor (vanilla today, modded manifests later) bound to
// one instance's paths and state.
type Variant interface {
	Downloadable
	Launchable
	Paths() *paths.Paths
	State() *state.State
}

// Download runs the full download phase for v. The planning half is
// serialized (a handful of metadata fetches); only the resulting batch runs
// concurrently. Blocks until the batch resolves.
func Download(ctx context.Context, v Variant, osys platform.OS, workers int, onProgress func(downloader.Progress)) error {
	// State is rebuilt from scratch every run, before any network work, so
	// a later launch never sees a partially updated record.
	if err := v.InitializeState(); err != nil {
		return err
	}
	instanceDir, err := v.Paths().Get("instance")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(instanceDir, 0o755); err != nil {
		return fmt.Errorf("creating instance directory: %w", err)
	}
	if err := v.State().Save(instanceDir); err != nil {
		return err
	}

	plan, err := v.CollectPlan()
	if err != nil {
		return err
	}

	if len(plan.Tasks) == 0 {
		logging.Infoln("Nothing to download, instance is up to date.")
	} else {
		logging.Infof("Downloading %d files...\n", len(plan.Tasks))
		start := time.Now()
		if err := downloader.Execute(ctx, plan, workers, onProgress); err != nil {
			return err
		}
		logging.Debugf("Verbose: downloads finished in %.2fs\n", time.Since(start).Seconds())
	}

	nativesDir, err := v.Paths().Get("natives")
	if err != nil {
		return err
	}
	return downloader.CleanNatives(nativesDir, osys.NativeExt())
}

// Command assembles the full java argument vector for an installed
// instance: JVM arguments, main class, then game arguments.
func Command(v Variant, username string) ([]string, error) {
	classpath, err := v.Classpath()
	if err != nil {
		return nil, err
	}
	jvm, err := v.JVMArguments(classpath)
	if err != nil {
		return nil, err
	}
	mainClass, err := v.MainClass()
	if err != nil {
		return nil, err
	}
	game, err := v.GameArguments(username)
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(jvm)+1+len(game))
	args = append(args, jvm...)
	args = append(args, mainClass)
	args = append(args, game...)
	return args, nil
}
