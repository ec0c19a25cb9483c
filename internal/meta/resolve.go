package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/mojang"
	"github.com/minekit/minekit/internal/paths"
)

// ErrVersionNotFound reports a requested version identifier absent from the
// catalog.
var ErrVersionNotFound = errors.New("game version not found")

// Fetcher is the catalog-client surface the resolver and planners need.
type Fetcher interface {
	Versions(includeSnapshots bool) ([]mojang.Version, error)
	Latest(includeSnapshots bool) (mojang.Version, error)
	FetchAndSave(url, destPath string, validate bool) ([]byte, error)
}

// Resolve picks the requested version from the catalog (an empty identifier
// means the latest stable release) and loads its build manifest, consulting
// the local meta cache before the network.
func Resolve(client Fetcher, p *paths.Paths, requested string) (*Manifest, error) {
	var ver mojang.Version
	if requested != "" {
		// Exact match against the full catalog, snapshots included.
		versions, err := client.Versions(true)
		if err != nil {
			return nil, err
		}
		found := false
		for _, v := range versions {
			if v.ID == requested {
				ver = v
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, requested)
		}
	} else {
		v, err := client.Latest(false)
		if err != nil {
			return nil, err
		}
		ver = v
	}

	metaDir, err := p.Get("meta")
	if err != nil {
		return nil, err
	}
	cachePath := filepath.Join(metaDir, "net.minecraft", ver.ID+".json")

	raw, err := cacheOrFetch(client, ver.URL, cachePath)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s: %w", ver.ID, err)
	}
	return &m, nil
}

// cacheOrFetch is the single trust point for manifest caching: cached bytes
// are used as-is with no revalidation, a miss fetches from url and persists
// the raw bytes at cachePath.
func cacheOrFetch(client Fetcher, url, cachePath string) ([]byte, error) {
	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debugf("Verbose: meta cache hit %s\n", cachePath)
		return data, nil
	}

	logging.Debugf("Verbose: meta cache miss, fetching %s\n", url)
	data, err := client.FetchAndSave(url, cachePath, false)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	return data, nil
}
