// Package vanilla implements the download and launch sequences for the
// unmodded game.
package vanilla

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/minekit/minekit/internal/accounts"
	"github.com/minekit/minekit/internal/downloader"
	"github.com/minekit/minekit/internal/logging"
	"github.com/minekit/minekit/internal/meta"
	"github.com/minekit/minekit/internal/mojang"
	"github.com/minekit/minekit/internal/paths"
	"github.com/minekit/minekit/internal/platform"
	"github.com/minekit/minekit/internal/state"
	"github.com/minekit/minekit/internal/verify"
)

// ErrNoClassifiers reports a library that declares a native classifier key
// for this OS but ships no classifier map at all. That is a malformed
// manifest, distinct from a library that genuinely has no natives.
var ErrNoClassifiers = errors.New("library declares natives but no classifiers")

// Every plan gets the same per-task retry budget.
const retryBudget = 5

// Vanilla binds a resolved build manifest to one instance.
type Vanilla struct {
	manifest *meta.Manifest
	paths    *paths.Paths
	state    *state.State
	accounts *accounts.Store
	client   meta.Fetcher
	os       platform.OS
}

// New resolves the requested version (empty means the latest stable
// release) and loads its build manifest.
func New(client meta.Fetcher, p *paths.Paths, st *state.State, acc *accounts.Store, osys platform.OS, requested string) (*Vanilla, error) {
	m, err := meta.Resolve(client, p, requested)
	if err != nil {
		return nil, err
	}
	return &Vanilla{
		manifest: m,
		paths:    p,
		state:    st,
		accounts: acc,
		client:   client,
		os:       osys,
	}, nil
}

func (v *Vanilla) Paths() *paths.Paths      { return v.paths }
func (v *Vanilla) State() *state.State      { return v.state }
func (v *Vanilla) Manifest() *meta.Manifest { return v.manifest }

// ClientJarPath is the canonical install location of the client binary for
// a version, under the shared libraries root.
func ClientJarPath(librariesDir, versionID string) string {
	return filepath.Join(librariesDir, "com", "mojang", "minecraft", versionID,
		fmt.Sprintf("minecraft-%s-client.jar", versionID))
}

// InitializeState records the java and game components. Both records are
// rebuilt every run even when unchanged; the full overwrite keeps state
// construction idempotent.
func (v *Vanilla) InitializeState() error {
	v.state.Insert("java", state.Runtime("java", ""))
	v.state.Insert("net.minecraft", state.Game(v.manifest.ID))
	return nil
}

// CollectPlan diffs the manifest against the local filesystem into the
// minimal download batch: client binary, library artifacts, OS-matched
// native bundles and asset objects.
func (v *Vanilla) CollectPlan() (downloader.Plan, error) {
	plan := downloader.Plan{Retries: retryBudget}
	m := v.manifest

	librariesDir, err := v.paths.Get("libraries")
	if err != nil {
		return downloader.Plan{}, err
	}
	nativesDir, err := v.paths.Get("natives")
	if err != nil {
		return downloader.Plan{}, err
	}

	clientPath := ClientJarPath(librariesDir, m.ID)
	if !verify.FileValid(clientPath, m.Downloads.Client.SHA1) {
		plan.Tasks = append(plan.Tasks, downloader.Task{
			URL:  m.Downloads.Client.URL,
			Dest: clientPath,
			SHA1: m.Downloads.Client.SHA1,
		})
	}

	for i := range m.Libraries {
		lib := &m.Libraries[i]

		if a := lib.Downloads.Artifact; a != nil {
			dest := filepath.Join(librariesDir, filepath.FromSlash(a.Path))
			if !verify.FileValid(dest, a.SHA1) {
				plan.Tasks = append(plan.Tasks, downloader.Task{
					URL:  a.URL,
					Dest: dest,
					SHA1: a.SHA1,
				})
			}
		}

		// An OS without a classifier entry, including an unrecognized one,
		// simply contributes no native bundle.
		key, ok := lib.Natives[string(v.os)]
		if !ok {
			continue
		}
		if lib.Downloads.Classifiers == nil {
			return downloader.Plan{}, fmt.Errorf("%w: %s", ErrNoClassifiers, lib.Name)
		}
		if native, ok := lib.Downloads.Classifiers[key]; ok {
			plan.Tasks = append(plan.Tasks, downloader.Task{
				URL:   native.URL,
				Dest:  nativesDir,
				Unzip: true,
			})
		}
	}

	if err := v.collectAssets(&plan); err != nil {
		return downloader.Plan{}, err
	}

	logging.Debugf("Verbose: plan has %d tasks for version %s\n", len(plan.Tasks), m.ID)
	return plan, nil
}

// collectAssets fetches the asset index (always, it is small and volatile)
// and plans the missing objects. The index id selects the storage layout:
// legacy ids route through <instance>/resources/<key>, everything else
// through the hash-sharded <assets>/objects tree.
func (v *Vanilla) collectAssets(plan *downloader.Plan) error {
	ref := v.manifest.AssetIndex

	assetsDir, err := v.paths.Get("assets")
	if err != nil {
		return err
	}
	indexPath := filepath.Join(assetsDir, "indexes", ref.ID+".json")

	raw, err := v.client.FetchAndSave(ref.URL, indexPath, false)
	if err != nil {
		return fmt.Errorf("fetching asset index %s: %w", ref.ID, err)
	}
	var index meta.AssetIndex
	if err := json.Unmarshal(raw, &index); err != nil {
		return fmt.Errorf("parsing asset index %s: %w", ref.ID, err)
	}

	if ref.Legacy() {
		resourcesDir, err := v.paths.Get("resources")
		if err != nil {
			return err
		}
		for key, obj := range index.Objects {
			if len(obj.Hash) < 2 {
				return fmt.Errorf("asset index %s: malformed hash %q for %s", ref.ID, obj.Hash, key)
			}
			dest := filepath.Join(resourcesDir, filepath.FromSlash(key))
			if _, err := os.Stat(dest); err == nil {
				continue
			}
			plan.Tasks = append(plan.Tasks, downloader.Task{
				URL:  mojang.AssetURL(obj.Hash),
				Dest: dest,
				SHA1: obj.Hash,
			})
		}
		return nil
	}

	objectsDir := filepath.Join(assetsDir, "objects")
	for key, obj := range index.Objects {
		if len(obj.Hash) < 2 {
			return fmt.Errorf("asset index %s: malformed hash %q for %s", ref.ID, obj.Hash, key)
		}
		dest := filepath.Join(objectsDir, obj.Hash[:2], obj.Hash)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		plan.Tasks = append(plan.Tasks, downloader.Task{
			URL:  mojang.AssetURL(obj.Hash),
			Dest: dest,
			SHA1: obj.Hash,
		})
	}
	return nil
}
