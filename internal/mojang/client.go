// Package mojang talks to the Mojang version catalog and download CDN.
package mojang

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/minekit/minekit/internal/logging"
)

const (
	// CatalogURL lists every published game version plus the latest
	// release/snapshot pointers.
	CatalogURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

	// AssetHost serves content-addressed asset objects.
	AssetHost = "https://resources.download.minecraft.net"
)

// Version is one catalog entry: an identifier and the URL of its build
// manifest.
type Version struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type catalog struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []Version `json:"versions"`
}

// Client wraps the catalog API. The zero value is not usable, construct
// with NewClient.
type Client struct {
	http    *resty.Client
	catalog string
}

// NewClient builds a catalog client. catalogURL overrides the catalog
// location when non-empty (tests point it at a local server).
func NewClient(catalogURL string) *Client {
	if catalogURL == "" {
		catalogURL = CatalogURL
	}
	return &Client{
		http:    resty.New().SetTimeout(30 * time.Second),
		catalog: catalogURL,
	}
}

// Versions lists the full catalog. Snapshots and other unreleased build
// types are filtered out unless includeSnapshots is set.
func (c *Client) Versions(includeSnapshots bool) ([]Version, error) {
	cat, err := c.fetchCatalog()
	if err != nil {
		return nil, err
	}
	if includeSnapshots {
		return cat.Versions, nil
	}

	releases := make([]Version, 0, len(cat.Versions))
	for _, v := range cat.Versions {
		if v.Type == "release" {
			releases = append(releases, v)
		}
	}
	return releases, nil
}

// Latest returns the catalog's designated latest build: the latest release,
// or the latest snapshot when includeSnapshots is set.
func (c *Client) Latest(includeSnapshots bool) (Version, error) {
	cat, err := c.fetchCatalog()
	if err != nil {
		return Version{}, err
	}

	want := cat.Latest.Release
	if includeSnapshots {
		want = cat.Latest.Snapshot
	}
	for _, v := range cat.Versions {
		if v.ID == want {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("latest version %q missing from catalog", want)
}

func (c *Client) fetchCatalog() (*catalog, error) {
	var cat catalog
	resp, err := c.http.R().SetResult(&cat).Get(c.catalog)
	if err != nil {
		return nil, fmt.Errorf("fetching version catalog: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching version catalog: HTTP %d", resp.StatusCode())
	}
	return &cat, nil
}

// FetchManifest downloads the raw bytes at url.
func (c *Client) FetchManifest(url string) ([]byte, error) {
	resp, err := c.http.R().Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// FetchAndSave downloads url, persists the body to destPath (creating
// parent directories) and returns it. validate is reserved for digest
// checking of the saved bytes; no call site uses it yet.
func (c *Client) FetchAndSave(url, destPath string, validate bool) ([]byte, error) {
	data, err := c.FetchManifest(url)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating directory for %s: %w", destPath, err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", destPath, err)
	}
	logging.Debugf("Verbose: saved %s (%d bytes)\n", destPath, len(data))

	return data, nil
}

// AssetURL builds the CDN URL for a content-addressed asset object.
func AssetURL(hash string) string {
	return fmt.Sprintf("%s/%s/%s", AssetHost, hash[:2], hash)
}
