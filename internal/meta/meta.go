// Package meta models the per-version build manifest and resolves it from
// the catalog with a local read-through cache.
package meta

// Manifest is the build descriptor for one game version: main class,
// libraries, argument templates and the asset index reference.
type Manifest struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	MainClass  string              `json:"mainClass"`
	Arguments  map[string][]string `json:"arguments"`
	AssetIndex AssetIndexRef       `json:"assetIndex"`
	Downloads  Downloads           `json:"downloads"`
	Libraries  []Library           `json:"libraries"`
}

// Downloads holds the top-level binaries of a version.
type Downloads struct {
	Client Artifact `json:"client"`
}

// Artifact is one downloadable file with its expected digest.
type Artifact struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size,omitempty"`
	URL  string `json:"url"`
}

// Library is one classpath entry. Natives maps an OS name to the classifier
// key of that platform's native bundle in Downloads.Classifiers. Rules gate
// whether the library applies on a given OS.
type Library struct {
	Name      string            `json:"name"`
	Downloads LibraryDownloads  `json:"downloads"`
	Natives   map[string]string `json:"natives,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
}

// LibraryDownloads separates the primary jar from per-platform native
// bundles.
type LibraryDownloads struct {
	Artifact    *Artifact           `json:"artifact,omitempty"`
	Classifiers map[string]Artifact `json:"classifiers,omitempty"`
}

// Rule is an allow/disallow condition on a library.
type Rule struct {
	Action string  `json:"action"`
	OS     *RuleOS `json:"os,omitempty"`
}

// RuleOS names the operating system a rule is conditioned on.
type RuleOS struct {
	Name string `json:"name,omitempty"`
}

// AssetIndexRef points at the asset index of a version. The identifiers
// "pre-1.6" and "legacy" select the flat resources/ storage layout.
type AssetIndexRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Legacy reports whether the referenced index uses the flat layout.
func (r AssetIndexRef) Legacy() bool {
	return r.ID == "pre-1.6" || r.ID == "legacy"
}

// AssetIndex maps logical asset paths to content-addressed objects.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
}

// AssetObject is one asset: its content digest and size.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}
