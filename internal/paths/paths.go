package paths

import (
	"fmt"
	"path/filepath"
)

// Paths resolves the logical directory roles of one instance to filesystem
// locations. Shared data (libraries, assets, version metadata, accounts)
// lives under the base directory; per-instance data (natives, legacy
// resources, state) lives under the instance directory.
type Paths struct {
	roles map[string]string
}

// New lays out the standard roles under baseDir for the named instance.
func New(baseDir, instanceName string) *Paths {
	instanceDir := filepath.Join(baseDir, "instances", instanceName)
	return &Paths{roles: map[string]string{
		"instance":  instanceDir,
		"meta":      filepath.Join(baseDir, "meta"),
		"libraries": filepath.Join(baseDir, "libraries"),
		"assets":    filepath.Join(baseDir, "assets"),
		"accounts":  filepath.Join(baseDir, "accounts"),
		"natives":   filepath.Join(instanceDir, "natives"),
		"resources": filepath.Join(instanceDir, "resources"),
	}}
}

// Get resolves a role to its directory.
func (p *Paths) Get(role string) (string, error) {
	dir, ok := p.roles[role]
	if !ok {
		return "", fmt.Errorf("no path configured for role %q", role)
	}
	return dir, nil
}
