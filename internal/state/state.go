package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const StateFile = "minekit.json"

// ErrComponentNotFound reports a lookup for a component the state does not
// record. Launching cannot proceed without the java and game components.
var ErrComponentNotFound = errors.New("component not found")

// Component kinds stored in the installation state.
const (
	KindRuntime = "runtime"
	KindGame    = "game"
)

// Component is a tagged record of one installed dependency. Runtime
// components carry an executable path and optional extra arguments; game
// components carry the installed version identifier.
type Component struct {
	Kind      string `json:"kind"`
	Path      string `json:"path,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Runtime builds a runtime component record.
func Runtime(path, arguments string) Component {
	return Component{Kind: KindRuntime, Path: path, Arguments: arguments}
}

// Game builds a game component record.
func Game(version string) Component {
	return Component{Kind: KindGame, Version: version}
}

// State is the persisted map of installed components for one instance. The
// download phase rebuilds and overwrites it in full every run; launch reads
// it back unmodified.
type State struct {
	Components map[string]Component `json:"components"`
}

// New returns an empty state.
func New() *State {
	return &State{Components: make(map[string]Component)}
}

// Insert records a component, replacing any previous record of that name.
func (s *State) Insert(name string, c Component) {
	s.Components[name] = c
}

// Get looks up a component by name.
func (s *State) Get(name string) (Component, error) {
	c, ok := s.Components[name]
	if !ok {
		return Component{}, fmt.Errorf("%w: %s", ErrComponentNotFound, name)
	}
	return c, nil
}

// Load reads the state file from the instance directory.
func Load(instanceDir string) (*State, error) {
	path := filepath.Join(instanceDir, StateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no %s found - run 'download' first", StateFile)
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	if s.Components == nil {
		s.Components = make(map[string]Component)
	}
	return &s, nil
}

// Save writes the state file to the instance directory.
func (s *State) Save(instanceDir string) error {
	path := filepath.Join(instanceDir, StateFile)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}

	return nil
}
