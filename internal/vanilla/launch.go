package vanilla

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/minekit/minekit/internal/meta"
	"github.com/minekit/minekit/internal/platform"
)

// Identity substituted into jvm argument templates.
const (
	LauncherName    = "minekit"
	LauncherVersion = "3.0"
)

// ErrArgumentsNotFound reports a manifest missing an expected argument
// template group. Only the jvm group has a synthetic fallback.
type ErrArgumentsNotFound struct {
	Group string
}

func (e *ErrArgumentsNotFound) Error() string {
	return fmt.Sprintf("manifest has no %q argument templates", e.Group)
}

// MainClass returns the manifest's main class, verbatim.
func (v *Vanilla) MainClass() (string, error) {
	return v.manifest.MainClass, nil
}

// GameArguments substitutes the manifest's game argument templates. The
// installed version comes from state, not the in-memory manifest: state is
// the source of truth for what is actually on disk. Placeholders without a
// known key are left as literal text.
func (v *Vanilla) GameArguments(username string) ([]string, error) {
	game, err := v.state.Get("net.minecraft")
	if err != nil {
		return nil, err
	}

	templates, ok := v.manifest.Arguments["game"]
	if !ok {
		return nil, &ErrArgumentsNotFound{Group: "game"}
	}

	assetsDir, err := v.paths.Get("assets")
	if err != nil {
		return nil, err
	}
	resourcesDir, err := v.paths.Get("resources")
	if err != nil {
		return nil, err
	}

	account := v.accounts.Get(username)

	r := strings.NewReplacer(
		"${auth_player_name}", username,
		"${version_name}", game.Version,
		"${game_directory}", ".",
		"${assets_root}", assetsDir,
		"${assets_index_name}", v.manifest.AssetIndex.ID,
		"${auth_uuid}", account.UUID,
		"${auth_access_token}", account.AccessToken,
		"${user_type}", "mojang",
		"${version_type}", v.manifest.Type,
		"${user_properties}", "{}",
		"${game_assets}", resourcesDir,
		"${auth_session}", "{}",
	)

	args := make([]string, len(templates))
	for i, tmpl := range templates {
		args[i] = r.Replace(tmpl)
	}
	return args, nil
}

// Classpath joins the rule-filtered library jars in manifest order with the
// platform path-list separator, the client jar appended last and
// unconditionally.
func (v *Vanilla) Classpath() (string, error) {
	librariesDir, err := v.paths.Get("libraries")
	if err != nil {
		return "", err
	}

	var parts []string
	for i := range v.manifest.Libraries {
		lib := &v.manifest.Libraries[i]
		if !libraryAllowed(lib.Rules, v.os) {
			continue
		}
		if a := lib.Downloads.Artifact; a != nil {
			parts = append(parts, filepath.Join(librariesDir, filepath.FromSlash(a.Path)))
		}
	}

	parts = append(parts, ClientJarPath(librariesDir, v.manifest.ID))
	return strings.Join(parts, string(os.PathListSeparator)), nil
}

// libraryAllowed evaluates a library's inclusion rules against the running
// OS. Rule OS names are normalized ("osx" means "macos") before comparing.
// Rules without an OS condition do not constrain inclusion here.
func libraryAllowed(rules []meta.Rule, osys platform.OS) bool {
	for _, rule := range rules {
		if rule.OS == nil || rule.OS.Name == "" {
			continue
		}
		name := platform.Normalize(rule.OS.Name)
		switch rule.Action {
		case "allow":
			if name != string(osys) {
				return false
			}
		case "disallow":
			if name == string(osys) {
				return false
			}
		}
	}
	return true
}

// JVMArguments substitutes the manifest's jvm templates, or synthesizes the
// minimal two-flag fallback when the manifest has none, then appends any
// operator-supplied extra arguments recorded on the java component.
func (v *Vanilla) JVMArguments(classpath string) ([]string, error) {
	nativesDir, err := v.paths.Get("natives")
	if err != nil {
		return nil, err
	}

	var args []string
	if templates, ok := v.manifest.Arguments["jvm"]; ok {
		r := strings.NewReplacer(
			"${natives_directory}", nativesDir,
			"${launcher_name}", LauncherName,
			"${launcher_version}", LauncherVersion,
			"${classpath}", classpath,
		)
		args = make([]string, len(templates))
		for i, tmpl := range templates {
			args[i] = r.Replace(tmpl)
		}
	} else {
		args = []string{"-Djava.library.path=" + nativesDir, "-cp", classpath}
	}

	java, err := v.state.Get("java")
	if err != nil {
		return nil, err
	}
	if java.Arguments != "" {
		extra, err := shellwords.Parse(java.Arguments)
		if err != nil {
			return nil, fmt.Errorf("parsing java arguments: %w", err)
		}
		args = append(args, extra...)
	}
	return args, nil
}
