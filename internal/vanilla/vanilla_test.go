package vanilla

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/minekit/minekit/internal/accounts"
	"github.com/minekit/minekit/internal/downloader"
	"github.com/minekit/minekit/internal/meta"
	"github.com/minekit/minekit/internal/mojang"
	"github.com/minekit/minekit/internal/paths"
	"github.com/minekit/minekit/internal/platform"
	"github.com/minekit/minekit/internal/state"
)

// Digests of the fixture file contents written by installFile.
const (
	clientSHA1  = "38b2d812313f5e556cc13853aadd87c2fbf09c3b" // "client jar bytes"
	librarySHA1 = "fe49591df2f11d4368a3a84a54d331d06ab1387b" // "library bytes"
	assetSHA1   = "dd3ea5eb32b112e9cdf667654e947b8a87ed6fe8" // "asset bytes"
)

type fakeFetcher struct {
	bodies map[string][]byte
}

func (f *fakeFetcher) Versions(includeSnapshots bool) ([]mojang.Version, error) {
	return nil, nil
}

func (f *fakeFetcher) Latest(includeSnapshots bool) (mojang.Version, error) {
	return mojang.Version{}, nil
}

func (f *fakeFetcher) FetchAndSave(url, destPath string, validate bool) ([]byte, error) {
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("fetching %s: HTTP 404", url)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(destPath, body, 0o644); err != nil {
		return nil, err
	}
	return body, nil
}

// testManifest is the end-to-end fixture: one library with an artifact and
// a windows native classifier, plus a legacy asset index with one object.
func testManifest() *meta.Manifest {
	return &meta.Manifest{
		ID:        "1.16.4",
		Type:      "release",
		MainClass: "net.minecraft.client.main.Main",
		Arguments: map[string][]string{
			"game": {
				"--username", "${auth_player_name}",
				"--version", "${version_name}",
				"--assetIndex", "${assets_index_name}",
				"--uuid", "${auth_uuid}",
				"--accessToken", "${auth_access_token}",
				"--userType", "${user_type}",
				"--versionType", "${version_type}",
			},
		},
		AssetIndex: meta.AssetIndexRef{ID: "legacy", URL: "https://meta.example/legacy.json"},
		Downloads: meta.Downloads{
			Client: meta.Artifact{SHA1: clientSHA1, URL: "https://dl.example/client.jar"},
		},
		Libraries: []meta.Library{{
			Name: "org.lwjgl:lwjgl:3.2.2",
			Downloads: meta.LibraryDownloads{
				Artifact: &meta.Artifact{
					Path: "org/lwjgl/lwjgl/3.2.2/lwjgl-3.2.2.jar",
					SHA1: librarySHA1,
					URL:  "https://dl.example/lwjgl.jar",
				},
				Classifiers: map[string]meta.Artifact{
					"natives-windows": {URL: "https://dl.example/lwjgl-natives-windows.jar"},
				},
			},
			Natives: map[string]string{"windows": "natives-windows"},
		}},
	}
}

const legacyIndexJSON = `{"objects": {"music/calm1.ogg": {"hash": "` + assetSHA1 + `", "size": 11}}}`

func newTestVanilla(t *testing.T, m *meta.Manifest, osys platform.OS) *Vanilla {
	t.Helper()

	st := state.New()
	st.Insert("java", state.Runtime("java", ""))
	st.Insert("net.minecraft", state.Game(m.ID))

	return &Vanilla{
		manifest: m,
		paths:    paths.New(t.TempDir(), "test"),
		state:    st,
		accounts: &accounts.Store{Accounts: map[string]accounts.Account{}},
		client: &fakeFetcher{bodies: map[string][]byte{
			"https://meta.example/legacy.json": []byte(legacyIndexJSON),
		}},
		os: osys,
	}
}

// installFile writes the fixture content whose digest the manifest expects.
func installFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func taskByURL(plan downloader.Plan, url string) (downloader.Task, bool) {
	for _, task := range plan.Tasks {
		if task.URL == url {
			return task, true
		}
	}
	return downloader.Task{}, false
}

func TestCollectPlanFreshInstanceOnWindows(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Windows)
	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}

	if plan.Retries != 5 {
		t.Fatalf("plan retries = %d, want 5", plan.Retries)
	}
	if len(plan.Tasks) != 4 {
		t.Fatalf("fresh windows plan should have 4 tasks, got %d: %+v", len(plan.Tasks), plan.Tasks)
	}

	if _, ok := taskByURL(plan, "https://dl.example/client.jar"); !ok {
		t.Fatalf("plan is missing the client binary task")
	}
	if _, ok := taskByURL(plan, "https://dl.example/lwjgl.jar"); !ok {
		t.Fatalf("plan is missing the library artifact task")
	}

	native, ok := taskByURL(plan, "https://dl.example/lwjgl-natives-windows.jar")
	if !ok {
		t.Fatalf("plan is missing the native bundle task")
	}
	if !native.Unzip {
		t.Fatalf("native bundle task must be flagged for extraction")
	}
	nativesDir, _ := v.paths.Get("natives")
	if native.Dest != nativesDir {
		t.Fatalf("native task dest = %q, want %q", native.Dest, nativesDir)
	}

	asset, ok := taskByURL(plan, mojang.AssetURL(assetSHA1))
	if !ok {
		t.Fatalf("plan is missing the asset task")
	}
	resourcesDir, _ := v.paths.Get("resources")
	wantDest := filepath.Join(resourcesDir, "music", "calm1.ogg")
	if asset.Dest != wantDest {
		t.Fatalf("legacy asset dest = %q, want %q", asset.Dest, wantDest)
	}
}

func TestCollectPlanSkipsNativesOnOtherOS(t *testing.T) {
	t.Parallel()

	for _, osys := range []platform.OS{platform.Linux, platform.MacOS} {
		v := newTestVanilla(t, testManifest(), osys)
		plan, err := v.CollectPlan()
		if err != nil {
			t.Fatalf("CollectPlan on %s failed: %v", osys, err)
		}
		if len(plan.Tasks) != 3 {
			t.Fatalf("fresh %s plan should have 3 tasks, got %d", osys, len(plan.Tasks))
		}
		if _, ok := taskByURL(plan, "https://dl.example/lwjgl-natives-windows.jar"); ok {
			t.Fatalf("%s plan must not contain the windows native bundle", osys)
		}
	}
}

func TestCollectPlanUnrecognizedOSSkipsSilently(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Unknown)
	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan on unknown OS failed: %v", err)
	}
	if _, ok := taskByURL(plan, "https://dl.example/lwjgl-natives-windows.jar"); ok {
		t.Fatalf("unknown OS must not plan any native bundle")
	}
}

func TestCollectPlanIdempotentOnInstalledInstance(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Windows)
	librariesDir, _ := v.paths.Get("libraries")
	resourcesDir, _ := v.paths.Get("resources")

	installFile(t, ClientJarPath(librariesDir, "1.16.4"), "client jar bytes")
	installFile(t, filepath.Join(librariesDir, "org", "lwjgl", "lwjgl", "3.2.2", "lwjgl-3.2.2.jar"), "library bytes")
	installFile(t, filepath.Join(resourcesDir, "music", "calm1.ogg"), "asset bytes")

	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}

	// The native bundle extracts into a directory and has no verifiable
	// destination file, so it is the only task a fully-installed windows
	// instance still plans.
	for _, task := range plan.Tasks {
		if !task.Unzip {
			t.Fatalf("installed instance should plan no file tasks, got %+v", task)
		}
	}

	// Without a native bundle in play the re-plan is completely empty.
	v.os = platform.Linux
	plan, err = v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}
	if len(plan.Tasks) != 0 {
		t.Fatalf("fully-installed linux instance should plan nothing, got %+v", plan.Tasks)
	}
}

func TestCollectPlanRedownloadsCorruptFiles(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	librariesDir, _ := v.paths.Get("libraries")

	installFile(t, ClientJarPath(librariesDir, "1.16.4"), "tampered")

	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}
	if _, ok := taskByURL(plan, "https://dl.example/client.jar"); !ok {
		t.Fatalf("corrupt client binary must be planned for redownload")
	}
}

func TestCollectPlanLegacyAssetsExistenceOnly(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	resourcesDir, _ := v.paths.Get("resources")

	// Present but with the wrong content: the legacy branch checks
	// existence only.
	installFile(t, filepath.Join(resourcesDir, "music", "calm1.ogg"), "garbage")

	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}
	if _, ok := taskByURL(plan, mojang.AssetURL(assetSHA1)); ok {
		t.Fatalf("present legacy asset must not be planned again")
	}
}

func TestCollectPlanModernAssetLayout(t *testing.T) {
	t.Parallel()

	m := testManifest()
	m.AssetIndex = meta.AssetIndexRef{ID: "1.16", URL: "https://meta.example/1.16.json"}
	v := newTestVanilla(t, m, platform.Linux)
	v.client = &fakeFetcher{bodies: map[string][]byte{
		"https://meta.example/1.16.json": []byte(legacyIndexJSON),
	}}

	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}

	asset, ok := taskByURL(plan, mojang.AssetURL(assetSHA1))
	if !ok {
		t.Fatalf("plan is missing the asset task")
	}
	assetsDir, _ := v.paths.Get("assets")
	wantDest := filepath.Join(assetsDir, "objects", assetSHA1[:2], assetSHA1)
	if asset.Dest != wantDest {
		t.Fatalf("modern asset dest = %q, want %q", asset.Dest, wantDest)
	}

	// An already-present object is skipped on existence alone.
	installFile(t, wantDest, "anything")
	plan, err = v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}
	if _, ok := taskByURL(plan, mojang.AssetURL(assetSHA1)); ok {
		t.Fatalf("present modern asset must not be planned again")
	}
}

func TestCollectPlanNoClassifiers(t *testing.T) {
	t.Parallel()

	m := testManifest()
	m.Libraries[0].Downloads.Classifiers = nil
	v := newTestVanilla(t, m, platform.Windows)

	_, err := v.CollectPlan()
	if !errors.Is(err, ErrNoClassifiers) {
		t.Fatalf("CollectPlan should fail with ErrNoClassifiers, got %v", err)
	}
}

func TestCollectPlanTasksNeverDuplicated(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Windows)
	plan, err := v.CollectPlan()
	if err != nil {
		t.Fatalf("CollectPlan failed: %v", err)
	}

	seen := make(map[string]bool, len(plan.Tasks))
	for _, task := range plan.Tasks {
		key := task.URL + "|" + task.Dest
		if seen[key] {
			t.Fatalf("duplicate task in plan: %+v", task)
		}
		seen[key] = true
	}
}

func TestInitializeState(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	v.state = state.New()

	if err := v.InitializeState(); err != nil {
		t.Fatalf("InitializeState failed: %v", err)
	}

	java, err := v.state.Get("java")
	if err != nil {
		t.Fatalf("java component missing: %v", err)
	}
	if java.Kind != state.KindRuntime {
		t.Fatalf("java component kind = %q", java.Kind)
	}

	game, err := v.state.Get("net.minecraft")
	if err != nil {
		t.Fatalf("game component missing: %v", err)
	}
	if game.Version != "1.16.4" {
		t.Fatalf("game component version = %q, want 1.16.4", game.Version)
	}
}

func TestMainClass(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	mc, err := v.MainClass()
	if err != nil {
		t.Fatalf("MainClass failed: %v", err)
	}
	if mc != "net.minecraft.client.main.Main" {
		t.Fatalf("MainClass = %q", mc)
	}
}

func TestGameArgumentsSubstitution(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	args, err := v.GameArguments("Watson17")
	if err != nil {
		t.Fatalf("GameArguments failed: %v", err)
	}

	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--username Watson17") {
		t.Fatalf("player name not substituted: %q", joined)
	}
	if !strings.Contains(joined, "--version 1.16.4") {
		t.Fatalf("version name not substituted from state: %q", joined)
	}
	if !strings.Contains(joined, "--versionType release") {
		t.Fatalf("version type not substituted: %q", joined)
	}
	for _, key := range []string{"auth_player_name", "version_name", "auth_uuid", "auth_access_token"} {
		if strings.Contains(joined, "${"+key+"}") {
			t.Fatalf("placeholder %s left unresolved: %q", key, joined)
		}
	}
}

func TestGameArgumentsLeavesUnknownPlaceholders(t *testing.T) {
	t.Parallel()

	m := testManifest()
	m.Arguments["game"] = []string{"--flag", "${quickPlayPath}"}
	v := newTestVanilla(t, m, platform.Linux)

	args, err := v.GameArguments("Watson17")
	if err != nil {
		t.Fatalf("GameArguments failed: %v", err)
	}
	if args[1] != "${quickPlayPath}" {
		t.Fatalf("unknown placeholder should stay literal, got %q", args[1])
	}
}

func TestGameArgumentsMissingStateComponent(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	v.state = state.New()

	_, err := v.GameArguments("Watson17")
	if !errors.Is(err, state.ErrComponentNotFound) {
		t.Fatalf("GameArguments should fail with ErrComponentNotFound, got %v", err)
	}
}

func TestGameArgumentsMissingTemplates(t *testing.T) {
	t.Parallel()

	m := testManifest()
	delete(m.Arguments, "game")
	v := newTestVanilla(t, m, platform.Linux)

	_, err := v.GameArguments("Watson17")
	var argsErr *ErrArgumentsNotFound
	if !errors.As(err, &argsErr) || argsErr.Group != "game" {
		t.Fatalf("GameArguments should fail with ErrArgumentsNotFound(game), got %v", err)
	}
}

func TestClasspathRuleFiltering(t *testing.T) {
	t.Parallel()

	m := testManifest()
	m.Libraries = []meta.Library{
		{
			Name: "always",
			Downloads: meta.LibraryDownloads{
				Artifact: &meta.Artifact{Path: "a/always.jar", URL: "u", SHA1: "s"},
			},
		},
		{
			Name: "windows-only",
			Downloads: meta.LibraryDownloads{
				Artifact: &meta.Artifact{Path: "w/windows.jar", URL: "u", SHA1: "s"},
			},
			Rules: []meta.Rule{{Action: "allow", OS: &meta.RuleOS{Name: "windows"}}},
		},
		{
			Name: "not-on-osx",
			Downloads: meta.LibraryDownloads{
				Artifact: &meta.Artifact{Path: "x/noosx.jar", URL: "u", SHA1: "s"},
			},
			Rules: []meta.Rule{{Action: "disallow", OS: &meta.RuleOS{Name: "osx"}}},
		},
	}

	linux := newTestVanilla(t, m, platform.Linux)
	cp, err := linux.Classpath()
	if err != nil {
		t.Fatalf("Classpath failed: %v", err)
	}
	if !strings.Contains(cp, "always.jar") {
		t.Fatalf("library with no rules must always be included: %q", cp)
	}
	if strings.Contains(cp, "windows.jar") {
		t.Fatalf("allow:windows library must be excluded on linux: %q", cp)
	}
	if !strings.Contains(cp, "noosx.jar") {
		t.Fatalf("disallow:osx library must be included on linux: %q", cp)
	}

	mac := newTestVanilla(t, m, platform.MacOS)
	cp, err = mac.Classpath()
	if err != nil {
		t.Fatalf("Classpath failed: %v", err)
	}
	if strings.Contains(cp, "noosx.jar") {
		t.Fatalf("disallow:osx must exclude on macos via alias normalization: %q", cp)
	}
}

func TestClasspathEndsWithClientJar(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Windows)
	cp, err := v.Classpath()
	if err != nil {
		t.Fatalf("Classpath failed: %v", err)
	}

	librariesDir, _ := v.paths.Get("libraries")
	want := ClientJarPath(librariesDir, "1.16.4")
	if !strings.HasSuffix(cp, want) {
		t.Fatalf("classpath must end with the client jar, got %q", cp)
	}
}

func TestJVMArgumentsTemplateSubstitution(t *testing.T) {
	t.Parallel()

	m := testManifest()
	m.Arguments["jvm"] = []string{
		"-Djava.library.path=${natives_directory}",
		"-Dlauncher=${launcher_name}/${launcher_version}",
		"-cp", "${classpath}",
	}
	v := newTestVanilla(t, m, platform.Linux)

	args, err := v.JVMArguments("a.jar:b.jar")
	if err != nil {
		t.Fatalf("JVMArguments failed: %v", err)
	}

	nativesDir, _ := v.paths.Get("natives")
	if args[0] != "-Djava.library.path="+nativesDir {
		t.Fatalf("natives directory not substituted: %q", args[0])
	}
	if args[1] != "-Dlauncher="+LauncherName+"/"+LauncherVersion {
		t.Fatalf("launcher identity not substituted: %q", args[1])
	}
	if args[3] != "a.jar:b.jar" {
		t.Fatalf("classpath not substituted: %q", args[3])
	}
}

func TestJVMArgumentsFallback(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)

	args, err := v.JVMArguments("a.jar")
	if err != nil {
		t.Fatalf("JVMArguments failed: %v", err)
	}

	nativesDir, _ := v.paths.Get("natives")
	want := []string{"-Djava.library.path=" + nativesDir, "-cp", "a.jar"}
	if len(args) != len(want) {
		t.Fatalf("fallback args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("fallback args = %v, want %v", args, want)
		}
	}
}

func TestJVMArgumentsAppendsJavaComponentArguments(t *testing.T) {
	t.Parallel()

	v := newTestVanilla(t, testManifest(), platform.Linux)
	v.state.Insert("java", state.Runtime("java", "-Xmx4G -Xms1G"))

	args, err := v.JVMArguments("a.jar")
	if err != nil {
		t.Fatalf("JVMArguments failed: %v", err)
	}
	if len(args) < 2 || args[len(args)-2] != "-Xmx4G" || args[len(args)-1] != "-Xms1G" {
		t.Fatalf("extra java arguments not appended: %v", args)
	}
}

func TestJVMArgumentsMissingJavaComponent(t *testing.T) {
	t.Parallel()

	m := testManifest()
	m.Arguments["jvm"] = []string{"-cp", "${classpath}"}
	v := newTestVanilla(t, m, platform.Linux)
	v.state = state.New()
	v.state.Insert("net.minecraft", state.Game("1.16.4"))

	_, err := v.JVMArguments("a.jar")
	if !errors.Is(err, state.ErrComponentNotFound) {
		t.Fatalf("JVMArguments should fail with ErrComponentNotFound even when templates succeed, got %v", err)
	}
}
