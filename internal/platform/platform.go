package platform

import "runtime"

// OS identifies the running operating system for native-classifier
// selection and library rule evaluation. The zero value means the platform
// is not one the game ships natives for.
type OS string

const (
	Windows OS = "windows"
	Linux   OS = "linux"
	MacOS   OS = "macos"
	Unknown OS = ""
)

// Current classifies the operating system this process runs on.
func Current() OS {
	return Classify(runtime.GOOS)
}

// Classify maps a GOOS-style name onto an OS value. Names the game has no
// natives for classify as Unknown.
func Classify(name string) OS {
	switch name {
	case "windows":
		return Windows
	case "linux":
		return Linux
	case "darwin", "macos", "osx":
		return MacOS
	}
	return Unknown
}

// Normalize maps manifest rule aliases onto canonical OS names. Manifests
// from before 1.13 say "osx" where newer ones say "macos".
func Normalize(name string) string {
	if name == "osx" {
		return "macos"
	}
	return name
}

// NativeExt returns the shared-library file extension the runtime loader
// expects on this platform.
func (o OS) NativeExt() string {
	switch o {
	case Windows:
		return ".dll"
	case MacOS:
		return ".dylib"
	default:
		return ".so"
	}
}
