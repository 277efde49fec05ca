package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// LibraryEnv overrides the onnxruntime shared library location.
const LibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY"

func sharedLibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "libonnxruntime.so"
	}
}

// LocateSharedLibrary returns the first existing candidate among the
// explicit path, $ONNXRUNTIME_SHARED_LIBRARY and the lib/ or src/
// directories next to the executable and the working directory.
func LocateSharedLibrary(explicit string) (string, error) {
	var tried []string
	check := func(p string) bool {
		if p == "" {
			return false
		}
		tried = append(tried, p)
		return fileExists(p)
	}

	if check(explicit) {
		return explicit, nil
	}
	if env := os.Getenv(LibraryEnv); check(env) {
		return env, nil
	}

	name := sharedLibraryName()
	var dirs []string
	if exePath, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exePath))
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	for _, d := range dirs {
		for _, sub := range []string{"", "lib", "src"} {
			p := filepath.Join(d, sub, name)
			if check(p) {
				return p, nil
			}
			if m := globFirst(filepath.Join(d, sub), name+"*"); m != "" {
				return m, nil
			}
		}
	}
	return "", fmt.Errorf("%s not found, tried:\n  %s", name, strings.Join(tried, "\n  "))
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// globFirst matches versioned names such as libonnxruntime.so.1.22.0.
func globFirst(dir, pat string) string {
	ms, err := filepath.Glob(filepath.Join(dir, pat))
	if err != nil {
		return ""
	}
	for _, m := range ms {
		if fileExists(m) {
			return m
		}
	}
	return ""
}
