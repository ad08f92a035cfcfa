package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"lipsync/internal/config"
	"lipsync/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPortrait verifies that the configured portrait is a readable file.
// A failing portrait is not fatal to a render (the placeholder face is
// used instead) but it is surfaced so the operator notices.
func CheckPortrait(path string) Result {
	const name = "Portrait"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates all binaries the configured pipeline shells out to.
// Both the render command and the status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Video.FFmpegBinary,
			Description: "Required for video assembly",
			VersionArgs: []string{"-version"},
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Video.FFprobeBinary,
			Description: "Required for audio duration probing",
		},
		{
			Name:        "Phonemizer",
			Command:     cfg.Phonemizer.Binary,
			Description: "Required for IPA transcription",
			VersionArgs: []string{"--version"},
		},
	}
	for _, fallback := range cfg.Phonemizer.FallbackBinaries {
		requirements = append(requirements, deps.Requirement{
			Name:        "Phonemizer fallback (" + fallback + ")",
			Command:     fallback,
			Description: "Used when the primary phonemizer fails",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}
