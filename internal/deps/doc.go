// Package deps reports whether the external binaries lipsync shells out to
// are installed. Status output and preflight checks both build on
// CheckBinaries so the requirement list lives in one place per caller.
package deps
