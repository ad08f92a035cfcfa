// Package preflight provides readiness checks for the binaries and
// filesystem paths lipsync depends on.
//
// These checks run in two contexts:
//   - The render command calls RunAll before doing any work. A failed check
//     stops the run early instead of failing halfway through an encode.
//   - The CLI "lipsync status" command shows each check alongside the
//     dependency table.
//
// Checks for optional features (AV1 archive, metrics export, custom portrait)
// are skipped when the feature is not configured.
package preflight
