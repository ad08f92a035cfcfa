// Package textutil holds small string helpers shared by the segment loaders
// and output naming: cue markup stripping, whitespace folding and
// filesystem-safe tokens.
package textutil
