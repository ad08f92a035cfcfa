// Package language normalizes language codes and maps them onto espeak voices.
//
// Config values, CLI flags and segment metadata may carry ISO 639-1 or 639-2
// codes, English word forms, or BCP 47 tags. Everything is funnelled through
// golang.org/x/text/language here so the phonemizer and case folding agree on
// one canonical tag.
package language
