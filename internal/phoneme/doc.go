// Package phoneme turns text into IPA tokens and folds them onto mouth shapes.
//
// Transcription is delegated to espeak-ng (or espeak) through an injectable
// command runner. A Chain tries several phonemizers in order and reports
// which tier answered. MapToMouth is a static, total table: any token it does
// not recognise becomes the rest shape.
package phoneme
