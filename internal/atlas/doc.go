// Package atlas renders and stores one face image per mouth shape.
//
// A base face comes from an ordered fallback chain (user portrait, then a
// drawn placeholder). RenderMouth overlays a black mouth on a copy of the
// base; geometry is defined on a 200x200 reference frame and scaled to the
// base image size, so atlases built from different resolutions stay
// proportional.
//
// Atlases are plain values: Render builds one in memory, Materialize writes
// avatar_<S>.png files plus a manifest, Open reloads them and Ensure reuses an
// on-disk atlas whose fingerprint still matches the base face. Nothing is
// cached globally and an Atlas is never mutated after construction.
package atlas
