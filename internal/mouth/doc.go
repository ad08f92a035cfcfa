// Package mouth defines the closed alphabet of mouth-shape symbols shared by
// the phoneme mapper, timeline, atlas and frame sequencer.
package mouth
