// Package frames expands a lip-sync timeline into a fixed-rate frame list.
//
// Each interval between consecutive events shows the earlier event's mouth
// for max(1, round(duration*fps)) frames. Time arithmetic runs on decimals
// built from each timestamp's shortest representation so values such as
// 0.3-0.1 count as exactly 0.2 seconds. Symbols without an atlas image are
// skipped and reported instead of failing the sequence.
package frames
