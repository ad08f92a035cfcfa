package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/frames"
	"lipsync/internal/pipeline"
	"lipsync/internal/segments"
	"lipsync/internal/timeline"
)

func newFramesCommand(ctx *commandContext) *cobra.Command {
	var segmentsPath string
	var fps int

	cmd := &cobra.Command{
		Use:   "frames <lip_sync.json>",
		Short: "Preview the frame sequence for a timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := timeline.ReadFile(args[0])
			if err != nil {
				return err
			}
			var end float64
			if strings.TrimSpace(segmentsPath) != "" {
				segs, err := segments.Load(segmentsPath)
				if err != nil {
					return err
				}
				end = timeline.End(segs)
			}

			return ctx.withRenderer(func(r *pipeline.Renderer) error {
				var resolver frames.Resolver
				if len(events) > 0 {
					set, err := r.EnsureAtlas(cmd.Context())
					if err != nil {
						return err
					}
					resolver = set
				}
				result, err := r.SequenceFrames(cmd.Context(), events, end, fps, resolver)
				if err != nil {
					return err
				}
				return emit(ctx, cmd, result, func(out io.Writer) error {
					return printFrames(out, result)
				})
			})
		},
	}

	cmd.Flags().StringVar(&segmentsPath, "segments", "", "Transcript whose end time bounds the final mouth shape")
	cmd.Flags().IntVar(&fps, "fps", 0, "Frame rate (defaults to video.fps)")
	return cmd
}

func printFrames(out io.Writer, result frames.Result) error {
	if result.Empty() {
		_, err := fmt.Fprintln(out, "Nothing to render")
		return err
	}
	runs := result.Runs()
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			strconv.Itoa(run.Start),
			strconv.Itoa(run.Start + run.Count - 1),
			run.Mouth.String(),
			strconv.Itoa(run.Count),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"First", "Last", "Mouth", "Frames"}, rows, []columnAlignment{alignRight, alignRight, alignLeft, alignRight}))
	fmt.Fprintf(out, "%s at %d fps (%s)\n", plural(len(result.Frames), "frame"), result.FPS, formatSeconds(result.Duration()))
	if len(result.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped %s with no image\n", plural(len(result.Skipped), "interval"))
	}
	return nil
}
