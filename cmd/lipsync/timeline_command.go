package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/pipeline"
	"lipsync/internal/segments"
	"lipsync/internal/timeline"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "timeline <segments>",
		Short: "Build a lip-sync timeline from transcript segments",
		Long: `Build a lip-sync timeline from a transcript (JSON, YAML or SRT).

The timeline is written as lip_sync JSON to --output, or to stdout when no
output path is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segs, err := segments.Load(args[0])
			if err != nil {
				return err
			}
			return ctx.withRenderer(func(r *pipeline.Renderer) error {
				events, err := r.BuildTimeline(cmd.Context(), segs)
				if err != nil {
					return err
				}
				target := strings.TrimSpace(outputPath)
				if target == "" {
					return timeline.Encode(cmd.OutOrStdout(), events)
				}
				if err := timeline.WriteFile(target, events); err != nil {
					return err
				}
				if ctx.jsonMode() {
					return writeJSON(cmd, map[string]any{"path": target, "events": len(events)})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", plural(len(events), "event"), target)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the timeline to this path instead of stdout")
	return cmd
}
