package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/pipeline"
	"lipsync/internal/preflight"
	"lipsync/internal/runs"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render <segments>",
		Short: "Render a lip-synced avatar video from transcript segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := requirePreflight(preflight.RunAll(cfg)); err != nil {
				return err
			}
			return ctx.withRenderer(func(r *pipeline.Renderer) error {
				outcome, err := r.Render(cmd.Context(), pipeline.Request{
					SegmentsPath: args[0],
					TimelinePath: strings.TrimSpace(opts.timelinePath),
					AudioPath:    strings.TrimSpace(opts.audioPath),
					OutputPath:   strings.TrimSpace(opts.outputPath),
					FPS:          opts.fps,
					Verify:       opts.verify,
				})
				if err != nil {
					return fmt.Errorf("render %s (run %s): %w", args[0], shortID(outcome.RunID), err)
				}
				return emitOutcome(ctx, cmd, outcome)
			})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.timelinePath, "timeline", "", "Also write the lip-sync timeline to this path")
	return cmd
}

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var opts renderOptions
	var segmentsPath string

	cmd := &cobra.Command{
		Use:   "assemble <lip_sync.json>",
		Short: "Render a video from an existing lip-sync timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRenderer(func(r *pipeline.Renderer) error {
				outcome, err := r.RenderTimeline(cmd.Context(), pipeline.Request{
					TimelinePath: args[0],
					SegmentsPath: strings.TrimSpace(segmentsPath),
					AudioPath:    strings.TrimSpace(opts.audioPath),
					OutputPath:   strings.TrimSpace(opts.outputPath),
					FPS:          opts.fps,
					Verify:       opts.verify,
				})
				if err != nil {
					return fmt.Errorf("assemble %s (run %s): %w", args[0], shortID(outcome.RunID), err)
				}
				return emitOutcome(ctx, cmd, outcome)
			})
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&segmentsPath, "segments", "", "Transcript whose end time bounds the final mouth shape")
	return cmd
}

type renderOptions struct {
	audioPath    string
	outputPath   string
	timelinePath string
	fps          int
	verify       bool
}

func (o *renderOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.audioPath, "audio", "", "Audio track to mux into the video")
	cmd.Flags().StringVarP(&o.outputPath, "output", "o", "", "Output video path (defaults to <work_dir>/<name>.mp4)")
	cmd.Flags().IntVar(&o.fps, "fps", 0, "Frame rate (defaults to video.fps)")
	cmd.Flags().BoolVar(&o.verify, "verify", false, "Inspect the finished video with ffprobe (also enabled by video.verify_output)")
}

// requirePreflight fails on any unmet check except the portrait, which falls
// back to the placeholder face.
func requirePreflight(results []preflight.Result) error {
	var problems []string
	for _, result := range preflight.Failed(results) {
		if result.Name == "Portrait" {
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("preflight failed:\n  %s\nrun `lipsync status` for details", strings.Join(problems, "\n  "))
}

func emitOutcome(ctx *commandContext, cmd *cobra.Command, outcome pipeline.Outcome) error {
	return emit(ctx, cmd, outcome, func(out io.Writer) error {
		if outcome.Status == runs.StatusNothingToRender {
			_, err := fmt.Fprintf(out, "Nothing to render (run %s)\n", shortID(outcome.RunID))
			return err
		}
		pairs := [][2]string{
			{"Run", outcome.RunID},
			{"Output", outcome.Video.OutputPath},
			{"Frames", fmt.Sprintf("%d at %d fps", outcome.Video.FrameCount, outcome.Video.FPS)},
			{"Video", formatSeconds(outcome.Video.VideoSeconds)},
			{"Audio", audioSummary(outcome)},
			{"Events", fmt.Sprintf("%d", outcome.EventCount)},
			{"Atlas", orDash(outcome.AtlasTier)},
			{"Elapsed", formatElapsed(outcome.Elapsed)},
		}
		if outcome.TimelinePath != "" {
			pairs = append(pairs, [2]string{"Timeline", outcome.TimelinePath})
		}
		if outcome.Video.Verified {
			pairs = append(pairs, [2]string{"Verified", "yes"})
		}
		if outcome.ArchivePath != "" {
			pairs = append(pairs, [2]string{"Archive", outcome.ArchivePath})
		}
		if len(outcome.Skipped) > 0 {
			pairs = append(pairs, [2]string{"Skipped", plural(len(outcome.Skipped), "interval")})
		}
		_, err := fmt.Fprintln(out, renderDetails(pairs))
		return err
	})
}

func audioSummary(outcome pipeline.Outcome) string {
	if !outcome.Video.HasAudio {
		return "none"
	}
	summary := formatSeconds(outcome.Video.AudioSeconds)
	if outcome.Video.AudioTrimmed {
		summary += " (trimmed)"
	}
	return summary
}
