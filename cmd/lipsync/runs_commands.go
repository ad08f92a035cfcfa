package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"lipsync/internal/runs"
	"lipsync/internal/services"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect render history",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRuns()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return emit(ctx, cmd, list, func(out io.Writer) error {
				if len(list) == 0 {
					_, err := fmt.Fprintln(out, "No renders recorded")
					return err
				}
				rows := make([][]string, 0, len(list))
				for _, run := range list {
					rows = append(rows, []string{
						shortID(run.ID),
						string(run.Status),
						formatTimestamp(run.StartedAt),
						strconv.Itoa(run.FrameCount),
						formatElapsed(run.Elapsed()),
						orDash(run.OutputPath),
					})
				}
				_, err := fmt.Fprintln(out, renderTable(
					[]string{"ID", "Status", "Started", "Frames", "Elapsed", "Output"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of renders to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one render by id or unique id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRuns()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return services.Wrap(services.ErrNotFound, "runs", "show", fmt.Sprintf("no render with id %q", args[0]), nil)
			}
			return emit(ctx, cmd, run, func(out io.Writer) error {
				_, err := fmt.Fprintln(out, renderDetails(runDetails(run)))
				return err
			})
		},
	}
}

func runDetails(run *runs.Run) [][2]string {
	pairs := [][2]string{
		{"ID", run.ID},
		{"Status", string(run.Status)},
		{"Started", formatTimestamp(run.StartedAt)},
		{"Elapsed", formatElapsed(run.Elapsed())},
		{"Segments", orDash(run.SegmentsPath)},
		{"Timeline", orDash(run.TimelinePath)},
		{"Audio", orDash(run.AudioPath)},
		{"Output", orDash(run.OutputPath)},
		{"FPS", strconv.Itoa(run.FPS)},
		{"Events", strconv.Itoa(run.EventCount)},
		{"Frames", strconv.Itoa(run.FrameCount)},
		{"Video", formatSeconds(run.VideoSeconds)},
		{"Atlas", orDash(run.AtlasTier)},
	}
	if run.AudioSeconds > 0 {
		pairs = append(pairs, [2]string{"Audio length", formatSeconds(run.AudioSeconds)})
		pairs = append(pairs, [2]string{"Audio trimmed", yesNo(run.AudioTrimmed)})
	}
	if run.SkippedIntervals > 0 {
		pairs = append(pairs, [2]string{"Skipped", plural(run.SkippedIntervals, "interval")})
	}
	if run.ArchivePath != "" {
		pairs = append(pairs, [2]string{"Archive", run.ArchivePath})
	}
	if run.Status == runs.StatusFailed {
		pairs = append(pairs, [2]string{"Failure", orDash(run.FailureKind)})
		pairs = append(pairs, [2]string{"Error", orDash(run.ErrorMessage)})
	}
	return pairs
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished renders beyond the newest --keep",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return services.Wrap(services.ErrValidation, "runs", "prune", "--keep must not be negative", nil)
			}
			store, err := ctx.openRuns()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context(), keep)
			if err != nil {
				return err
			}
			return emit(ctx, cmd, map[string]int64{"removed": removed}, func(out io.Writer) error {
				_, err := fmt.Fprintf(out, "Removed %s\n", plural(int(removed), "render"))
				return err
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "Number of most recent renders to keep")
	return cmd
}
