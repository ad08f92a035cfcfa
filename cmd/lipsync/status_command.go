package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/atlas"
	"lipsync/internal/config"
	"lipsync/internal/deps"
	"lipsync/internal/language"
	"lipsync/internal/preflight"
	"lipsync/internal/runs"
)

type statusReport struct {
	ConfigPath   string             `json:"config_path"`
	Language     languageSummary    `json:"language"`
	Directories  []preflight.Result `json:"directories"`
	Dependencies []deps.Status      `json:"dependencies"`
	Atlas        *atlasSummary      `json:"atlas,omitempty"`
	LastRun      *runs.Run          `json:"last_run,omitempty"`
}

type languageSummary struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Voice string `json:"voice"`
}

type atlasSummary struct {
	Dir         string `json:"dir"`
	Tier        string `json:"tier"`
	Fingerprint string `json:"fingerprint"`
	Shapes      int    `json:"shapes"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, dependency, and atlas status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report := statusReport{
				ConfigPath: ctx.configPath,
				Language: languageSummary{
					Code:  cfg.Phonemizer.Language,
					Name:  language.DisplayName(cfg.Phonemizer.Language),
					Voice: language.Voice(cfg.Phonemizer.Language),
				},
				Directories:  directoryChecks(cfg),
				Dependencies: preflight.CheckSystemDeps(cfg),
			}
			if set, err := atlas.Open(cfg.Paths.AtlasDir); err == nil {
				report.Atlas = &atlasSummary{
					Dir:         set.Dir(),
					Tier:        set.Tier(),
					Fingerprint: set.Fingerprint(),
					Shapes:      len(set.Symbols()),
				}
			}
			if store, err := ctx.openRuns(); err == nil {
				recent, listErr := store.List(cmd.Context(), 1)
				store.Close()
				if listErr == nil && len(recent) > 0 {
					report.LastRun = recent[0]
				}
			}

			return emit(ctx, cmd, report, func(out io.Writer) error {
				return printStatus(out, report)
			})
		},
	}
}

func directoryChecks(cfg *config.Config) []preflight.Result {
	results := []preflight.Result{
		preflight.CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		preflight.CheckDirectoryAccess("Atlas directory", cfg.Paths.AtlasDir),
		preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	if strings.TrimSpace(cfg.Avatar.PortraitPath) != "" {
		results = append(results, preflight.CheckPortrait(cfg.Avatar.PortraitPath))
	}
	if cfg.Video.ArchiveAV1 {
		results = append(results, preflight.CheckDirectoryAccess("Archive directory", cfg.Video.ArchiveDir))
	}
	return results
}

func printStatus(out io.Writer, report statusReport) error {
	colorize := shouldColorize(out)
	var lines []string

	lines = append(lines, renderSectionHeader("Configuration", colorize)...)
	lines = append(lines, renderStatusLine("Config", statusInfo, orDash(report.ConfigPath), colorize))
	lines = append(lines, renderStatusLine("Language", statusInfo, fmt.Sprintf("%s (%s, espeak voice %s)", report.Language.Name, report.Language.Code, report.Language.Voice), colorize))
	lines = append(lines, checkLines(report.Directories, colorize)...)
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	lines = append(lines, dependencyLines(report.Dependencies, colorize)...)
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Atlas", colorize)...)
	if report.Atlas == nil {
		lines = append(lines, renderStatusLine("Mouth shapes", statusWarn, "not built yet (run `lipsync atlas build`)", colorize))
	} else {
		message := fmt.Sprintf("%s, %s tier, fingerprint %s", plural(report.Atlas.Shapes, "shape"), report.Atlas.Tier, shortID(report.Atlas.Fingerprint))
		lines = append(lines, renderStatusLine("Mouth shapes", statusOK, message, colorize))
	}
	lines = append(lines, "")

	lines = append(lines, renderSectionHeader("Last render", colorize)...)
	if report.LastRun == nil {
		lines = append(lines, renderStatusLine("Run", statusInfo, "none recorded", colorize))
	} else {
		run := report.LastRun
		lines = append(lines, renderStatusLine(shortID(run.ID), runStatusKind(run.Status), fmt.Sprintf("%s at %s", run.Status, formatTimestamp(run.StartedAt)), colorize))
	}

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

func runStatusKind(status runs.Status) statusKind {
	switch status {
	case runs.StatusSucceeded:
		return statusOK
	case runs.StatusNothingToRender:
		return statusWarn
	case runs.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}
