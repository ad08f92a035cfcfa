package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lipsync/internal/atlas"
	"lipsync/internal/mouth"
)

func newAtlasCommand(ctx *commandContext) *cobra.Command {
	atlasCmd := &cobra.Command{
		Use:   "atlas",
		Short: "Manage the mouth-shape image atlas",
	}
	atlasCmd.AddCommand(newAtlasBuildCommand(ctx))
	atlasCmd.AddCommand(newAtlasShowCommand(ctx))
	return atlasCmd
}

func newAtlasBuildCommand(ctx *commandContext) *cobra.Command {
	var portrait string
	var force bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render one image per mouth shape into the atlas directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if trimmed := strings.TrimSpace(portrait); trimmed != "" {
				cfg.Avatar.PortraitPath = trimmed
			}

			face, err := atlas.LoadBaseFace(logger, atlas.DefaultSources(
				cfg.Avatar.PortraitPath,
				cfg.Avatar.MaxDimension,
				cfg.Avatar.PlaceholderSize,
			)...)
			if err != nil {
				return err
			}

			var set *atlas.Atlas
			if force {
				set, err = atlas.Materialize(face, cfg.Paths.AtlasDir, logger)
			} else {
				set, err = atlas.Ensure(face, cfg.Paths.AtlasDir, logger)
			}
			if err != nil {
				return err
			}
			return emitAtlas(ctx, cmd, set)
		},
	}

	cmd.Flags().StringVar(&portrait, "portrait", "", "Portrait image to draw mouths onto (overrides avatar.portrait_path)")
	cmd.Flags().BoolVar(&force, "force", false, "Re-render even when the atlas matches the base face")
	return cmd
}

func newAtlasShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List the images in the atlas directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			set, err := atlas.Open(cfg.Paths.AtlasDir)
			if err != nil {
				return err
			}
			return emitAtlas(ctx, cmd, set)
		},
	}
}

type atlasView struct {
	Dir         string            `json:"dir"`
	Tier        string            `json:"tier,omitempty"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Images      map[string]string `json:"images"`
}

func emitAtlas(ctx *commandContext, cmd *cobra.Command, set *atlas.Atlas) error {
	view := atlasView{
		Dir:         set.Dir(),
		Tier:        set.Tier(),
		Fingerprint: set.Fingerprint(),
		Images:      make(map[string]string, len(mouth.All())),
	}
	rows := make([][]string, 0, len(mouth.All()))
	for _, sym := range mouth.All() {
		path, ok := set.Lookup(sym)
		if ok {
			view.Images[sym.String()] = path
		}
		rows = append(rows, []string{sym.String(), sym.Description(), orDash(path)})
	}
	return emit(ctx, cmd, view, func(out io.Writer) error {
		fmt.Fprintln(out, renderDetails([][2]string{
			{"Directory", view.Dir},
			{"Tier", orDash(view.Tier)},
			{"Fingerprint", orDash(shortID(view.Fingerprint))},
		}))
		fmt.Fprintln(out, renderTable([]string{"Mouth", "Shape", "Image"}, rows, nil))
		return nil
	})
}
