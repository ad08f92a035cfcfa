package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes v as JSON in --json mode and otherwise calls human.
func emit(ctx *commandContext, cmd *cobra.Command, v any, human func(io.Writer) error) error {
	if ctx.jsonMode() {
		return writeJSON(cmd, v)
	}
	return human(cmd.OutOrStdout())
}
