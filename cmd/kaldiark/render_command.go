package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"kaldiark/internal/ark"
	"kaldiark/internal/fileutil"
	"kaldiark/internal/logging"
	"kaldiark/internal/npz"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <npz> <ark|->",
		Short: "Render a NumPy .npz file as a Kaldi text archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd, "render")
			if err != nil {
				return err
			}
			writer, err := ctx.archiveWriter()
			if err != nil {
				return err
			}

			source, target := args[0], args[1]
			logger.Info("reading npz", logging.String(logging.FieldSource, source))
			archive, err := npz.ReadFile(source)
			if err != nil {
				return err
			}
			if err := writeArchiveOutput(cmd, target, writer, archive); err != nil {
				return err
			}
			logger.Info("render finished", logging.Int("keys", archive.Len()))
			return nil
		},
	}
	return cmd
}

// writeArchiveOutput renders archive to target, or to stdout for "-".
func writeArchiveOutput(cmd *cobra.Command, target string, writer ark.Writer, archive *ark.Archive) error {
	if strings.TrimSpace(target) == "-" {
		return writer.Write(cmd.OutOrStdout(), archive)
	}
	err := fileutil.WriteFileAtomic(cmd.Context(), target, 0o644, func(w io.Writer) error {
		return writer.Write(w, archive)
	})
	if err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", archive.Len(), target)
	return nil
}
