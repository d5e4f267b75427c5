package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"kaldiark/internal/fileutil"
	"kaldiark/internal/logging"
	"kaldiark/internal/npz"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var filterPath string

	cmd := &cobra.Command{
		Use:   "convert <ark> <npz>",
		Short: "Convert a Kaldi text archive to a NumPy .npz file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd, "convert")
			if err != nil {
				return err
			}

			source, target := args[0], args[1]
			started := time.Now()
			logger.Info("conversion started",
				logging.String(logging.FieldSource, source),
				logging.String("target", target),
				logging.Bool("filtered", filterPath != ""),
			)

			archive, err := ctx.readArchive(source, filterPath, logger)
			if err != nil {
				return err
			}

			writer := npz.Writer{Logger: logger}
			err = fileutil.WriteFileAtomic(cmd.Context(), target, 0o644, func(w io.Writer) error {
				return writer.Write(w, archive)
			})
			if err != nil {
				logger.Error("conversion failed", logging.Error(err))
				return fmt.Errorf("write npz: %w", err)
			}

			logger.Info("conversion finished",
				logging.Int("keys", archive.Len()),
				logging.Duration("duration", time.Since(started)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d records to %s\n", archive.Len(), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&filterPath, "filter", "", "File listing identifiers to keep, one per line")
	return cmd
}
