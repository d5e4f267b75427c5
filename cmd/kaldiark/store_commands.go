package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kaldiark/internal/logging"
	"kaldiark/internal/store"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Manage archives kept in the SQLite store",
	}

	storeCmd.AddCommand(newStoreImportCommand(ctx))
	storeCmd.AddCommand(newStoreListCommand(ctx))
	storeCmd.AddCommand(newStoreExportCommand(ctx))
	storeCmd.AddCommand(newStoreDeleteCommand(ctx))

	return storeCmd
}

func (c *commandContext) openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), cfg.Store.Path)
}

func newStoreImportCommand(ctx *commandContext) *cobra.Command {
	var filterPath string

	cmd := &cobra.Command{
		Use:   "import <ark>",
		Short: "Parse an archive and save it to the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd, "store")
			if err != nil {
				return err
			}
			archive, err := ctx.readArchive(args[0], filterPath, logger)
			if err != nil {
				return err
			}

			st, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			imp, err := st.Save(cmd.Context(), args[0], archive)
			if err != nil {
				return err
			}
			logger.Info("archive imported",
				logging.String("import_id", imp.ID),
				logging.Int("records", imp.RecordCount),
				logging.String("store", st.Path()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records as %s\n", imp.RecordCount, imp.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&filterPath, "filter", "", "File listing identifiers to keep, one per line")
	return cmd
}

func newStoreListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			imports, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if imports == nil {
					imports = []store.Import{}
				}
				return writeJSON(cmd, imports)
			}

			out := cmd.OutOrStdout()
			if len(imports) == 0 {
				fmt.Fprintln(out, "No imports")
				return nil
			}
			rows := make([][]string, 0, len(imports))
			for _, imp := range imports {
				rows = append(rows, []string{
					imp.ID,
					imp.Source,
					strconv.Itoa(imp.RecordCount),
					imp.CreatedAt.Local().Format(time.DateTime),
				})
			}
			headers := []string{"ID", "Source", "Records", "Created"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns, shouldColorize(cmd)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newStoreExportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <import-id|latest> <ark|->",
		Short: "Write a stored import as a Kaldi text archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd, "store")
			if err != nil {
				return err
			}
			writer, err := ctx.archiveWriter()
			if err != nil {
				return err
			}
			st, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			id := strings.TrimSpace(args[0])
			if strings.EqualFold(id, "latest") {
				id = ""
			}
			imp, archive, err := st.Load(cmd.Context(), id)
			if err != nil {
				return err
			}
			logger.Info("archive loaded",
				logging.String("import_id", imp.ID),
				logging.Int("records", archive.Len()),
			)
			return writeArchiveOutput(cmd, args[1], writer, archive)
		},
	}
	return cmd
}

func newStoreDeleteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <import-id>",
		Short: "Remove a stored import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			id := strings.TrimSpace(args[0])
			if err := st.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted import %s\n", id)
			return nil
		},
	}
	return cmd
}
