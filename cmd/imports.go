package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/credenciados/internal/provider"
)

var (
	importsLimit  int
	importsFormat string
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List recent import runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !validFormat(importsFormat) {
			return eris.Errorf("unsupported output format: %s", importsFormat)
		}

		st, err := openStore(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		logs, err := st.ListImportLogs(ctx, importsLimit)
		if err != nil {
			return eris.Wrap(err, "imports list")
		}

		switch importsFormat {
		case "json", "yaml":
			return encode(os.Stdout, logs, importsFormat)
		}

		if len(logs) == 0 {
			fmt.Fprintln(os.Stderr, "No imports found.")
			return nil
		}
		formatImportLogs(os.Stdout, logs)
		return nil
	},
}

var importsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one import run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !validFormat(importsFormat) {
			return eris.Errorf("unsupported output format: %s", importsFormat)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return eris.Errorf("invalid import id: %s", args[0])
		}

		st, err := openStore(ctx, "store")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		return showImport(ctx, st, id, importsFormat, os.Stdout)
	},
}

func init() {
	importsCmd.PersistentFlags().StringVar(&importsFormat, "format", "text", "output format: text, json or yaml")
	importsCmd.Flags().IntVar(&importsLimit, "limit", 20, "max number of imports to display")
	importsCmd.AddCommand(importsShowCmd)
	rootCmd.AddCommand(importsCmd)
}

// showImport prints the import log with the given id.
func showImport(ctx context.Context, st provider.LogStore, id int64, format string, out io.Writer) error {
	l, err := st.GetImportLog(ctx, id)
	if err != nil {
		return eris.Wrap(err, "imports show")
	}
	if l == nil {
		return eris.Errorf("import not found: %d", id)
	}

	switch format {
	case "json", "yaml":
		return encode(out, l, format)
	}
	formatImportLog(out, l)
	return nil
}

func encode(out io.Writer, v any, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
