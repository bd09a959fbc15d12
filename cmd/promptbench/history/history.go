package historycmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/promptbench/cmd/promptbench/cmdconfig"
	"github.com/papercomputeco/promptbench/pkg/archive"
)

const historyLongDesc string = `List runs stored in the SQLite run archive.

Without arguments, prints one line per run, newest first. With a hash
(or a unique prefix of one), prints the full archived record as JSON.

Examples:
  promptbench history --archive runs.db
  promptbench history --archive runs.db 3fa9c1`

const historyShortDesc string = "Show archived runs"

type historyCommander struct {
	flags cmdconfig.Flags
	limit int
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history [hash]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum runs to list (0 for all)")

	return cmd
}

func (c *historyCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := c.flags.Load(cmd)
	if err != nil {
		return err
	}
	if cfg.Archive.Path == "" {
		return errors.New("no archive configured: pass --archive or set [archive] path")
	}

	storer, err := archive.NewSQLiteStorer(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("could not open archive %s: %w", cfg.Archive.Path, err)
	}
	defer storer.Close()

	records, err := storer.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	if len(args) == 1 {
		return c.show(cmd, records, args[0])
	}

	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HASH\tCREATED\tTEMPLATE\tPARSED\tPREVIEW")
	for i, r := range records {
		if c.limit > 0 && i >= c.limit {
			break
		}
		parsed := "yes"
		if r.Degraded {
			parsed = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.Hash[:12], r.CreatedAt.Local().Format(time.DateTime), r.Template, parsed, preview(r.Raw, 48))
	}
	return w.Flush()
}

func (c *historyCommander) show(cmd *cobra.Command, records []*archive.Record, prefix string) error {
	var match *archive.Record
	for _, r := range records {
		if !strings.HasPrefix(r.Hash, prefix) {
			continue
		}
		if match != nil {
			return fmt.Errorf("hash prefix %q is ambiguous", prefix)
		}
		match = r
	}
	if match == nil {
		return archive.ErrNotFound{Hash: prefix}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(match)
}

func preview(s string, width int) string {
	return ansi.Truncate(strings.Join(strings.Fields(s), " "), width, "...")
}
