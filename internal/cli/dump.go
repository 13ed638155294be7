package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/casesync/internal/config"
	"github.com/roach88/casesync/internal/remote"
)

// dumpTable is a fetched dataset.
type dumpTable struct {
	Dataset string       `json:"dataset"`
	Columns []string     `json:"columns"`
	Rows    []remote.Row `json:"rows"`
}

func newDumpTable(ds remote.Dataset, rows []remote.Row) dumpTable {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return dumpTable{Dataset: ds.String(), Columns: cols, Rows: rows}
}

// RenderText writes the rows as tab separated values with a header line.
// Tabs and newlines inside values are replaced by spaces.
func (t dumpTable) RenderText(w io.Writer) error {
	if len(t.Columns) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, strings.Join(t.Columns, "\t")); err != nil {
		return err
	}
	clean := strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")
	vals := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			vals[i] = clean.Replace(r[c])
		}
		if _, err := fmt.Fprintln(w, strings.Join(vals, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// checkResult is the outcome of a connection test.
type checkResult struct {
	URL     string `json:"url"`
	Dataset string `json:"dataset"`
	Rows    int    `json:"rows"`
}

// RenderText implements textRenderer.
func (c checkResult) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "OK: %s answered with %d rows from %s\n", c.URL, c.Rows, c.Dataset)
	return err
}

// runDump fetches one dataset and prints it, bypassing reconciliation.
func runDump(cmd *cobra.Command, opts *RootOptions) error {
	ds := remote.Dataset{Criteria: opts.DumpCriteria, RowTag: opts.DumpTag}
	if ds.RowTag == "" {
		ds.RowTag = strings.ToUpper(ds.Criteria)
	}
	rows, _, err := fetchOne(cmd, opts, ds)
	if err != nil {
		return err
	}
	return formatter(cmd, opts).Success(newDumpTable(ds, rows))
}

// runCheck fetches the org-unit dataset to prove the connection and the
// credentials work.
func runCheck(cmd *cobra.Command, opts *RootOptions) error {
	rows, cfg, err := fetchOne(cmd, opts, remote.OrgUnits)
	if err != nil {
		return err
	}
	return formatter(cmd, opts).Success(checkResult{
		URL:     cfg.Remote.URL,
		Dataset: remote.OrgUnits.String(),
		Rows:    len(rows),
	})
}

func fetchOne(cmd *cobra.Command, opts *RootOptions, ds remote.Dataset) ([]remote.Row, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	gw, cleanup, err := buildGateway(cfg, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	defer cleanup()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	rows, err := remote.Fetch(ctx, gw, ds)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to fetch "+ds.String(), err)
	}
	slog.Debug("dataset fetched", "dataset", ds.String(), "rows", len(rows))
	return rows, cfg, nil
}
