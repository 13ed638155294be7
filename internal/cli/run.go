package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/casesync/internal/engine"
	"github.com/roach88/casesync/internal/importfile"
	"github.com/roach88/casesync/internal/remote"
	"github.com/roach88/casesync/internal/store"
)

// syncReport is the printed result of a sync run.
type syncReport struct {
	RunID    string    `json:"run_id"`
	Import   string    `json:"import_file"`
	DryRun   bool      `json:"dry_run"`
	Started  time.Time `json:"started_at"`
	Finished time.Time `json:"finished_at"`
	store.Counts
	Error string `json:"error,omitempty"`
}

func (r syncReport) runID() string { return r.RunID }

// RenderText implements textRenderer.
func (r syncReport) RenderText(w io.Writer) error {
	status := "completed"
	if r.Error != "" {
		status = "failed"
	}
	if r.DryRun {
		status += " (dry run)"
	}
	_, err := fmt.Fprintf(w, `Run %s %s in %s
  persons:            %d
  submitted:          %d
  unchanged:          %d
  skipped:            %d
  rejected by remote: %d
  failed:             %d
  import data errors: %d
  follow-up failures: %d
`, r.RunID, status, r.Finished.Sub(r.Started).Round(time.Millisecond),
		r.Persons, r.Submitted, r.Unchanged, r.Skipped, r.Rejected, r.Failed, r.DataErrors, r.FollowUpFailures)
	if err == nil && r.Error != "" {
		_, err = fmt.Fprintf(w, "  error: %s\n", r.Error)
	}
	return err
}

// runSync reconciles --import against the remote system.
func runSync(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.DryRun {
		cfg.Engine.DryRun = true
	}
	logger := slog.Default()

	file, err := importfile.ParseFile(opts.ImportPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read import file", err)
	}
	slog.Info("import file parsed", "path", opts.ImportPath, "records", len(file.Persons))

	gw, cleanup, err := buildGateway(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var gateway remote.Gateway = gw
	if cfg.Engine.DryRun {
		gateway = remote.NewDryRun(gw, logger)
	}

	engineOpts := []engine.EngineOption{
		engine.WithConfig(cfg.EngineConfig()),
		engine.WithLogger(logger),
	}
	if cfg.Journal.Path != "" {
		slog.Debug("opening journal", "path", cfg.Journal.Path)
		st, err := store.Open(cfg.Journal.Path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithJournal(st))
	}
	var metrics *engine.Metrics
	if cfg.Metrics.Textfile != "" {
		metrics = engine.NewMetrics()
		engineOpts = append(engineOpts, engine.WithMetrics(metrics))
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	sum, runErr := engine.NewSyncer(gateway, engineOpts...).Run(ctx, file, opts.ImportPath)

	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Error("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	report := syncReport{
		RunID:    sum.RunID,
		Import:   opts.ImportPath,
		DryRun:   cfg.Engine.DryRun,
		Started:  sum.Started,
		Finished: sum.Finished,
		Counts:   sum.Counts,
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	if err := formatter(cmd, opts).Success(report); err != nil {
		return WrapExitError(ExitFailure, "failed to write report", err)
	}

	if runErr != nil {
		if isCancelled(runErr) {
			return WrapExitError(ExitFailure, "sync interrupted", runErr)
		}
		return WrapExitError(ExitFailure, "sync failed", runErr)
	}
	return nil
}
