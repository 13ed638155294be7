package cli

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/casesync/internal/engine"
	"github.com/roach88/casesync/internal/store"
)

// JournalOptions holds flags for the journal commands.
type JournalOptions struct {
	*RootOptions
	Database string
	Limit    int
	Failures bool
}

// NewJournalCommand creates the journal command group.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect past sync runs",
		Long: `Inspect the run journal written by sync runs.

The journal path is taken from --db, or from journal.path in --config.

Example:
  casesync journal list --db ./casesync.db
  casesync journal show latest --failures -p casesync.cue`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the journal database (overrides journal.path)")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List recent runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournalList(cmd, opts)
		},
	}
	list.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to show (0 for all)")

	show := &cobra.Command{
		Use:           "show [run-id|latest]",
		Short:         "Show one run and its submissions",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := "latest"
			if len(args) == 1 {
				id = args[0]
			}
			return runJournalShow(cmd, opts, id)
		},
	}
	show.Flags().BoolVar(&opts.Failures, "failures", false, "only show rejected and failed submissions")

	cmd.AddCommand(list, show)
	return cmd
}

func openJournal(opts *JournalOptions) (*store.Store, error) {
	path := opts.Database
	if path == "" && opts.ConfigPath != "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.Path
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no journal configured: pass --db or set journal.path in --config")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

func closeJournal(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing journal", "error", err)
	}
}

// runList is the printed result of journal list.
type runList []store.Run

// RenderText implements textRenderer.
func (l runList) RenderText(w io.Writer) error {
	if len(l) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tPERSONS\tSUBMITTED\tREJECTED\tFAILED\tDATA ERRORS")
	for _, r := range l {
		status := r.Status
		if r.DryRun {
			status += " (dry)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), status,
			r.Persons, r.Submitted, r.Rejected, r.Failed, r.DataErrors)
	}
	return tw.Flush()
}

func runJournalList(cmd *cobra.Command, opts *JournalOptions) error {
	st, err := openJournal(opts)
	if err != nil {
		return err
	}
	defer closeJournal(st)

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list runs", err)
	}
	return formatter(cmd, opts.RootOptions).Success(runList(runs))
}

// runDetail is the printed result of journal show.
type runDetail struct {
	Run         store.Run          `json:"run"`
	Submissions []store.Submission `json:"submissions"`
	verbose     bool
}

func (d runDetail) runID() string { return d.Run.ID }

// RenderText implements textRenderer. Payloads are included when verbose.
func (d runDetail) RenderText(w io.Writer) error {
	r := d.Run
	fmt.Fprintf(w, "Run:       %s\n", r.ID)
	fmt.Fprintf(w, "Import:    %s\n", r.ImportFile)
	fmt.Fprintf(w, "Status:    %s\n", r.Status)
	fmt.Fprintf(w, "Started:   %s\n", r.StartedAt.Local().Format(time.DateTime))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(w, "Finished:  %s\n", r.FinishedAt.Local().Format(time.DateTime))
	}
	if r.DryRun {
		fmt.Fprintln(w, "Dry run:   yes")
	}
	if r.Error != "" {
		fmt.Fprintf(w, "Error:     %s\n", r.Error)
	}
	fmt.Fprintf(w, "Persons:   %d (submitted %d, unchanged %d, skipped %d, rejected %d, failed %d, data errors %d)\n",
		r.Persons, r.Submitted, r.Unchanged, r.Skipped, r.Rejected, r.Failed, r.DataErrors)

	if len(d.Submissions) == 0 {
		_, err := fmt.Fprintln(w, "\nNo submissions.")
		return err
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tPERSON\tKIND\tOUTCOME\tRESULT\tERROR")
	for _, s := range d.Submissions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", s.Seq, s.Person, s.Kind, s.Outcome, s.Result, s.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if d.verbose {
		for _, s := range d.Submissions {
			fmt.Fprintf(w, "\n--- %d %s (%s)\n%s\n", s.Seq, s.Person, s.PayloadHash, s.Payload)
		}
	}
	return nil
}

func runJournalShow(cmd *cobra.Command, opts *JournalOptions, id string) error {
	st, err := openJournal(opts)
	if err != nil {
		return err
	}
	defer closeJournal(st)

	ctx := cmd.Context()
	var run store.Run
	if id == "latest" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.GetRun(ctx, id)
	}
	if err != nil {
		if store.IsNotFound(err) {
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitFailure, "failed to read run", err)
	}

	filter := store.SubmissionFilter{RunID: run.ID}
	if opts.Failures {
		filter.Outcomes = []string{
			string(engine.OutcomeRejected),
			string(engine.OutcomeFailed),
			string(engine.OutcomeFollowUpFailed),
		}
	}
	subs, err := st.ListSubmissions(ctx, filter)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list submissions", err)
	}
	return formatter(cmd, opts.RootOptions).Success(runDetail{Run: run, Submissions: subs, verbose: opts.Verbose})
}
