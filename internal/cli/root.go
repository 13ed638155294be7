package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands and the mode flags of
// the root command itself.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
	LogFormat  string // "text" | "json"

	ImportPath   string // -i: sync
	DumpCriteria string // -d: dump a dataset
	DumpTag      string // -t: row tag for -d
	Check        bool   // -c: connection test
	DryRun       bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidLogFormats defines the allowed log handler formats.
var ValidLogFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the casesync CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "casesync",
		Short: "Person record sync into a case-management system",
		Long: `casesync reconciles a person import file against the remote
case-management system and submits one update document per changed person.

Modes (exactly one):
  casesync -p casesync.cue -i persons.xml       sync the import file
  casesync -p casesync.cue -d Person -t PERSON  dump a remote dataset as TSV
  casesync -p casesync.cue -c                   test the connection

Subcommands inspect the run journal and open the administrative shell.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidLogFormats, opts.LogFormat) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, ValidLogFormats))
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.LogFormat, opts.Verbose))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "p", "", "path to the CUE or JSON configuration file")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.LogFormat, "log-format", "text", "log format (json|text)")

	f := cmd.Flags()
	f.StringVarP(&opts.ImportPath, "import", "i", "", "import file to sync")
	f.StringVarP(&opts.DumpCriteria, "dump", "d", "", "dump the rows of a remote dataset")
	f.StringVarP(&opts.DumpTag, "tag", "t", "", "row tag for --dump (default: upper-cased dataset name)")
	f.BoolVarP(&opts.Check, "check", "c", false, "test the connection to the remote system")
	f.BoolVar(&opts.DryRun, "dry-run", false, "read the remote state but log documents instead of submitting them")

	cmd.AddCommand(NewJournalCommand(opts))
	cmd.AddCommand(NewBofhCommand(opts))

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	return cmd
}

// runRoot dispatches on the mode flags.
func runRoot(cmd *cobra.Command, opts *RootOptions) error {
	modes := 0
	for _, set := range []bool{opts.ImportPath != "", opts.DumpCriteria != "", opts.Check} {
		if set {
			modes++
		}
	}
	if modes != 1 || opts.ConfigPath == "" {
		_ = cmd.Usage()
		if opts.ConfigPath == "" {
			return NewExitError(ExitCommandError, "--config is required")
		}
		return NewExitError(ExitCommandError, "exactly one of --import, --dump or --check is required")
	}
	if opts.DumpTag != "" && opts.DumpCriteria == "" {
		return NewExitError(ExitCommandError, "--tag requires --dump")
	}

	switch {
	case opts.ImportPath != "":
		return runSync(cmd, opts)
	case opts.DumpCriteria != "":
		return runDump(cmd, opts)
	default:
		return runCheck(cmd, opts)
	}
}

// newLogger builds the process logger: text or JSON on w, Debug when
// verbose.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// formatter builds the OutputFormatter for cmd.
func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
