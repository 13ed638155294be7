package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/casesync/internal/bofh"
	"github.com/roach88/casesync/internal/config"
)

// BofhOptions holds flags for the bofh command.
type BofhOptions struct {
	*RootOptions
	URL      string
	Username string
	Source   string
}

// NewBofhCommand creates the bofh command.
func NewBofhCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BofhOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bofh",
		Short: "Interactive client for the bofhd administrative server",
		Long: `Log in to a bofhd server and run its commands interactively.

Commands are two words ("user info"); any unique prefix of either word is
accepted and TAB completes them. Missing arguments are prompted for; enter
"?" at a prompt for help on that argument. Built-ins: help, commands,
history, source <file>, quit.

The password is read from CASESYNC_BOFH_PASSWORD or bofh.password in
--config, otherwise prompted for.

Example:
  casesync bofh --url https://bofhd.example.org:8000/ -u jdoe
  casesync bofh -p casesync.cue --source nightly.bofh`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBofh(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "bofhd XML-RPC endpoint (overrides bofh.url)")
	cmd.Flags().StringVarP(&opts.Username, "user", "u", "", "username (default: bofh.username, then the login name)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "run the commands in this file and exit")

	return cmd
}

func runBofh(cmd *cobra.Command, opts *BofhOptions) error {
	settings := config.Bofh{}
	if opts.ConfigPath != "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return err
		}
		settings = cfg.Bofh
	} else if v, ok := os.LookupEnv(config.EnvBofhPassword); ok {
		settings.Password = v
	}
	if opts.URL != "" {
		settings.URL = opts.URL
	}
	if opts.Username != "" {
		settings.Username = opts.Username
	}
	if settings.Username == "" {
		if u, err := user.Current(); err == nil {
			settings.Username = u.Username
		}
	}
	if settings.URL == "" {
		return NewExitError(ExitCommandError, "no bofhd url: pass --url or set bofh.url in --config")
	}

	logger := slog.Default()
	client, err := bofh.NewClient(bofh.Options{
		URL:                settings.URL,
		CAFile:             settings.CAFile,
		InsecureSkipVerify: settings.InsecureSkipVerify,
		Logger:             logger,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure bofhd client", err)
	}

	out := cmd.OutOrStdout()
	stdinFd := int(os.Stdin.Fd())
	interactive := opts.Source == "" && cmd.InOrStdin() == os.Stdin && term.IsTerminal(stdinFd)

	fmt.Fprintf(out, "Bofhd server is at %s\n", client.URL())
	if settings.Password == "" {
		pw, err := promptPassword(cmd, stdinFd)
		if err != nil {
			return err
		}
		settings.Password = pw
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := client.Login(ctx, settings.Username, settings.Password); err != nil {
		return WrapExitError(ExitFailure, "login failed", err)
	}
	tree, err := client.Commands(ctx)
	if err != nil {
		_ = client.Logout(ctx)
		return WrapExitError(ExitFailure, "failed to fetch commands", err)
	}

	if opts.Source != "" {
		sh := bofh.NewShell(client, tree, bofh.NewPlainReader(cmd.InOrStdin(), out), out, logger)
		defer sh.Close(ctx)
		if err := sh.Source(ctx, opts.Source); err != nil {
			return WrapExitError(ExitCommandError, "failed to run "+opts.Source, err)
		}
		return nil
	}

	var (
		reader bofh.LineReader
		shOut  io.Writer = out
	)
	if interactive {
		oldState, err := term.MakeRaw(stdinFd)
		if err != nil {
			return WrapExitError(ExitFailure, "set terminal raw mode", err)
		}
		defer term.Restore(stdinFd, oldState)

		tr := bofh.NewTerminalReader(struct {
			io.Reader
			io.Writer
		}{os.Stdin, out})
		if w, h, err := term.GetSize(stdinFd); err == nil {
			_ = tr.SetSize(w, h)
		}
		reader, shOut = tr, tr
	} else {
		reader = bofh.NewPlainReader(cmd.InOrStdin(), out)
	}

	sh := bofh.NewShell(client, tree, reader, shOut, logger)
	fmt.Fprintln(shOut, `Welcome to casesync bofh, type "help" for help`)
	if err := sh.Run(ctx); err != nil && !isCancelled(err) {
		return WrapExitError(ExitFailure, "shell error", err)
	}
	return nil
}

// promptPassword reads the login password with echo disabled.
func promptPassword(cmd *cobra.Command, stdinFd int) (string, error) {
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(stdinFd) {
		return "", NewExitError(ExitCommandError,
			"no terminal available for the password prompt: set "+config.EnvBofhPassword)
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	pw, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", WrapExitError(ExitCommandError, "reading password", err)
	}
	return string(pw), nil
}
