package bofh

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompt is shown before each command line.
const Prompt = "bofh> "

// LineReader supplies operator input. ReadLine returns io.EOF when input
// ends.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// completing is implemented by readers that offer tab completion.
type completing interface {
	SetCompleter(func(line string) []string)
}

// TerminalReader reads from a raw-mode terminal with line editing, history
// and tab completion of command words.
type TerminalReader struct {
	term     *term.Terminal
	complete func(string) []string
}

// NewTerminalReader wraps rw, normally stdin and stdout of a terminal put
// into raw mode by the caller. Output must be written through the reader.
func NewTerminalReader(rw io.ReadWriter) *TerminalReader {
	r := &TerminalReader{term: term.NewTerminal(rw, Prompt)}
	r.term.AutoCompleteCallback = r.autoComplete
	return r
}

// Write implements io.Writer, translating newlines for raw mode.
func (r *TerminalReader) Write(p []byte) (int, error) { return r.term.Write(p) }

// SetSize updates the terminal dimensions used for line wrapping.
func (r *TerminalReader) SetSize(width, height int) error { return r.term.SetSize(width, height) }

// SetCompleter installs the completion source.
func (r *TerminalReader) SetCompleter(f func(string) []string) { r.complete = f }

// ReadLine implements LineReader.
func (r *TerminalReader) ReadLine(prompt string) (string, error) {
	r.term.SetPrompt(prompt)
	return r.term.ReadLine()
}

// ReadPassword implements LineReader without echo.
func (r *TerminalReader) ReadPassword(prompt string) (string, error) {
	return r.term.ReadPassword(prompt)
}

func (r *TerminalReader) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || r.complete == nil {
		return "", 0, false
	}
	head := line[:pos]
	cands := r.complete(head)
	if len(cands) == 0 {
		return "", 0, false
	}

	start := strings.LastIndexAny(head, " \t") + 1
	fill := commonPrefix(cands)
	if len(cands) == 1 {
		fill += " "
	} else if len(fill) <= len(head)-start {
		fmt.Fprintln(r.term, strings.Join(cands, "  "))
		return "", 0, false
	}
	return head[:start] + fill + line[pos:], start + len(fill), true
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

// PlainReader reads lines from a non-terminal stream, e.g. a pipe.
type PlainReader struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPlainReader writes prompts to out and reads lines from in.
func NewPlainReader(in io.Reader, out io.Writer) *PlainReader {
	return &PlainReader{in: bufio.NewReader(in), out: out}
}

// ReadLine implements LineReader.
func (r *PlainReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// ReadPassword implements LineReader. Input is echoed.
func (r *PlainReader) ReadPassword(prompt string) (string, error) {
	return r.ReadLine(prompt)
}

var errAborted = errors.New("input aborted")

// Shell is the interactive command loop.
type Shell struct {
	client  *Client
	tree    *CommandTree
	in      LineReader
	out     io.Writer
	logger  *slog.Logger
	history []string
}

// NewShell builds a shell over a logged-in client and its command tree.
func NewShell(client *Client, tree *CommandTree, in LineReader, out io.Writer, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shell{client: client, tree: tree, in: in, out: out, logger: logger}
	if c, ok := in.(completing); ok {
		c.SetCompleter(s.Complete)
	}
	return s
}

// Complete returns completion candidates for line.
func (s *Shell) Complete(line string) []string {
	return s.tree.Complete(line)
}

// History returns the command lines entered so far.
func (s *Shell) History() []string {
	return append([]string(nil), s.history...)
}

// Run reads and executes commands until quit, end of input or ctx is
// cancelled, then logs out.
func (s *Shell) Run(ctx context.Context) error {
	defer s.Close(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := s.in.ReadLine(Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
		if s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the operator asked to
// quit.
func (s *Shell) Execute(ctx context.Context, line string) bool {
	args, err := SplitCommand(line)
	if err != nil {
		s.printf("Error parsing command: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}
	s.history = append(s.history, line)

	switch args[0] {
	case "quit", "q":
		return true
	case "commands":
		for _, c := range s.tree.Commands() {
			s.printf("%s -> %s %s\n", c.Proto, c.Group, c.Name)
		}
	case "history":
		for i, h := range s.history {
			s.printf("%4d  %s\n", i+1, h)
		}
	case "source":
		if len(args) < 2 {
			s.println("Must specify filename to source")
			break
		}
		if err := s.Source(ctx, args[1]); err != nil {
			s.printf("Error reading file: %v\n", err)
		}
	case "help":
		text, err := s.client.Help(ctx, args[1:]...)
		if err != nil {
			s.showError(err)
			break
		}
		s.println(text)
	default:
		cmd, rest, err := s.tree.Resolve(args)
		if err != nil {
			s.printf("Error translating command: %v\n", err)
			break
		}
		protoArgs, err := s.collectArgs(ctx, cmd, rest)
		if err != nil {
			if !errors.Is(err, errAborted) {
				s.showError(err)
			}
			break
		}
		s.invoke(ctx, cmd.Proto, protoArgs)
	}
	return false
}

// Source runs the commands in a file. Command words must be spelled in
// full and missing arguments are not prompted for.
func (s *Shell) Source(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if err := ctx.Err(); err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		args, err := SplitCommand(line)
		if err != nil || len(args) < 2 || s.tree.Lookup(args[0], args[1]) == nil {
			s.printf("Error translating command: %s\n", line)
			continue
		}
		cmd := s.tree.Lookup(args[0], args[1])
		rest := make([]any, 0, len(args)-2)
		for _, a := range args[2:] {
			rest = append(rest, a)
		}
		s.println(Prompt + line)
		s.invoke(ctx, cmd.Proto, rest)
	}
	return nil
}

func (s *Shell) invoke(ctx context.Context, proto string, args []any) {
	s.logger.Debug("run command", slog.String("command", proto), slog.Int("args", len(args)))
	resp, err := s.client.RunCommand(ctx, proto, args...)
	if err != nil {
		if IsServerRestarted(err) {
			s.reloadCommands(ctx)
		}
		s.showError(err)
		return
	}
	if err := s.show(ctx, proto, resp); err != nil {
		s.showError(err)
	}
}

func (s *Shell) reloadCommands(ctx context.Context) {
	tree, err := s.client.Commands(ctx)
	if err != nil {
		s.logger.Warn("reload commands", slog.String("error", err.Error()))
		return
	}
	s.tree = tree
	s.println("Server restarted, command list reloaded")
}

func (s *Shell) show(ctx context.Context, proto string, resp any) error {
	if resp == nil {
		return nil
	}
	if str, ok := resp.(string); ok {
		s.println(str)
		return nil
	}
	f, err := s.client.FormatSuggestion(ctx, proto)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("reply to %s is %T and no format suggestion exists", proto, resp)
	}
	return f.Render(s.out, resp)
}

// collectArgs prompts for required parameters that were not given on the
// command line. Entering "?" shows the parameter's help.
func (s *Shell) collectArgs(ctx context.Context, cmd *Command, given []string) ([]any, error) {
	args := make([]any, 0, len(cmd.Params))
	for _, g := range given {
		args = append(args, g)
	}
	if cmd.PromptFunc {
		return s.promptFunc(ctx, cmd, args)
	}

	for i := len(given); i < len(cmd.Params); i++ {
		p := cmd.Params[i]
		if p.Optional {
			break
		}
		def := p.Default
		if p.ServerDefault {
			d, err := s.client.DefaultParam(ctx, cmd.Proto, args)
			if err != nil {
				return nil, err
			}
			def = d
		}

		var input string
		var err error
		if p.Type == "accountPassword" {
			input, err = s.in.ReadPassword(p.Prompt + ">")
		} else {
			prompt := p.Prompt
			if p.HasDefault {
				prompt += " [" + def + "]"
			}
			input, err = s.in.ReadLine(prompt + " >")
		}
		if err != nil {
			return nil, readAbort(err)
		}

		switch {
		case input == "" && p.HasDefault:
			args = append(args, def)
		case input == "?":
			s.argHelp(ctx, p.HelpRef)
			i--
		default:
			args = append(args, input)
		}
	}
	return args, nil
}

// promptFunc lets the server drive argument collection one prompt at a
// time until it flags the last argument.
func (s *Shell) promptFunc(ctx context.Context, cmd *Command, args []any) ([]any, error) {
	for {
		info, err := s.client.PromptFunc(ctx, cmd.Proto, args)
		if err != nil {
			return nil, err
		}
		prompt, hasPrompt := info["prompt"].(string)
		last := info["last_arg"] != nil
		if !hasPrompt && last {
			return args, nil
		}
		def, hasDef := info["default"].(string)
		menu, _ := info["map"].([]any)
		s.showMenu(menu)

		if hasDef {
			prompt += " [" + def + "]"
		}
		input, err := s.in.ReadLine(prompt + " >")
		if err != nil {
			return nil, readAbort(err)
		}

		switch {
		case input == "" && !hasDef:
			continue
		case input == "?":
			helpRef, _ := info["help_ref"].(string)
			s.argHelp(ctx, helpRef)
			continue
		case input == "":
			args = append(args, def)
		case menu != nil && info["raw"] == nil:
			v, ok := menuChoice(menu, input)
			if !ok {
				s.println("Value not in list")
				continue
			}
			args = append(args, v)
		default:
			args = append(args, input)
		}
		if last {
			return args, nil
		}
	}
}

// showMenu prints a prompt_func choice list. Entry 0 is the column header.
func (s *Shell) showMenu(menu []any) {
	for i, entry := range menu {
		item, ok := entry.([]any)
		if !ok || len(item) == 0 {
			continue
		}
		desc, ok := item[0].([]any)
		if !ok || len(desc) == 0 {
			continue
		}
		format, _ := desc[0].(string)
		var vals []any
		if i == 0 {
			format = "%4s " + format
			vals = append([]any{"Num"}, desc[1:]...)
		} else {
			format = "%4i " + format
			vals = append([]any{i}, desc[1:]...)
		}
		line, err := Sprintf(format, vals...)
		if err != nil {
			s.logger.Warn("format menu entry", slog.Int("entry", i), slog.String("error", err.Error()))
			continue
		}
		s.println(line)
	}
}

func menuChoice(menu []any, input string) (any, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n <= 0 || n >= len(menu) {
		return nil, false
	}
	item, ok := menu[n].([]any)
	if !ok || len(item) < 2 {
		return nil, false
	}
	return item[1], true
}

func (s *Shell) argHelp(ctx context.Context, helpRef string) {
	if helpRef == "" {
		s.println("Sorry, no help available")
		return
	}
	text, err := s.client.Help(ctx, "arg_help", helpRef)
	if err != nil {
		s.showError(err)
		return
	}
	s.println(text)
}

func readAbort(err error) error {
	if errors.Is(err, io.EOF) {
		return errAborted
	}
	return fmt.Errorf("read argument: %w", err)
}

func (s *Shell) showError(err error) {
	var f *Fault
	if errors.As(err, &f) {
		s.println(f.Message())
		return
	}
	s.printf("Error: %v\n", err)
}

// Close says goodbye and logs out.
func (s *Shell) Close(ctx context.Context) {
	s.println("I'll be back")
	if err := s.client.Logout(context.WithoutCancel(ctx)); err != nil {
		s.logger.Debug("logout", slog.String("error", err.Error()))
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}
