package bofh

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Param describes one positional parameter of a command.
type Param struct {
	Prompt   string
	Type     string
	Optional bool
	HelpRef  string

	// Default is the literal default. ServerDefault means the server
	// computes it from the preceding arguments (get_default_param).
	Default       string
	HasDefault    bool
	ServerDefault bool
}

// Command is one protocol command and its command-line spelling.
type Command struct {
	Proto  string
	Group  string
	Name   string
	Params []Param

	// PromptFunc means parameters are negotiated with call_prompt_func.
	PromptFunc bool
}

// CommandTree is the two-level command set published by get_commands.
type CommandTree struct {
	groups  map[string]map[string]*Command
	byProto map[string]*Command
}

// ParseCommands builds a tree from a get_commands reply, a struct mapping
// protocol names to [[group, name], paramspec]. Entries in an older
// single-string form are skipped with a warning.
func ParseCommands(v any, logger *slog.Logger) (*CommandTree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("get_commands returned %T, want struct", v)
	}

	t := &CommandTree{
		groups:  make(map[string]map[string]*Command),
		byProto: make(map[string]*Command),
	}
	for proto, def := range raw {
		cmd, err := parseCommand(proto, def)
		if err != nil {
			logger.Warn("skipping command", slog.String("command", proto), slog.String("error", err.Error()))
			continue
		}
		if t.groups[cmd.Group] == nil {
			t.groups[cmd.Group] = make(map[string]*Command)
		}
		t.groups[cmd.Group][cmd.Name] = cmd
		t.byProto[proto] = cmd
	}
	return t, nil
}

func parseCommand(proto string, def any) (*Command, error) {
	parts, ok := def.([]any)
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("definition is %T", def)
	}
	words, ok := parts[0].([]any)
	if !ok {
		return nil, fmt.Errorf("old protocol definition")
	}
	if len(words) != 2 {
		return nil, fmt.Errorf("command line has %d words, want 2", len(words))
	}
	group, gok := words[0].(string)
	name, nok := words[1].(string)
	if !gok || !nok || group == "" || name == "" {
		return nil, fmt.Errorf("bad command words %v", words)
	}

	cmd := &Command{Proto: proto, Group: group, Name: name}
	if len(parts) == 1 {
		return cmd, nil
	}
	switch spec := parts[1].(type) {
	case string:
		if spec != "prompt_func" {
			return nil, fmt.Errorf("bad param spec %q", spec)
		}
		cmd.PromptFunc = true
	case []any:
		for i, p := range spec {
			m, ok := p.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("param %d is %T", i, p)
			}
			cmd.Params = append(cmd.Params, parseParam(m))
		}
	default:
		return nil, fmt.Errorf("bad param spec %T", spec)
	}
	return cmd, nil
}

func parseParam(m map[string]any) Param {
	p := Param{}
	p.Prompt, _ = m["prompt"].(string)
	p.Type, _ = m["type"].(string)
	p.HelpRef, _ = m["help_ref"].(string)
	switch o := m["optional"].(type) {
	case int:
		p.Optional = o == 1
	case bool:
		p.Optional = o
	}
	if d, ok := m["default"]; ok && d != nil {
		p.HasDefault = true
		if s, ok := d.(string); ok {
			p.Default = s
		} else {
			p.ServerDefault = true
		}
	}
	return p
}

// Lookup finds a command by its exact words.
func (t *CommandTree) Lookup(group, name string) *Command {
	return t.groups[group][name]
}

// Proto finds a command by protocol name.
func (t *CommandTree) Proto(proto string) *Command {
	return t.byProto[proto]
}

// Commands returns every command ordered by group then name.
func (t *CommandTree) Commands() []*Command {
	out := make([]*Command, 0, len(t.byProto))
	for _, c := range t.byProto {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (t *CommandTree) groupNames() []string {
	return sortedKeys(t.groups)
}

func (t *CommandTree) commandNames(group string) []string {
	return sortedKeys(t.groups[group])
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// matchWord returns the candidates word is a prefix of. An exact match
// is returned alone.
func matchWord(candidates []string, word string) []string {
	var out []string
	for _, c := range candidates {
		if c == word {
			return []string{c}
		}
		if strings.HasPrefix(c, word) {
			out = append(out, c)
		}
	}
	return out
}

// ResolveError reports a command line that does not name exactly one
// command.
type ResolveError struct {
	Word       string
	Candidates []string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	switch {
	case e.Word == "":
		return "incomplete command, expected one of: " + strings.Join(e.Candidates, ", ")
	case len(e.Candidates) == 0:
		return fmt.Sprintf("unknown command %q", e.Word)
	}
	return fmt.Sprintf("%q is ambiguous: %s", e.Word, strings.Join(e.Candidates, ", "))
}

// Resolve maps the first two words of args to a command, accepting any
// unique prefix of each, and returns the remaining arguments.
func (t *CommandTree) Resolve(args []string) (*Command, []string, error) {
	if len(args) == 0 {
		return nil, nil, &ResolveError{Candidates: t.groupNames()}
	}
	groups := matchWord(t.groupNames(), args[0])
	if len(groups) != 1 {
		return nil, nil, &ResolveError{Word: args[0], Candidates: groups}
	}
	group := groups[0]

	if len(args) < 2 {
		return nil, nil, &ResolveError{Candidates: t.commandNames(group)}
	}
	names := matchWord(t.commandNames(group), args[1])
	if len(names) != 1 {
		return nil, nil, &ResolveError{Word: args[1], Candidates: names}
	}
	return t.groups[group][names[0]], args[2:], nil
}

// Complete returns the candidates for the word being typed at the end of
// line. Only the two command words complete; arguments do not.
func (t *CommandTree) Complete(line string) []string {
	args, err := SplitCommand(line)
	if err != nil {
		return nil
	}
	level := len(args)
	if !strings.HasSuffix(line, " ") {
		level--
	}
	if level < 0 {
		level = 0
	}
	if level >= 2 {
		return nil
	}

	prefix := ""
	if level < len(args) {
		prefix = args[level]
	}
	if level == 0 {
		return matchWord(t.groupNames(), prefix)
	}
	groups := matchWord(t.groupNames(), args[0])
	if len(groups) != 1 {
		return nil
	}
	return matchWord(t.commandNames(groups[0]), prefix)
}

// SplitCommand splits a command line on whitespace. Single or double
// quotes group words and may be empty; a quote left open is an error.
func SplitCommand(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		quoteAt int
	)
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote, quoteAt, inWord = r, i, true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote at column %d", quoteAt+1)
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
