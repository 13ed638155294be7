package bofh

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Format is a server-provided display layout for a command's replies.
type Format struct {
	Header string
	Lines  []FormatLine
}

// FormatLine renders Keys from each reply row through a printf-style
// Format. A row lacking the first key is skipped for that line.
type FormatLine struct {
	Format string
	Keys   []string
}

// ParseFormat decodes a get_format_suggestion reply. An empty string means
// the server has no layout and yields nil.
func ParseFormat(v any) (*Format, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected string %q", x)
	case map[string]any:
		f := &Format{}
		f.Header, _ = x["hdr"].(string)
		vars, ok := x["str_vars"].([]any)
		if !ok {
			return nil, fmt.Errorf("str_vars is %T", x["str_vars"])
		}
		for i, sv := range vars {
			pair, ok := sv.([]any)
			if !ok || len(pair) < 2 {
				return nil, fmt.Errorf("str_vars[%d] is not a [format, keys] pair", i)
			}
			line := FormatLine{}
			if line.Format, ok = pair[0].(string); !ok {
				return nil, fmt.Errorf("str_vars[%d] format is %T", i, pair[0])
			}
			keys, ok := pair[1].([]any)
			if !ok {
				return nil, fmt.Errorf("str_vars[%d] keys is %T", i, pair[1])
			}
			for _, k := range keys {
				ks, ok := k.(string)
				if !ok {
					return nil, fmt.Errorf("str_vars[%d] key is %T", i, k)
				}
				line.Keys = append(line.Keys, ks)
			}
			if len(line.Keys) == 0 {
				return nil, fmt.Errorf("str_vars[%d] has no keys", i)
			}
			f.Lines = append(f.Lines, line)
		}
		return f, nil
	}
	return nil, fmt.Errorf("unexpected format %T", v)
}

// Render writes a command reply. A list reply is preceded by the header;
// a single struct reply is rendered as a one-row list without it.
func (f *Format) Render(w io.Writer, reply any) error {
	rows, isList := reply.([]any)
	if !isList {
		rows = []any{reply}
	} else if f.Header != "" {
		fmt.Fprintln(w, f.Header)
	}

	var firstErr error
	for _, line := range f.Lines {
		for _, r := range rows {
			row, ok := r.(map[string]any)
			if !ok {
				continue
			}
			if _, ok := row[line.Keys[0]]; !ok {
				continue
			}
			vals := make([]any, len(line.Keys))
			for i, k := range line.Keys {
				vals[i] = row[k]
			}
			s, err := Sprintf(line.Format, vals...)
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("format %q: %w", line.Format, err)
				}
				continue
			}
			fmt.Fprintln(w, s)
		}
	}
	return firstErr
}

// Sprintf formats like a C/Python printf: %s takes any value, %i and %d
// take integers (numeric strings are converted), %f %e %g floats and %x %o
// integers in base 16 and 8. Flags, width and precision are honoured.
func Sprintf(format string, args ...any) (string, error) {
	var b strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ #0", format[j]) >= 0 {
			j++
		}
		for j < len(format) && (format[j] >= '0' && format[j] <= '9' || format[j] == '.') {
			j++
		}
		if j >= len(format) {
			return "", fmt.Errorf("incomplete verb at offset %d", i)
		}
		spec, verb := format[i+1:j], format[j]
		i = j
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if next >= len(args) {
			return "", fmt.Errorf("missing argument for %%%s%c", spec, verb)
		}
		s, err := formatOne(spec, verb, args[next])
		if err != nil {
			return "", err
		}
		next++
		b.WriteString(s)
	}
	return b.String(), nil
}

func formatOne(spec string, verb byte, v any) (string, error) {
	switch verb {
	case 's', 'r':
		return fmt.Sprintf("%"+spec+"s", display(v)), nil
	case 'd', 'i', 'x', 'X', 'o':
		n, err := toInt(v)
		if err != nil {
			return "", err
		}
		if verb == 'i' {
			verb = 'd'
		}
		return fmt.Sprintf("%"+spec+string(verb), n), nil
	case 'f', 'e', 'g':
		f, err := toFloat(v)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%"+spec+string(verb), f), nil
	}
	return "", fmt.Errorf("unsupported verb %%%c", verb)
}

func display(v any) string {
	switch x := v.(type) {
	case nil:
		return "<not set>"
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case []byte:
		return string(x)
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case float64:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%v (%T) is not a number", v, v)
}
