package bofh

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/casesync/internal/xmltext"
)

// Fault is an XML-RPC fault reply.
type Fault struct {
	Code   int
	String string
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.String)
}

// Message is the fault string without the server's exception class prefix,
// e.g. "Cerebrum.modules.bofhd.errors.CerebrumError:Unknown account" becomes
// "Unknown account".
func (f *Fault) Message() string {
	class, msg, ok := strings.Cut(f.String, ":")
	if !ok || strings.ContainsAny(class, " \t\n") || !strings.Contains(class, ".") {
		return f.String
	}
	return strings.TrimSpace(msg)
}

func faultNamed(err error, name string) bool {
	var f *Fault
	return errors.As(err, &f) && strings.Contains(f.String, name)
}

// IsSessionExpired reports whether err is a fault signalling that the
// session id is no longer valid.
func IsSessionExpired(err error) bool {
	return faultNamed(err, "SessionExpiredError")
}

// IsServerRestarted reports whether err is a fault signalling that the
// server restarted and its command set may have changed.
func IsServerRestarted(err error) bool {
	return faultNamed(err, "ServerRestartedError")
}

// EncodeCall serializes a methodCall document.
func EncodeCall(method string, params ...any) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString("<methodCall><methodName>")
	if err := xml.EscapeText(&b, []byte(method)); err != nil {
		return nil, err
	}
	b.WriteString("</methodName><params>")
	for i, p := range params {
		b.WriteString("<param>")
		if err := encodeValue(&b, p); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		b.WriteString("</param>")
	}
	b.WriteString("</params></methodCall>")
	return b.Bytes(), nil
}

// EncodeResponse serializes a successful methodResponse carrying v.
func EncodeResponse(v any) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString("<methodResponse><params><param>")
	if err := encodeValue(&b, v); err != nil {
		return nil, err
	}
	b.WriteString("</param></params></methodResponse>")
	return b.Bytes(), nil
}

// EncodeFault serializes a fault methodResponse.
func EncodeFault(code int, msg string) []byte {
	var b bytes.Buffer
	b.WriteString(xml.Header)
	b.WriteString("<methodResponse><fault>")
	// A two-member struct of int and string cannot fail to encode.
	_ = encodeValue(&b, map[string]any{"faultCode": code, "faultString": msg})
	b.WriteString("</fault></methodResponse>")
	return b.Bytes()
}

func encodeValue(b *bytes.Buffer, v any) error {
	b.WriteString("<value>")
	switch x := v.(type) {
	case nil:
		b.WriteString("<nil/>")
	case string:
		b.WriteString("<string>")
		if err := xml.EscapeText(b, []byte(x)); err != nil {
			return err
		}
		b.WriteString("</string>")
	case int:
		b.WriteString("<int>" + strconv.Itoa(x) + "</int>")
	case int32:
		b.WriteString("<int>" + strconv.FormatInt(int64(x), 10) + "</int>")
	case int64:
		b.WriteString("<int>" + strconv.FormatInt(x, 10) + "</int>")
	case bool:
		if x {
			b.WriteString("<boolean>1</boolean>")
		} else {
			b.WriteString("<boolean>0</boolean>")
		}
	case float64:
		b.WriteString("<double>" + strconv.FormatFloat(x, 'f', -1, 64) + "</double>")
	case []byte:
		b.WriteString("<base64>" + base64.StdEncoding.EncodeToString(x) + "</base64>")
	case []string:
		b.WriteString("<array><data>")
		for _, s := range x {
			if err := encodeValue(b, s); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
	case []any:
		b.WriteString("<array><data>")
		for _, e := range x {
			if err := encodeValue(b, e); err != nil {
				return err
			}
		}
		b.WriteString("</data></array>")
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("<struct>")
		for _, k := range keys {
			b.WriteString("<member><name>")
			if err := xml.EscapeText(b, []byte(k)); err != nil {
				return err
			}
			b.WriteString("</name>")
			if err := encodeValue(b, x[k]); err != nil {
				return fmt.Errorf("member %s: %w", k, err)
			}
			b.WriteString("</member>")
		}
		b.WriteString("</struct>")
	default:
		return fmt.Errorf("unsupported xml-rpc type %T", v)
	}
	b.WriteString("</value>")
	return nil
}

// node is a generic element tree; XML-RPC documents are small enough to
// decode whole.
type node struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
	Nodes   []node `xml:",any"`
}

func (n *node) child(name string) *node {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func parseTree(r io.Reader, root string) (*node, error) {
	var n node
	if err := xmltext.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("parse xml-rpc document: %w", err)
	}
	if n.XMLName.Local != root {
		return nil, fmt.Errorf("expected <%s>, got <%s>", root, n.XMLName.Local)
	}
	return &n, nil
}

// DecodeResponse parses a methodResponse. A fault reply is returned as a
// *Fault error.
func DecodeResponse(r io.Reader) (any, error) {
	root, err := parseTree(r, "methodResponse")
	if err != nil {
		return nil, err
	}

	if f := root.child("fault"); f != nil {
		v := f.child("value")
		if v == nil {
			return nil, errors.New("fault without value")
		}
		decoded, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("decode fault: %w", err)
		}
		st, _ := decoded.(map[string]any)
		fault := &Fault{}
		fault.Code, _ = st["faultCode"].(int)
		fault.String, _ = st["faultString"].(string)
		return nil, fault
	}

	params := root.child("params")
	if params == nil {
		return nil, errors.New("response has neither params nor fault")
	}
	param := params.child("param")
	if param == nil || param.child("value") == nil {
		return nil, errors.New("response has no value")
	}
	return decodeValue(param.child("value"))
}

// DecodeCall parses a methodCall.
func DecodeCall(r io.Reader) (string, []any, error) {
	root, err := parseTree(r, "methodCall")
	if err != nil {
		return "", nil, err
	}
	name := root.child("methodName")
	if name == nil {
		return "", nil, errors.New("call has no methodName")
	}

	var params []any
	if ps := root.child("params"); ps != nil {
		for i := range ps.Nodes {
			v := ps.Nodes[i].child("value")
			if v == nil {
				return "", nil, fmt.Errorf("param %d has no value", i)
			}
			decoded, err := decodeValue(v)
			if err != nil {
				return "", nil, fmt.Errorf("param %d: %w", i, err)
			}
			params = append(params, decoded)
		}
	}
	return strings.TrimSpace(name.Text), params, nil
}

func decodeValue(v *node) (any, error) {
	if len(v.Nodes) == 0 {
		// An untyped value is a string.
		return v.Text, nil
	}
	typed := &v.Nodes[0]
	text := strings.TrimSpace(typed.Text)

	switch typed.XMLName.Local {
	case "string":
		return typed.Text, nil
	case "int", "i4", "i8":
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("bad int %q", text)
		}
		return n, nil
	case "boolean":
		switch text {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return nil, fmt.Errorf("bad boolean %q", text)
	case "double":
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad double %q", text)
		}
		return f, nil
	case "nil":
		return nil, nil
	case "dateTime.iso8601":
		return text, nil
	case "base64":
		data, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("bad base64: %w", err)
		}
		return data, nil
	case "array":
		out := []any{}
		data := typed.child("data")
		if data == nil {
			return out, nil
		}
		for i := range data.Nodes {
			e, err := decodeValue(&data.Nodes[i])
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case "struct":
		out := map[string]any{}
		for i := range typed.Nodes {
			m := &typed.Nodes[i]
			name, val := m.child("name"), m.child("value")
			if name == nil || val == nil {
				return nil, errors.New("struct member without name or value")
			}
			e, err := decodeValue(val)
			if err != nil {
				return nil, fmt.Errorf("member %s: %w", name.Text, err)
			}
			out[name.Text] = e
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported xml-rpc type <%s>", typed.XMLName.Local)
}
