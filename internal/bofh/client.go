package bofh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/roach88/casesync/internal/remote"
)

// DefaultTimeout bounds a single call when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Minute

// Options configures a Client.
type Options struct {
	URL                string
	Timeout            time.Duration
	CAFile             string
	InsecureSkipVerify bool
	Logger             *slog.Logger
}

// Client speaks the bofhd XML-RPC protocol. It is not safe for concurrent
// use; the shell drives it from a single goroutine.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger

	username string
	password string
	session  string

	formats map[string]*Format
}

// NewClient validates opts and builds the HTTP client.
func NewClient(opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, errors.New("bofhd url is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse bofhd url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bofhd url %q: scheme must be http or https", opts.URL)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := &http.Client{Timeout: timeout}
	if opts.CAFile != "" || opts.InsecureSkipVerify {
		tlsConfig, err := remote.BuildTLSConfig(opts.CAFile, opts.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
		if opts.InsecureSkipVerify {
			logger.Warn("TLS certificate verification disabled", slog.String("url", opts.URL))
		}
	}

	return &Client{
		url:        opts.URL,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "bofh")),
		formats:    make(map[string]*Format),
	}, nil
}

// URL returns the server endpoint.
func (c *Client) URL() string { return c.url }

// Session returns the current session id, empty before Login.
func (c *Client) Session() string { return c.session }

// Call performs one raw XML-RPC call.
func (c *Client) Call(ctx context.Context, method string, params ...any) (any, error) {
	body, err := EncodeCall(method, params...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "text/xml")

	c.logger.Debug("call", slog.String("method", method))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("call %s: status %d: %s", method, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	v, err := DecodeResponse(resp.Body)
	if err != nil {
		var f *Fault
		if errors.As(err, &f) {
			return nil, err
		}
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return v, nil
}

// Login authenticates and stores the session id. The credentials are kept
// for re-authentication when the session expires.
func (c *Client) Login(ctx context.Context, username, password string) error {
	v, err := c.Call(ctx, "login", username, password)
	if err != nil {
		return fmt.Errorf("login as %s: %w", username, err)
	}
	session, ok := v.(string)
	if !ok || session == "" {
		return fmt.Errorf("login as %s: server returned no session id", username)
	}
	c.username, c.password, c.session = username, password, session
	c.logger.Info("logged in", slog.String("username", username))
	return nil
}

// Logout ends the session. It is a no-op without a session.
func (c *Client) Logout(ctx context.Context) error {
	if c.session == "" {
		return nil
	}
	_, err := c.Call(ctx, "logout", c.session)
	c.session = ""
	c.formats = make(map[string]*Format)
	return err
}

// callSession prefixes params with the session id. An expired session is
// renewed once with the stored credentials and the call retried.
func (c *Client) callSession(ctx context.Context, method string, params ...any) (any, error) {
	if c.session == "" {
		return nil, errors.New("not logged in")
	}
	v, err := c.Call(ctx, method, append([]any{c.session}, params...)...)
	if err == nil || !IsSessionExpired(err) || c.password == "" {
		return v, err
	}

	c.logger.Info("session expired, logging in again", slog.String("username", c.username))
	if lerr := c.Login(ctx, c.username, c.password); lerr != nil {
		return nil, errors.Join(err, lerr)
	}
	return c.Call(ctx, method, append([]any{c.session}, params...)...)
}

// Commands fetches the server's command set.
func (c *Client) Commands(ctx context.Context) (*CommandTree, error) {
	v, err := c.callSession(ctx, "get_commands")
	if err != nil {
		return nil, fmt.Errorf("get_commands: %w", err)
	}
	return ParseCommands(v, c.logger)
}

// RunCommand invokes a protocol command.
func (c *Client) RunCommand(ctx context.Context, proto string, args ...any) (any, error) {
	return c.callSession(ctx, "run_command", append([]any{proto}, args...)...)
}

// Help returns server help text for args ("" for general help, a group
// name, a group and command, or "arg_help" and a help reference).
func (c *Client) Help(ctx context.Context, args ...string) (string, error) {
	params := make([]any, len(args))
	for i, a := range args {
		params[i] = a
	}
	v, err := c.callSession(ctx, "help", params...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("help: unexpected reply %T", v)
	}
	return s, nil
}

// DefaultParam asks the server for the default of the next parameter of
// proto given the arguments collected so far.
func (c *Client) DefaultParam(ctx context.Context, proto string, args []any) (string, error) {
	v, err := c.callSession(ctx, "get_default_param", append([]any{proto}, args...)...)
	if err != nil {
		return "", err
	}
	return fmt.Sprint(v), nil
}

// PromptFunc asks the server how to prompt for the next argument of a
// command whose parameters are computed server side.
func (c *Client) PromptFunc(ctx context.Context, proto string, args []any) (map[string]any, error) {
	v, err := c.callSession(ctx, "call_prompt_func", append([]any{proto}, args...)...)
	if err != nil {
		return nil, err
	}
	info, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("call_prompt_func returned %T", v)
	}
	return info, nil
}

// FormatSuggestion returns the display layout for proto's replies, or nil
// when the server has none. Layouts are cached per command.
func (c *Client) FormatSuggestion(ctx context.Context, proto string) (*Format, error) {
	if f, ok := c.formats[proto]; ok {
		return f, nil
	}
	v, err := c.Call(ctx, "get_format_suggestion", proto)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(v)
	if err != nil {
		return nil, fmt.Errorf("format for %s: %w", proto, err)
	}
	if f != nil {
		c.formats[proto] = f
	}
	return f, nil
}
