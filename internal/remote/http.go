package remote

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single HTTP exchange when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

// Options configures an HTTPGateway.
type Options struct {
	URL      string
	Username string
	Password string
	Database string
	Customer string

	Timeout            time.Duration
	CAFile             string
	InsecureSkipVerify bool

	// MaxRows is sent with every fetch; 0 leaves the server default.
	MaxRows int

	// Fallback completes truncated fetches. Nil means truncation is an error.
	Fallback RowReader

	Logger *slog.Logger
}

// HTTPGateway is the production Gateway. It exchanges XML over HTTP:
//
//	GET  <url>/rows?criteria=..&rowtag=..[&maxrows=..]  -> <RESULT truncated="0|1"><ROWTAG>...</ROWTAG>...</RESULT>
//	POST <url>/update  (body: update document)          -> <RESULT><VALUE>n</VALUE></RESULT>
//
// A remote fault is reported as <RESULT><ERROR>message</ERROR></RESULT>.
type HTTPGateway struct {
	base       *url.URL
	opts       Options
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Gateway = (*HTTPGateway)(nil)

// NewHTTPGateway validates opts and builds the HTTP client.
func NewHTTPGateway(opts Options) (*HTTPGateway, error) {
	if opts.URL == "" {
		return nil, errors.New("remote url is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote url %q: scheme must be http or https", opts.URL)
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
		tlsConfig, err := BuildTLSConfig(opts.CAFile, opts.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
		if opts.InsecureSkipVerify {
			logger.Warn("TLS certificate verification disabled", slog.String("url", opts.URL))
		}
	}

	return &HTTPGateway{
		base:       base,
		opts:       opts,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "remote")),
	}, nil
}

// BuildTLSConfig returns a client TLS config trusting the system pool plus
// the PEM certificates in caFile (if set).
func BuildTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure,
	}
	if caFile == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("CA file %s: no certificates found", caFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// FetchRows implements Gateway.
func (g *HTTPGateway) FetchRows(ctx context.Context, criteria, rowTag string) ([]Row, error) {
	target := criteria + "/" + rowTag

	q := url.Values{}
	q.Set("criteria", criteria)
	q.Set("rowtag", rowTag)
	if g.opts.MaxRows > 0 {
		q.Set("maxrows", strconv.Itoa(g.opts.MaxRows))
	}

	req, err := g.newRequest(ctx, http.MethodGet, "/rows?"+q.Encode(), nil)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Target: target, Err: err}
	}

	start := time.Now()
	res, err := g.do(req, rowTag)
	if err != nil {
		return nil, transportError("fetch", target, err)
	}

	if res.truncated {
		if g.opts.Fallback == nil {
			return nil, &TooManyRowsError{Criteria: criteria, RowTag: rowTag, Limit: g.opts.MaxRows}
		}
		g.logger.Info("result truncated, reading from fallback store",
			slog.String("dataset", target),
			slog.Int("partial_rows", len(res.rows)),
		)
		rows, err := g.opts.Fallback.ReadRows(ctx, criteria, rowTag)
		if err != nil {
			return nil, fmt.Errorf("fallback read %s: %w", target, err)
		}
		return rows, nil
	}

	g.logger.Debug("fetched rows",
		slog.String("dataset", target),
		slog.Int("rows", len(res.rows)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res.rows, nil
}

// SubmitUpdate implements Gateway.
func (g *HTTPGateway) SubmitUpdate(ctx context.Context, document string) (int, error) {
	req, err := g.newRequest(ctx, http.MethodPost, "/update", strings.NewReader(document))
	if err != nil {
		return 0, &TransportError{Op: "submit", Target: g.base.String(), Err: err}
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")

	res, err := g.do(req, "")
	if err != nil {
		return 0, transportError("submit", g.base.String(), err)
	}

	v := strings.TrimSpace(res.value)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &TransportError{Op: "submit", Target: g.base.String(), Message: fmt.Sprintf("malformed reply value %q", v)}
	}
	return n, nil
}

func (g *HTTPGateway) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.base.String()+path, body)
	if err != nil {
		return nil, err
	}
	if g.opts.Username != "" {
		req.SetBasicAuth(g.opts.Username, g.opts.Password)
	}
	if g.opts.Database != "" {
		req.Header.Set("X-Database", g.opts.Database)
	}
	if g.opts.Customer != "" {
		req.Header.Set("X-Customer", g.opts.Customer)
	}
	req.Header.Set("Accept", "application/xml")
	return req, nil
}

// statusError carries a non-2xx reply until it is wrapped into a TransportError.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.body)
}

// faultError carries a remote <ERROR> reply.
type faultError struct {
	message string
}

func (e *faultError) Error() string {
	return e.message
}

func (g *HTTPGateway) do(req *http.Request, rowTag string) (*result, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		// Faults may arrive with an error status and an XML body.
		if res, perr := parseResult(strings.NewReader(string(body)), rowTag); perr == nil && res.fault != "" {
			return nil, &statusError{status: resp.StatusCode, body: res.fault}
		}
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	res, err := parseResult(resp.Body, rowTag)
	if err != nil {
		return nil, fmt.Errorf("malformed reply: %w", err)
	}
	if res.fault != "" {
		return nil, &faultError{message: res.fault}
	}
	return res, nil
}

func transportError(op, target string, err error) *TransportError {
	te := &TransportError{Op: op, Target: target, Err: err}

	var se *statusError
	var fe *faultError
	var ue *url.Error
	switch {
	case errors.As(err, &se):
		te.Status = se.status
		te.Message = se.body
	case errors.As(err, &fe):
		te.Message = "remote fault: " + fe.message
	case errors.Is(err, context.DeadlineExceeded):
		te.Message = "timed out"
	case errors.As(err, &ue) && ue.Timeout():
		te.Message = "timed out"
	default:
		var certErr *tls.CertificateVerificationError
		if errors.As(err, &certErr) {
			te.Message = "TLS certificate verification failed: " + certErr.Err.Error()
		}
	}
	return te
}
