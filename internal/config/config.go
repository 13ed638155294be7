// Package config loads the casesync configuration file.
//
// The file is CUE (JSON is accepted as a CUE subset) and is unified with
// an embedded schema that supplies defaults and rejects unknown fields.
// Secrets can be kept out of the file: CASESYNC_PASSWORD and
// CASESYNC_BOFH_PASSWORD override the remote and bofh passwords.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/casesync/internal/engine"
	"github.com/roach88/casesync/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Environment overrides.
const (
	EnvPassword     = "CASESYNC_PASSWORD"
	EnvBofhPassword = "CASESYNC_BOFH_PASSWORD"
)

// Config is the decoded configuration.
type Config struct {
	Remote   Remote   `json:"remote"`
	Fallback Fallback `json:"fallback"`
	Engine   Engine   `json:"engine"`
	Match    Match    `json:"match"`
	Journal  Journal  `json:"journal"`
	Metrics  Metrics  `json:"metrics"`
	Bofh     Bofh     `json:"bofh"`
}

// Remote is the case-management gateway.
type Remote struct {
	URL                string `json:"url"`
	Username           string `json:"username"`
	Password           string `json:"password"`
	Database           string `json:"database"`
	Customer           string `json:"customer"`
	Timeout            string `json:"timeout"`
	CAFile             string `json:"ca_file"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
	MaxRows            int    `json:"max_rows"`
}

// Fallback is the direct data-store read used when a fetch is truncated.
// An empty DSN disables it.
type Fallback struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// Engine holds the reconciliation switches.
type Engine struct {
	TwoPhaseNameChange bool     `json:"two_phase_name_change"`
	AddressTypes       []string `json:"address_types"`
	DefaultOperatorID  int64    `json:"default_operator_id"`
	DryRun             bool     `json:"dry_run"`
}

// Match holds the person-matching switches.
type Match struct {
	InitialsFallback bool `json:"initials_fallback"`
}

// Journal locates the run journal. An empty path disables it.
type Journal struct {
	Path string `json:"path"`
}

// Metrics locates the Prometheus textfile. An empty path disables it.
type Metrics struct {
	Textfile string `json:"textfile"`
}

// Bofh is the administrative RPC backend of the interactive client.
type Bofh struct {
	URL                string `json:"url"`
	Username           string `json:"username"`
	Password           string `json:"password"`
	CAFile             string `json:"ca_file"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
}

// Error codes.
const (
	ErrCodeNotFound = "CONFIG_NOT_FOUND"
	ErrCodeInvalid  = "CONFIG_INVALID"
)

// LoadError reports an unreadable or invalid configuration file.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads, validates and decodes the file at path, then applies the
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error(), Err: err}
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

// Parse validates and decodes configuration source. filename is used in
// error positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	user := ctx.CompileBytes(data, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, invalid(filename, err)
	}

	v := schema.Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, invalid(filename, err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, invalid(filename, err)
	}
	if _, err := cfg.RemoteTimeout(); err != nil {
		return nil, invalid(filename, err)
	}
	return &cfg, nil
}

func invalid(path string, err error) *LoadError {
	return &LoadError{Code: ErrCodeInvalid, Path: path, Message: cueerrors.Details(err, nil), Err: err}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPassword); ok {
		c.Remote.Password = v
	}
	if v, ok := lookup(EnvBofhPassword); ok {
		c.Bofh.Password = v
	}
}

// RemoteTimeout parses the remote timeout.
func (c *Config) RemoteTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 0, fmt.Errorf("remote.timeout: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("remote.timeout: must be positive")
	}
	return d, nil
}

// EngineConfig converts the engine and match sections.
func (c *Config) EngineConfig() engine.Config {
	types := make([]model.AddressType, len(c.Engine.AddressTypes))
	for i, t := range c.Engine.AddressTypes {
		types[i] = model.AddressType(t)
	}
	return engine.Config{
		TwoPhaseNameChange: c.Engine.TwoPhaseNameChange,
		InitialsFallback:   c.Match.InitialsFallback,
		AddressTypes:       types,
		DefaultOperatorID:  c.Engine.DefaultOperatorID,
		DryRun:             c.Engine.DryRun,
	}
}
