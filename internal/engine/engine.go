package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/refdata"
	"github.com/roach88/casesync/internal/remote"
	"github.com/roach88/casesync/internal/snapshot"
)

// Config holds the reconciliation switches.
type Config struct {
	// TwoPhaseNameChange renames initials through a "_" placeholder and a
	// corrective follow-up submission. Disabled, an initials change is a
	// plain update of the existing name row.
	TwoPhaseNameChange bool

	// InitialsFallback lets a person without key match claim a remote
	// person with the same active initials.
	InitialsFallback bool

	// AddressTypes are the address types that are reconciled.
	AddressTypes []model.AddressType

	// DefaultOperatorID is written as granting operator of new permissions
	// whose operator cannot be resolved. Zero leaves the column out.
	DefaultOperatorID int64

	// DryRun is recorded in the journal; the gateway decides what it means.
	DryRun bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		TwoPhaseNameChange: true,
		InitialsFallback:   true,
		AddressTypes:       []model.AddressType{model.AddressWork},
	}
}

type options struct {
	cfg       Config
	clock     Clock
	logger    *slog.Logger
	passwords PasswordSource
	ids       IDGenerator
	journal   Journal
	metrics   *Metrics
}

func defaultOptions() options {
	return options{
		cfg:       DefaultConfig(),
		clock:     SystemClock{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		passwords: RandomPassword,
		ids:       UUIDv7Generator{},
		journal:   nopJournal{},
	}
}

// EngineOption allows configuration of the engine and the syncer.
type EngineOption func(*options)

// WithConfig replaces the reconciliation switches.
func WithConfig(cfg Config) EngineOption {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithClock sets the clock used for effective dating.
func WithClock(c Clock) EngineOption {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) EngineOption {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPasswords sets the password source for new persons.
func WithPasswords(p PasswordSource) EngineOption {
	return func(o *options) {
		o.passwords = p
	}
}

// WithIDGenerator sets the run id generator.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(o *options) {
		o.ids = g
	}
}

// WithJournal records runs and submissions. Default: no journal.
func WithJournal(j Journal) EngineOption {
	return func(o *options) {
		if j != nil {
			o.journal = j
		}
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) EngineOption {
	return func(o *options) {
		o.metrics = m
	}
}

// Engine reconciles and submits one person at a time.
//
// Thread-safety model: an Engine is used by exactly one goroutine. New
// persons accepted by the remote are added to the snapshot index so that
// later persons (e.g. permission operators) can refer to them.
type Engine struct {
	gw     remote.Gateway
	tables *refdata.Tables
	index  *snapshot.Index
	refs   *RefSequence

	// created holds persons created by this engine, by identity key. The
	// snapshot is never written to; only operator lookups consult this.
	created map[string]*model.Person

	cfg       Config
	clock     Clock
	logger    *slog.Logger
	passwords PasswordSource
}

// New creates an Engine over a loaded snapshot.
//
// Options can be passed to configure the engine (e.g., WithConfig).
func New(gw remote.Gateway, tables *refdata.Tables, index *snapshot.Index, opts ...EngineOption) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newEngine(gw, tables, index, o)
}

func newEngine(gw remote.Gateway, tables *refdata.Tables, index *snapshot.Index, o options) *Engine {
	if index == nil {
		index = snapshot.NewIndex()
	}
	return &Engine{
		gw:        gw,
		tables:    tables,
		index:     index,
		refs:      NewRefSequence(),
		created:   make(map[string]*model.Person),
		cfg:       o.cfg,
		clock:     o.clock,
		logger:    o.logger.With(slog.String("component", "engine")),
		passwords: o.passwords,
	}
}
