package engine

import (
	"log/slog"

	"github.com/roach88/casesync/internal/model"
)

// MatchKind records how an imported person was paired with a remote one.
type MatchKind int

const (
	// MatchNone means the person is new.
	MatchNone MatchKind = iota
	// MatchKey is an exact identity key match.
	MatchKey
	// MatchAltKey is a match on a former identity key.
	MatchAltKey
	// MatchInitials is a fuzzy match on active-name initials.
	MatchInitials
)

func (k MatchKind) String() string {
	switch k {
	case MatchKey:
		return "key"
	case MatchAltKey:
		return "altkey"
	case MatchInitials:
		return "initials"
	default:
		return "none"
	}
}

// Match finds the remote person p corresponds to. First match wins:
// identity key, then each alternate key in order, then (if enabled) the
// active-name initials. A nil result means p is new.
func (e *Engine) Match(p *model.Person) (*model.Person, MatchKind) {
	if r, ok := e.index.Lookup(p.Key); ok {
		return r, MatchKey
	}
	for _, alt := range p.AltKeys {
		if r, ok := e.index.Lookup(alt); ok {
			return r, MatchAltKey
		}
	}
	if !e.cfg.InitialsFallback {
		return nil, MatchNone
	}
	if r, ok := e.index.FindByInitials(p.Initials()); ok {
		e.logger.Warn("fuzzy match on initials",
			slog.String("person", p.Key),
			slog.String("remote", r.Key),
			slog.String("initials", p.Initials()),
		)
		return r, MatchInitials
	}
	return nil, MatchNone
}
