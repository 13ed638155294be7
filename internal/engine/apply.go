package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/updatedoc"
)

// Outcome classifies what happened to one person.
type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"

	// OutcomeFollowUpFailed only appears in the journal, on the follow-up
	// submission of an otherwise submitted person.
	OutcomeFollowUpFailed Outcome = "follow_up_failed"
)

// Submission kinds.
const (
	KindUpdate   = "update"
	KindFollowUp = "follow_up"
)

// Attempt is one document sent to the gateway.
type Attempt struct {
	Kind    string
	Payload string
	Result  int
	Err     error // nil, or a *SyncError
}

// Result is the outcome of applying a Plan.
type Result struct {
	Person   string
	Outcome  Outcome
	Attempts []Attempt
	// FollowUpFailed is set when the document was accepted but the
	// corrective rename was not.
	FollowUpFailed bool
}

// Err returns the error of the first failed attempt, or nil.
func (r Result) Err() error {
	for _, a := range r.Attempts {
		if a.Err != nil {
			return a.Err
		}
	}
	return nil
}

// Apply submits a plan and classifies the response.
//
// A positive result is the remote id; for new persons it is stored on the
// person and the person is remembered as a possible operator. The snapshot
// index is left as loaded. A non-positive
// result is a silent remote failure and a gateway fault is a failure; both
// are logged with the payload and returned in the Result, never as a Go
// error, so the caller can go on with the next person.
func (e *Engine) Apply(ctx context.Context, plan *Plan) Result {
	p := plan.Person
	res := Result{Person: p.Key}
	log := e.logger.With(slog.String("person", p.Key))

	switch {
	case plan.Skip != "":
		log.Info("skipped", slog.String("reason", plan.Skip))
		res.Outcome = OutcomeSkipped
		return res
	case !plan.Dirty:
		log.Debug("unchanged", slog.String("match", plan.Match.String()))
		res.Outcome = OutcomeUnchanged
		return res
	}

	log.Info("attempt", slog.String("match", plan.Match.String()), slog.Any("changes", plan.Changes))
	first := e.submit(ctx, p.Key, KindUpdate, plan.Document)
	res.Attempts = append(res.Attempts, first)

	if first.Err != nil {
		se := first.Err.(*SyncError)
		if se.Code == ErrCodeSubmitRejected {
			res.Outcome = OutcomeRejected
			log.Error("submit rejected", slog.Int("result", first.Result), slog.String("payload", first.Payload))
		} else {
			res.Outcome = OutcomeFailed
			log.Error("submit failed", slog.String("error", se.Err.Error()), slog.String("payload", first.Payload))
		}
		return res
	}

	res.Outcome = OutcomeSubmitted
	if p.New {
		p.ID = model.KnownID(int64(first.Result))
		e.created[p.Key] = p
	}
	log.Info("submitted", slog.Int("result", first.Result))

	if plan.FollowUp != nil {
		follow := e.submit(ctx, p.Key, KindFollowUp, plan.FollowUp)
		if follow.Err != nil {
			follow.Err.(*SyncError).Code = ErrCodeFollowUpFailed
			res.FollowUpFailed = true
			log.Warn("follow-up failed",
				slog.String("error", follow.Err.Error()),
				slog.String("payload", follow.Payload),
			)
		} else {
			log.Info("follow-up submitted", slog.Int("result", follow.Result))
		}
		res.Attempts = append(res.Attempts, follow)
	}
	return res
}

func (e *Engine) submit(ctx context.Context, person, kind string, doc *updatedoc.Document) Attempt {
	a := Attempt{Kind: kind}
	payload, err := doc.Marshal()
	if err != nil {
		a.Err = &SyncError{Code: ErrCodeBuildFailed, Person: person, Err: err}
		return a
	}
	a.Payload = payload

	n, err := e.gw.SubmitUpdate(ctx, payload)
	a.Result = n
	switch {
	case err != nil:
		a.Err = &SyncError{Code: ErrCodeSubmitFailed, Person: person, Payload: payload, Err: err}
	case n <= 0:
		a.Err = &SyncError{Code: ErrCodeSubmitRejected, Person: person, Payload: payload, Result: n}
	}
	return a
}
