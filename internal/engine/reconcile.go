package engine

import (
	"fmt"
	"strconv"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/updatedoc"
)

// personRef is the document reference id of a person created in the same
// document.
const personRef = "P1"

// placeholderPrefix marks the initials of a name row created by the
// two-phase rename until the follow-up renames it.
const placeholderPrefix = "_"

// Plan is the outcome of reconciling one imported person.
type Plan struct {
	Person *model.Person
	Remote *model.Person // nil for new persons
	Match  MatchKind

	// Document is the update to submit. It is nil when Dirty is false.
	Document *updatedoc.Document

	// FollowUp is submitted only after Document was accepted.
	FollowUp *updatedoc.Document

	Dirty bool

	// Skip is set for persons that need no work at all, with the reason.
	Skip string

	// Changes names each delta, in document order, for log lines.
	Changes []string
}

type planner struct {
	e     *Engine
	plan  *Plan
	doc   *updatedoc.Document
	ref   string // PE_ID value children refer to
	today model.Day
	addrs int
}

func (pl *planner) change(format string, args ...any) {
	pl.plan.Dirty = true
	pl.plan.Changes = append(pl.plan.Changes, fmt.Sprintf(format, args...))
}

// Reconcile computes the update document for p.
//
// p is updated in place: it receives the remote id and the bookkeeping
// flags (New, UsernameNeedsUpdate, ValidUntilNeedsUpdate). The remote
// person is never modified.
func (e *Engine) Reconcile(p *model.Person) (*Plan, error) {
	remote, kind := e.Match(p)
	pl := &planner{
		e:     e,
		plan:  &Plan{Person: p, Remote: remote, Match: kind},
		doc:   updatedoc.New(),
		today: today(e.clock),
	}

	if remote == nil && p.Deletable {
		pl.plan.Skip = "new person marked deletable"
		return pl.plan, nil
	}

	if err := pl.person(); err != nil {
		return nil, err
	}
	pl.name()
	pl.addresses()
	pl.roles()
	pl.permissions()

	if pl.plan.Dirty {
		pl.plan.Document = pl.doc
	}
	return pl.plan, nil
}

func (pl *planner) person() error {
	p, remote := pl.plan.Person, pl.plan.Remote

	if remote == nil {
		pw, err := pl.e.passwords()
		if err != nil {
			return &SyncError{Code: ErrCodeBuildFailed, Person: p.Key, Err: err}
		}
		p.New = true
		p.Created = pl.today
		pl.ref = personRef
		pl.doc.Create(updatedoc.TagPerson).
			Set(model.ColPersonID, personRef).
			Set(model.ColPersonKey, p.Key).
			Set(model.ColPersonPassword, pw).
			Set(model.ColPersonCreated, p.Created.String())
		pl.change("person: create")
		return nil
	}

	p.ID = remote.ID
	p.Created = remote.Created
	p.ValidUntil = remote.ValidUntil
	pl.ref = remote.ID.String()

	closed := remote.ClosedAsOf(pl.today)
	switch {
	case p.Deletable && !closed:
		p.ValidUntil = pl.today
		p.ValidUntilNeedsUpdate = true
	case !p.Deletable && closed:
		p.ValidUntil = model.FarFuture
		p.ValidUntilNeedsUpdate = true
	}
	if pl.plan.Match == MatchAltKey || pl.plan.Match == MatchInitials {
		p.UsernameNeedsUpdate = true
	}

	b := pl.doc.Seek(updatedoc.TagPerson, updatedoc.F(model.ColPersonID, pl.ref))
	if p.UsernameNeedsUpdate {
		b.Set(model.ColPersonKey, p.Key)
		pl.change("person: username %s -> %s", remote.Key, p.Key)
	}
	if p.ValidUntilNeedsUpdate {
		b.Set(model.ColPersonUntil, p.ValidUntil.String())
		if p.Deletable {
			pl.change("person: close")
		} else {
			pl.change("person: reactivate")
		}
	}
	return nil
}

func (pl *planner) name() {
	p, remote := pl.plan.Person, pl.plan.Remote
	imported := p.Name
	if imported == nil {
		return
	}
	var current *model.Name
	if remote != nil {
		current = remote.Name
	}

	switch {
	case current == nil:
		pl.createName(imported, imported.Initials)
		pl.change("name: create %s", imported.Initials)

	case imported.ValueEqual(current):
		imported.ID = current.ID

	case pl.e.cfg.TwoPhaseNameChange && current.InitialsChanged(imported):
		pl.doc.Seek(updatedoc.TagName, updatedoc.F(model.ColNameID, current.ID.String())).
			Set(model.ColNameUntil, pl.today.String()).
			Set(model.ColNameActive, model.FormatFlag(false))
		placeholder := placeholderPrefix + imported.Initials
		pl.createName(imported, placeholder)

		pl.plan.FollowUp = updatedoc.New()
		pl.plan.FollowUp.Seek(updatedoc.TagName,
			updatedoc.F(model.ColNameInitials, placeholder),
			updatedoc.F(model.ColNameActive, model.FormatFlag(true)),
		).Set(model.ColNameInitials, imported.Initials)
		pl.change("name: rename %s -> %s", current.Initials, imported.Initials)

	default:
		imported.ID = current.ID
		b := pl.doc.Seek(updatedoc.TagName, updatedoc.F(model.ColNameID, current.ID.String()))
		nameFields(b, imported, imported.Initials)
		pl.change("name: update")
	}
}

func (pl *planner) createName(n *model.Name, initials string) {
	b := pl.doc.Create(updatedoc.TagName).
		Set(model.ColNameID, "N"+strconv.FormatInt(pl.e.refs.Next(), 10)).
		Set(model.ColNamePerson, pl.ref)
	nameFields(b, n, initials)
	b.Set(model.ColNameActive, model.FormatFlag(true))
	from := n.From
	if from.IsZero() {
		from = pl.today
	}
	b.Set(model.ColNameFrom, from.String())
}

func nameFields(b *updatedoc.Block, n *model.Name, initials string) {
	b.Set(model.ColNameInitials, initials).
		Set(model.ColNameFull, n.Full).
		Set(model.ColNameFirst, n.First).
		Set(model.ColNameLast, n.Last)
}

func (pl *planner) addresses() {
	p, remote := pl.plan.Person, pl.plan.Remote
	for _, t := range pl.e.cfg.AddressTypes {
		imported := p.Addresses[t]
		if imported == nil {
			continue
		}
		var current *model.Address
		if remote != nil {
			current = remote.Addresses[t]
		}

		if current != nil {
			imported.ID = current.ID
			if imported.ValueEqual(current) {
				continue
			}
			b := pl.doc.Seek(updatedoc.TagAddress, updatedoc.F(model.ColAddressID, current.ID.String()))
			addressFields(b, imported)
			pl.change("address %s: update", t)
			continue
		}

		pl.addrs++
		ref := "A" + strconv.Itoa(pl.addrs)
		b := pl.doc.Create(updatedoc.TagAddress).Set(model.ColAddressID, ref)
		addressFields(b, imported)
		pl.doc.Create(updatedoc.TagPersonAddr).
			Set(model.ColLinkPerson, pl.ref).
			Set(model.ColLinkAddress, ref)
		pl.change("address %s: create", t)
	}
}

func addressFields(b *updatedoc.Block, a *model.Address) {
	b.Set(model.ColAddressType, a.Type.Code()).
		Set(model.ColAddressName, a.Name).
		Set(model.ColAddressPostal, a.Postal).
		Set(model.ColAddressPostalCode, a.PostalCode).
		Set(model.ColAddressCity, a.City).
		Set(model.ColAddressEmail, a.Email).
		Set(model.ColAddressPhone, a.Phone)
}
