package engine

import (
	"strconv"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/updatedoc"
)

// roles emits the symmetric difference between the imported and the remote
// active roles. Matching happens against a copy of the remote roles, so the
// snapshot stays intact for any later lookup. A matched role produces no
// block, even when its title or standard flag differ.
func (pl *planner) roles() {
	p, remote := pl.plan.Person, pl.plan.Remote
	var working []*model.Role
	if remote != nil {
		working = remote.ActiveRoles()
	}

	for i, r := range p.Roles {
		j := indexRole(working, r)
		if j < 0 {
			pl.createRole(i+1, r)
			pl.change("%s: create", r)
			continue
		}
		r.ID = working[j].ID
		working = append(working[:j], working[j+1:]...)
	}

	for _, r := range working {
		pl.doc.Seek(updatedoc.TagRole, updatedoc.F(model.ColRoleID, r.ID.String())).
			Set(model.ColRoleUntil, pl.today.String())
		pl.change("%s: close", r)
	}
}

func indexRole(roles []*model.Role, r *model.Role) int {
	for i, candidate := range roles {
		if candidate.SameEntity(r) {
			return i
		}
	}
	return -1
}

func (pl *planner) createRole(pos int, r *model.Role) {
	from := r.From
	if from.IsZero() {
		from = pl.today
	}
	b := pl.doc.Create(updatedoc.TagRole).
		Set(model.ColRoleID, "R"+strconv.Itoa(pos)).
		Set(model.ColRolePerson, pl.ref).
		Set(model.ColRoleType, strconv.FormatInt(r.TypeID, 10)).
		Set(model.ColRoleTitle, r.Title).
		Set(model.ColRoleJournalUnit, r.JournalUnit).
		Set(model.ColRoleArchivePart, r.ArchivePart).
		Set(model.ColRoleAdminUnit, strconv.FormatInt(r.AdminUnitID, 10)).
		Set(model.ColRoleStandard, model.FormatFlag(r.Standard)).
		Set(model.ColRoleFrom, from.String())
	if !r.Until.IsZero() {
		b.Set(model.ColRoleUntil, r.Until.String())
	}
}

// permissions mirrors roles for permission grants.
func (pl *planner) permissions() {
	p, remote := pl.plan.Person, pl.plan.Remote
	var working []*model.Permission
	if remote != nil {
		working = remote.ActivePermissions()
	}

	for i, perm := range p.Permissions {
		j := indexPermission(working, perm)
		if j < 0 {
			pl.createPermission(i+1, perm)
			pl.change("%s: create", perm)
			continue
		}
		perm.ID = working[j].ID
		working = append(working[:j], working[j+1:]...)
	}

	for _, perm := range working {
		pl.doc.Seek(updatedoc.TagPermission, updatedoc.F(model.ColPermID, perm.ID.String())).
			Set(model.ColPermUntil, pl.today.String())
		pl.change("%s: close", perm)
	}
}

func indexPermission(perms []*model.Permission, p *model.Permission) int {
	for i, candidate := range perms {
		if candidate.SameEntity(p) {
			return i
		}
	}
	return -1
}

func (pl *planner) createPermission(pos int, perm *model.Permission) {
	from := perm.From
	if from.IsZero() {
		from = pl.today
	}
	b := pl.doc.Create(updatedoc.TagPermission).
		Set(model.ColPermID, "K"+strconv.Itoa(pos)).
		Set(model.ColPermPerson, pl.ref).
		Set(model.ColPermCode, perm.Code).
		Set(model.ColPermAdminUnit, strconv.FormatInt(perm.AdminUnitID, 10)).
		Set(model.ColPermAutoRevoked, model.FormatFlag(perm.AutoRevoked))
	if op := pl.operator(perm); op != "" {
		b.Set(model.ColPermOperator, op)
	}
	b.Set(model.ColPermFrom, from.String())
	if !perm.Until.IsZero() {
		b.Set(model.ColPermUntil, perm.Until.String())
	}
}

// operator resolves the granting operator of a new permission: the
// resolved id if known, the remote id of the operator's identity key (from
// the snapshot or from persons created earlier in the run), or the
// configured default.
func (pl *planner) operator(perm *model.Permission) string {
	if perm.OperatorID.IsKnown() {
		return perm.OperatorID.String()
	}
	if perm.OperatorKey != "" {
		if op, ok := pl.e.lookupOperator(perm.OperatorKey); ok && op.ID.IsKnown() {
			perm.OperatorID = op.ID
			return op.ID.String()
		}
	}
	if pl.e.cfg.DefaultOperatorID != 0 {
		return strconv.FormatInt(pl.e.cfg.DefaultOperatorID, 10)
	}
	return ""
}

func (e *Engine) lookupOperator(key string) (*model.Person, bool) {
	if p, ok := e.index.Lookup(key); ok {
		return p, true
	}
	probe, err := model.NewPerson(key)
	if err != nil {
		return nil, false
	}
	p, ok := e.created[probe.Key]
	return p, ok
}
