package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/remote"
	"github.com/roach88/casesync/internal/testutil"
	"github.com/roach88/casesync/internal/updatedoc"
)

// seedTwoCandidates creates "josama" (an old key of jsama, initials XX) and
// "other" (initials JS).
func seedTwoCandidates(f *fixture) {
	f.gw.SetRows(remote.Persons, testutil.PersonRow(100, "josama"), testutil.PersonRow(200, "other"))
	f.gw.SetRows(remote.Names,
		testutil.NameRow(501, 100, "XX", "Jo", "Sama"),
		testutil.NameRow(502, 200, "JS", "Jon", "Smith"),
	)
}

func TestMatch_Key(t *testing.T) {
	f := newFixture(t)
	seedTwoCandidates(f)
	e := f.engine(t)

	remote, kind := e.Match(f.person(t, `<person key="OTHER" initials="ZZ"/>`))

	require.NotNil(t, remote)
	assert.Equal(t, MatchKey, kind)
	assert.Equal(t, model.KnownID(200), remote.ID)
}

func TestMatch_AltKeyWinsOverInitials(t *testing.T) {
	f := newFixture(t)
	seedTwoCandidates(f)
	e := f.engine(t)
	p := f.person(t, `<person key="jsama" initials="JS" firstname="Jo" lastname="Sama"><altid key="josama"/></person>`)

	plan, err := e.Reconcile(p)
	require.NoError(t, err)

	assert.Equal(t, MatchAltKey, plan.Match)
	assert.Equal(t, model.KnownID(100), p.ID)
	assert.True(t, p.UsernameNeedsUpdate)
	person := plan.Document.Seeks(updatedoc.TagPerson)
	require.Len(t, person, 1)
	assert.Equal(t, "jsama", value(t, person[0], model.ColPersonKey))
	assert.Empty(t, plan.Document.Creates(updatedoc.TagPerson))
}

func TestMatch_InitialsFallback(t *testing.T) {
	f := newFixture(t)
	seedTwoCandidates(f)
	e := f.engine(t)
	p := f.person(t, `<person key="jsmith" initials="js" firstname="Jon" lastname="Smith"/>`)

	plan, err := e.Reconcile(p)
	require.NoError(t, err)

	assert.Equal(t, MatchInitials, plan.Match)
	assert.Equal(t, model.KnownID(200), p.ID)
	assert.Equal(t, []string{"person: username other -> jsmith"}, plan.Changes)
}

func TestMatch_InitialsFallbackDisabled(t *testing.T) {
	f := newFixture(t)
	seedTwoCandidates(f)
	cfg := DefaultConfig()
	cfg.InitialsFallback = false
	e := f.engine(t, WithConfig(cfg))

	remote, kind := e.Match(f.person(t, `<person key="jsmith" initials="JS"/>`))

	assert.Nil(t, remote)
	assert.Equal(t, MatchNone, kind)
}

func TestMatch_NoInitialsNoFallback(t *testing.T) {
	f := newFixture(t)
	f.gw.SetRows(remote.Persons, testutil.PersonRow(100, "noname"))
	e := f.engine(t)

	remote, kind := e.Match(f.person(t, `<person key="fresh"/>`))

	assert.Nil(t, remote)
	assert.Equal(t, MatchNone, kind)
}

func TestMatchKind_String(t *testing.T) {
	assert.Equal(t, "none", MatchNone.String())
	assert.Equal(t, "key", MatchKey.String())
	assert.Equal(t, "altkey", MatchAltKey.String())
	assert.Equal(t, "initials", MatchInitials.String())
}
