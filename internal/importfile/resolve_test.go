package importfile

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/refdata"
)

var today = model.NewDay(2026, time.October, 17)

func testTables(t *testing.T) *refdata.Tables {
	t.Helper()
	tables, err := refdata.New(
		[]refdata.Row{
			{refdata.ColOrgUnitID: "10", refdata.ColOrgUnitCode: "USIT"},
			{refdata.ColOrgUnitID: "11", refdata.ColOrgUnitCode: "SADM"},
		},
		[]refdata.Row{
			{refdata.ColRoleID: "1", refdata.ColRoleName: "SB", refdata.ColRoleDescription: "Saksbehandler"},
			{refdata.ColRoleID: "2", refdata.ColRoleName: "LE", refdata.ColRoleDescription: "Leder"},
		},
	)
	require.NoError(t, err)
	return tables
}

func TestParseFile(t *testing.T) {
	f, err := ParseFile("testdata/persons.xml")
	require.NoError(t, err)
	require.Len(t, f.Persons, 5)

	first := f.Persons[0]
	assert.Equal(t, "JSAMA", first.Key)
	assert.Len(t, first.Roles, 2)
	assert.Len(t, first.Permissions, 1)
	assert.Equal(t, []AltIDRecord{{Key: "josama"}}, first.AltIDs)
	assert.Equal(t, "private", first.Addresses[0].Type)
}

func TestResolve(t *testing.T) {
	f, err := ParseFile("testdata/persons.xml")
	require.NoError(t, err)

	persons, rejected := f.Resolve(testTables(t), today)
	require.Len(t, persons, 2)
	require.Len(t, rejected, 3)

	p := persons[0]
	assert.Equal(t, "jsama", p.Key)
	assert.False(t, p.Deletable)
	assert.Equal(t, []string{"josama"}, p.AltKeys)

	require.NotNil(t, p.Name)
	assert.Equal(t, "JS", p.Name.Initials)
	assert.Equal(t, "Jo Sama", p.Name.Full)
	assert.True(t, today.Equal(p.Name.From), "missing name date defaults to today")

	assert.Equal(t, []model.AddressType{model.AddressPrivate, model.AddressWork}, p.AddressTypes())
	work := p.Addresses[model.AddressWork]
	assert.Equal(t, "Gaustadalleen 23 A Kristen Nygaards ..., rom 2410", work.Postal)
	assert.LessOrEqual(t, len([]rune(work.Postal)), model.MaxPostalLength)

	require.Len(t, p.Roles, 1)
	assert.Equal(t, int64(1), p.Roles[0].TypeID)
	assert.Equal(t, "Saksbehandler USIT", p.Roles[0].Title)
	assert.True(t, p.Roles[0].Standard)
	require.Len(t, p.RemovedRoles, 1, "role ending yesterday is removed")

	require.Len(t, p.Permissions, 1)
	assert.Equal(t, "AR", p.Permissions[0].Code)
	assert.Equal(t, "bofh", p.Permissions[0].OperatorKey)

	olan := persons[1]
	assert.True(t, olan.Deletable)
	assert.Empty(t, olan.Addresses)

	assert.Equal(t, 2, rejected[0].Index)
	assert.Equal(t, "broken", rejected[0].Key)
	var de *model.DataError
	require.ErrorAs(t, rejected[0].Err, &de)
	assert.Equal(t, model.ErrCodeIllegalRoleType, de.Code)
	assert.Contains(t, rejected[0].String(), "XX")

	require.ErrorAs(t, rejected[1].Err, &de)
	assert.Equal(t, model.ErrCodeMissingIdentity, de.Code)

	require.ErrorAs(t, rejected[2].Err, &de)
	assert.Equal(t, "permission from", de.Field)
}

func TestParse_Latin1(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="ISO-8859-1"?><persons><person key="bmo" firstname="B`)
	buf.WriteByte(0xF8) // ø
	buf.WriteString(`rre" lastname="M`)
	buf.WriteByte(0xE6) // æ
	buf.WriteString(`hle"/></persons>`)

	f, err := Parse(&buf)
	require.NoError(t, err)
	persons, rejected := f.Resolve(testTables(t), today)
	require.Empty(t, rejected)
	assert.Equal(t, "Børre Mæhle", persons[0].Name.Full)
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`<persons><person key="x">`))
	assert.Error(t, err)

	_, err = ParseFile("testdata/missing.xml")
	assert.Error(t, err)
}

func TestResolve_UnknownAddressType(t *testing.T) {
	f, err := Parse(strings.NewReader(`<persons><person key="a"><address type="holiday" city="X"/></person></persons>`))
	require.NoError(t, err)
	_, rejected := f.Resolve(testTables(t), today)
	require.Len(t, rejected, 1)
	assert.True(t, model.IsDataError(rejected[0].Err))
}
