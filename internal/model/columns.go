package model

// Column names of the remote person datasets.
const (
	ColPersonID       = "PE_ID"
	ColPersonKey      = "PE_BRUKERID"
	ColPersonCreated  = "PE_OPPRETTETDATO"
	ColPersonUntil    = "PE_TILDATO"
	ColPersonPassword = "PE_PASSORD"

	ColNameID       = "PN_ID"
	ColNamePerson   = "PN_PEID_PE"
	ColNameInitials = "PN_INIT"
	ColNameFull     = "PN_NAVN"
	ColNameFirst    = "PN_FORNAVN"
	ColNameMiddle   = "PN_MNAVN"
	ColNameLast     = "PN_ETTERNAVN"
	ColNameActive   = "PN_AKTIV"
	ColNameFrom     = "PN_FRADATO"
	ColNameUntil    = "PN_TILDATO"

	ColLinkPerson  = "PA_PEID_PE"
	ColLinkAddress = "PA_ADRID_AK"

	ColAddressID         = "AK_ADRID"
	ColAddressType       = "AK_TYPE"
	ColAddressName       = "AK_NAVN"
	ColAddressPostal     = "AK_POSTADR"
	ColAddressPostalCode = "AK_POSTNR"
	ColAddressCity       = "AK_POSTSTED"
	ColAddressEmail      = "AK_EPOSTADR"
	ColAddressPhone      = "AK_TLF"

	ColRoleID          = "PR_ID"
	ColRolePerson      = "PR_PEID_PE"
	ColRoleType        = "PR_ROLLEID_RO"
	ColRoleTitle       = "PR_TITTEL"
	ColRoleJournalUnit = "PR_JENHET_JE"
	ColRoleArchivePart = "PR_ARKDEL_AD"
	ColRoleAdminUnit   = "PR_ADMID_AI"
	ColRoleStandard    = "PR_STDROLLE"
	ColRoleFrom        = "PR_FRADATO"
	ColRoleUntil       = "PR_TILDATO"

	ColPermID          = "PK_ID"
	ColPermPerson      = "PK_PEID_PE"
	ColPermCode        = "PK_TGKODE_TK"
	ColPermAdminUnit   = "PK_ADMID_AI"
	ColPermAutoRevoked = "PK_AUTOOPPH"
	ColPermOperator    = "PK_AUTAV_PE"
	ColPermFrom        = "PK_FRADATO"
	ColPermUntil       = "PK_TILDATO"
)

// foreignKey parses a mandatory numeric reference column.
func foreignKey(row map[string]string, col string) (int64, error) {
	id, err := ParseID(row[col])
	if err != nil || !id.IsKnown() {
		return 0, badValue(col, row[col])
	}
	v, _ := id.Value()
	return v, nil
}

func rowID(row map[string]string, col string) (ID, error) {
	id, err := ParseID(row[col])
	if err != nil {
		return NoID(), badValue(col, row[col])
	}
	return id, nil
}

// requiredID is rowID for primary-key columns, where an empty value is an
// error.
func requiredID(row map[string]string, col string) (ID, error) {
	id, err := rowID(row, col)
	if err == nil && !id.IsKnown() {
		err = badValue(col, row[col])
	}
	return id, err
}

func rowDay(row map[string]string, col string) (Day, error) {
	d, err := ParseDay(row[col])
	if err != nil {
		return Day{}, badValue(col, row[col])
	}
	return d, nil
}
