package bofh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree(t *testing.T) *CommandTree {
	t.Helper()
	tree, err := ParseCommands(fakeCommands(), testLogger())
	require.NoError(t, err)
	return tree
}

func TestParseCommands(t *testing.T) {
	tree := testTree(t)

	assert.Nil(t, tree.Proto("legacy_cmd"), "old protocol entries are skipped")

	info := tree.Lookup("user", "info")
	require.NotNil(t, info)
	assert.Equal(t, "user_info", info.Proto)
	require.Len(t, info.Params, 1)
	assert.Equal(t, Param{Prompt: "Username", Type: "accountName", HelpRef: "account_name"}, info.Params[0])

	invite := tree.Proto("group_invite")
	require.NotNil(t, invite)
	assert.True(t, invite.Params[1].Optional)

	assert.Equal(t, Param{Prompt: "Group name", Default: "staff", HasDefault: true}, tree.Proto("group_info").Params[0])
	assert.True(t, tree.Proto("group_purge").Params[0].ServerDefault)
	assert.True(t, tree.Proto("person_affiliation").PromptFunc)
	assert.Empty(t, tree.Proto("group_list").Params)

	var order []string
	for _, c := range tree.Commands() {
		order = append(order, c.Proto)
	}
	assert.Equal(t, []string{
		"group_info", "group_invite", "group_list", "group_purge",
		"person_affiliation", "user_info", "user_password",
	}, order)
}

func TestParseCommands_NotStruct(t *testing.T) {
	_, err := ParseCommands([]any{}, testLogger())
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tree := testTree(t)

	tests := []struct {
		name      string
		args      []string
		wantProto string
		wantRest  []string
		wantErr   string
	}{
		{"full words", []string{"user", "info", "jdoe"}, "user_info", []string{"jdoe"}, ""},
		{"unique prefixes", []string{"u", "p", "jdoe"}, "user_password", []string{"jdoe"}, ""},
		{"group prefix", []string{"gr", "l"}, "group_list", []string{}, ""},
		{"ambiguous command", []string{"group", "i"}, "", nil, `"i" is ambiguous: info, invite`},
		{"exact beats prefix", []string{"group", "info"}, "group_info", []string{}, ""},
		{"unknown group", []string{"host", "info"}, "", nil, `unknown command "host"`},
		{"unknown command", []string{"user", "delete"}, "", nil, `unknown command "delete"`},
		{"group only", []string{"user"}, "", nil, "incomplete command, expected one of: info, password"},
		{"empty", nil, "", nil, "incomplete command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest, err := tree.Resolve(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				var re *ResolveError
				assert.True(t, errors.As(err, &re))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProto, cmd.Proto)
			assert.Equal(t, tt.wantRest, rest)
		})
	}
}

func TestComplete(t *testing.T) {
	tree := testTree(t)

	tests := []struct {
		line string
		want []string
	}{
		{"", []string{"group", "person", "user"}},
		{"g", []string{"group"}},
		{"group ", []string{"info", "invite", "list", "purge"}},
		{"group i", []string{"info", "invite"}},
		{"gr in", []string{"info", "invite"}},
		{"u p", []string{"password"}},
		{"group info ", nil},
		{"x ", nil},
		{`user "info`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.Complete(tt.line))
		})
	}
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"user info jdoe", []string{"user", "info", "jdoe"}, false},
		{"  user\tinfo  ", []string{"user", "info"}, false},
		{`group invite staff "needs access"`, []string{"group", "invite", "staff", "needs access"}, false},
		{`misc note 'it''s'`, []string{"misc", "note", "its"}, false},
		{`user set ""`, []string{"user", "set", ""}, false},
		{"", nil, false},
		{`user info "jdoe`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := SplitCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
