package bofh

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const cerebrumError = "Cerebrum.modules.bofhd.errors.CerebrumError:"

// fakeBofhd implements enough of the bofhd protocol to drive the client
// and the shell.
type fakeBofhd struct {
	logins     int
	sessions   map[string]bool
	expireNext bool
	restarted  bool
	calls      []string
	runs       [][]any
}

func newFakeBofhd() *fakeBofhd {
	return &fakeBofhd{sessions: map[string]bool{}}
}

func (f *fakeBofhd) router() http.Handler {
	r := chi.NewRouter()
	r.Post("/RPC2", func(w http.ResponseWriter, req *http.Request) {
		method, params, err := DecodeCall(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.calls = append(f.calls, method)
		w.Header().Set("Content-Type", "text/xml")

		result, fault := f.dispatch(method, params)
		if fault != nil {
			_, _ = w.Write(EncodeFault(fault.Code, fault.String))
			return
		}
		body, err := EncodeResponse(result)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(body)
	})
	return r
}

func (f *fakeBofhd) checkSession(params []any) *Fault {
	if len(params) == 0 {
		return &Fault{Code: 2, String: cerebrumError + "missing session"}
	}
	if f.expireNext {
		f.expireNext = false
		return &Fault{Code: 2, String: "Cerebrum.modules.bofhd.errors.SessionExpiredError:Session expired"}
	}
	if s, _ := params[0].(string); !f.sessions[s] {
		return &Fault{Code: 2, String: "Cerebrum.modules.bofhd.errors.SessionExpiredError:Unknown session"}
	}
	return nil
}

func (f *fakeBofhd) dispatch(method string, params []any) (any, *Fault) {
	switch method {
	case "login":
		if len(params) != 2 || params[1] != "secret" {
			return nil, &Fault{Code: 1, String: cerebrumError + "Unknown username or password"}
		}
		f.logins++
		id := fmt.Sprintf("sess-%d", f.logins)
		f.sessions[id] = true
		return id, nil
	case "logout":
		s, _ := params[0].(string)
		delete(f.sessions, s)
		return "OK", nil
	case "get_format_suggestion":
		return formatFor(params[0].(string)), nil
	}

	if fault := f.checkSession(params); fault != nil {
		return nil, fault
	}
	switch method {
	case "get_commands":
		return fakeCommands(), nil
	case "help":
		words := make([]string, 0, len(params)-1)
		for _, p := range params[1:] {
			words = append(words, p.(string))
		}
		if len(words) == 2 && words[0] == "arg_help" {
			return "Help for " + words[1], nil
		}
		return "help " + strings.Join(words, " "), nil
	case "get_default_param":
		return "fromserver", nil
	case "call_prompt_func":
		return promptFuncStep(len(params) - 2), nil
	case "run_command":
		if f.restarted {
			f.restarted = false
			return nil, &Fault{Code: 3, String: "Cerebrum.modules.bofhd.errors.ServerRestartedError:"}
		}
		f.runs = append(f.runs, params[1:])
		return runReply(params[1].(string), params[2:])
	}
	return nil, &Fault{Code: 1, String: "unknown method " + method}
}

func fakeCommands() map[string]any {
	return map[string]any{
		"user_info": []any{
			[]any{"user", "info"},
			[]any{map[string]any{"prompt": "Username", "type": "accountName", "help_ref": "account_name"}},
		},
		"user_password": []any{
			[]any{"user", "password"},
			[]any{
				map[string]any{"prompt": "Account name"},
				map[string]any{"prompt": "New password", "type": "accountPassword"},
			},
		},
		"group_info": []any{
			[]any{"group", "info"},
			[]any{map[string]any{"prompt": "Group name", "default": "staff"}},
		},
		"group_invite": []any{
			[]any{"group", "invite"},
			[]any{
				map[string]any{"prompt": "Group name"},
				map[string]any{"prompt": "Comment", "optional": 1},
			},
		},
		"group_list": []any{[]any{"group", "list"}},
		"group_purge": []any{
			[]any{"group", "purge"},
			[]any{map[string]any{"prompt": "Group name", "default": 1}},
		},
		"person_affiliation": []any{[]any{"person", "affiliation"}, "prompt_func"},
		"legacy_cmd":         []any{"legacy"},
	}
}

func formatFor(cmd string) any {
	switch cmd {
	case "user_info":
		return map[string]any{"str_vars": []any{
			[]any{"Username:      %s\nUid:           %i", []any{"username", "uid"}},
			[]any{"Spread:        %s", []any{"spread"}},
		}}
	case "group_list":
		return map[string]any{
			"hdr":      "Name       Gid",
			"str_vars": []any{[]any{"%-10s %i", []any{"name", "gid"}}},
		}
	}
	return ""
}

func runReply(cmd string, args []any) (any, *Fault) {
	switch cmd {
	case "user_info":
		if args[0] == "nobody" {
			return nil, &Fault{Code: 1, String: cerebrumError + "Unknown account: nobody"}
		}
		return map[string]any{"username": args[0], "uid": 1001, "spread": "NIS_user@uio"}, nil
	case "group_list":
		return []any{
			map[string]any{"name": "staff", "gid": 500},
			map[string]any{"name": "ops", "gid": 501},
		}, nil
	case "group_purge":
		return []any{map[string]any{"name": args[0]}}, nil
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return fmt.Sprintf("%s(%s) OK", cmd, strings.Join(parts, ",")), nil
}

// promptFuncStep asks for an affiliation from a menu, then a free-text
// note, then flags completion.
func promptFuncStep(have int) map[string]any {
	switch have {
	case 0:
		return map[string]any{
			"prompt":   "Affiliation",
			"help_ref": "affiliation",
			"map": []any{
				[]any{[]any{"%-10s", "Name"}, nil},
				[]any{[]any{"%-10s", "ANSATT"}, "ansatt"},
				[]any{[]any{"%-10s", "STUDENT"}, "student"},
			},
		}
	case 1:
		return map[string]any{"prompt": "Note", "default": "none", "last_arg": true}
	}
	return map[string]any{"last_arg": true}
}

func newTestClient(t *testing.T, f *fakeBofhd) *Client {
	t.Helper()
	srv := httptest.NewServer(f.router())
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{URL: srv.URL + "/RPC2", Logger: testLogger()})
	require.NoError(t, err)
	return c
}

func loggedInClient(t *testing.T, f *fakeBofhd) (*Client, *CommandTree) {
	t.Helper()
	c := newTestClient(t, f)
	require.NoError(t, c.Login(t.Context(), "bootstrap_account", "secret"))
	tree, err := c.Commands(t.Context())
	require.NoError(t, err)
	return c, tree
}
