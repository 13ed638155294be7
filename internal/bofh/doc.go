// Package bofh is an interactive client for a bofhd-style administrative
// server reached over XML-RPC.
//
// The server publishes its command set through get_commands: each protocol
// command (for example "user_info") is bound to a two-word command line
// ("user info") and an optional parameter specification. The shell resolves
// what the operator types against that tree, accepting any unique prefix of
// either word, prompts for parameters that were not given, invokes
// run_command, and renders the reply with the printf-style layout returned
// by get_format_suggestion.
//
// A session id is obtained with login and passed as the first argument of
// every session-bound call. When the server reports an expired session the
// client logs in again once with the remembered credentials and retries.
package bofh
