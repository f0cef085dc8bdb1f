/*
Package server implements msgpack IPC for spell-checking services.

The server speaks a request/response protocol over stdin/stdout using binary
msgpack encoding. Each request carries an ID the response echoes back, an op
selecting the operation, and the operation's arguments.

A check request looks like:

	{"id": "req_001", "op": "check", "tag": "en_US", "w": "helo"}

and is answered with:

	{"id": "req_001", "ok": false, "t": 0}

Suggestion responses carry the merged provider and personal-list candidates
in ranked order:

	{"id": "req_002", "s": ["hello", "help"], "c": 2, "t": 1}

Word-list management ops (add, remove, add_session, remove_session) and
broker ops (dict_exists, list_dicts, free_dict, ping) answer with a status
response, with error details when an op fails.

Dictionaries are opened on first use and kept open until free_dict or
shutdown. Requests are processed synchronously in arrival order.
*/
package server

// Request is an incoming IPC request.
type Request struct {
	ID   string `msgpack:"id"`
	Op   string `msgpack:"op"`
	Tag  string `msgpack:"tag,omitempty"`
	Word string `msgpack:"w,omitempty"`
	// With is the correction for store_replacement.
	With string `msgpack:"with,omitempty"`
}

// CheckResponse answers a check op.
type CheckResponse struct {
	ID        string `msgpack:"id"`
	Correct   bool   `msgpack:"ok"`
	TimeTaken int64  `msgpack:"t"`
}

// SuggestResponse answers a suggest op.
type SuggestResponse struct {
	ID          string   `msgpack:"id"`
	Suggestions []string `msgpack:"s"`
	Count       int      `msgpack:"c"`
	TimeTaken   int64    `msgpack:"t"`
}

// StatusResponse answers management ops and reports errors.
type StatusResponse struct {
	ID     string `msgpack:"id"`
	Status string `msgpack:"status"`
	Error  string `msgpack:"e,omitempty"`
}

// DictInfo describes one available dictionary.
type DictInfo struct {
	Tag         string `msgpack:"tag"`
	Provider    string `msgpack:"p"`
	Description string `msgpack:"d"`
}

// ListDictsResponse answers a list_dicts op.
type ListDictsResponse struct {
	ID    string     `msgpack:"id"`
	Dicts []DictInfo `msgpack:"dicts"`
	Count int        `msgpack:"c"`
}

// ExistsResponse answers a dict_exists op.
type ExistsResponse struct {
	ID     string `msgpack:"id"`
	Exists bool   `msgpack:"ok"`
}
