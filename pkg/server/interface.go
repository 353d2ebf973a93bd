/*
Package server implements msgpack IPC for the pinyin IME engine.

The server reads a stream of msgpack-encoded requests from stdin and writes one
msgpack response per request to stdout. Logs go to stderr so the stream stays
clean. On start a ready message is sent:

	{"status": "ready", "entries": 51234, "generation": true}

Every request carries an ID echoed back in the response, an op name, and
the op's argument:

	{"id": "r1", "op": "input", "text": "ni hao"}
	{"id": "r2", "op": "toggle"}
	{"id": "r3", "op": "correction_input", "text": "wang"}
	{"id": "r4", "op": "pick", "slot": 1}

State-changing ops answer with the engine snapshot after the op:

	{"id": "r4", "snapshot": {...}, "t": 42}

The match op queries the dictionary directly and answers with candidates:

	{"id": "r5", "op": "match", "text": "xi", "limit": 10}
	{"id": "r5", "candidates": [{"t": "西", "p": "xi", "f": 60}, ...], "t": 18}

Rejected ops (paging past the ends, confirming with nothing pending) still
carry the snapshot, plus the error text and code 409. Unknown ops get code
400. Timings are in microseconds.
*/
package server

import (
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/dictionary"
	"github.com/YanaYuan/chinese-pinyin-ime/pkg/ime"
)

// Ops understood by the server.
const (
	OpInput           = "input"
	OpConvert         = "convert"
	OpCorrectionInput = "correction_input"
	OpToggle          = "toggle"
	OpPick            = "pick"
	OpConfirmSegment  = "confirm_segment"
	OpNextPage        = "next_page"
	OpPrevPage        = "prev_page"
	OpCycle           = "cycle"
	OpConfirm         = "confirm"
	OpClear           = "clear"
	OpSnapshot        = "snapshot"
	OpMatch           = "match"
)

// Error codes.
const (
	CodeBadRequest = 400
	CodeRejected   = 409
	CodeInternal   = 500
	CodeClosed     = 503
)

// Request is one client message.
type Request struct {
	ID    string `msgpack:"id"`
	Op    string `msgpack:"op"`
	Text  string `msgpack:"text,omitempty"`
	Slot  int    `msgpack:"slot,omitempty"`
	Limit int    `msgpack:"limit,omitempty"`
}

// Response answers one Request.
type Response struct {
	ID         string             `msgpack:"id"`
	Snapshot   *ime.Snapshot      `msgpack:"snapshot,omitempty"`
	Candidates []dictionary.Entry `msgpack:"candidates,omitempty"`
	Count      int                `msgpack:"c,omitempty"`
	Error      string             `msgpack:"error,omitempty"`
	Code       int                `msgpack:"code,omitempty"`
	TimeTaken  int64              `msgpack:"t"`
}

// ReadyMessage is sent once before the first request is read.
type ReadyMessage struct {
	Status     string `msgpack:"status"`
	Entries    int    `msgpack:"entries"`
	Generation bool   `msgpack:"generation"`
}
