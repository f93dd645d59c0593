// Package reply holds the status-mapping contract shared by every handler.
//
// A handler computes exactly one Reply for a request and hands it to Write,
// which is the only place a status line and body are written.
package reply

import (
	"encoding/json"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

const (
	MsgDatabaseError = "Database connection error"
	MsgNoChanges     = "No changes implemented"
)

// Reply is the terminal value of a handler path.
// A string Body is sent as text/plain, anything else as JSON.
type Reply struct {
	Status int
	Body   any
}

// Func is a handler that returns its response instead of writing it.
type Func func(r *http.Request) Reply

// Handle adapts fn to http.HandlerFunc.
func Handle(fn Func) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		Write(w, fn(r))
	}
}

func Text(status int, msg string) Reply { return Reply{Status: status, Body: msg} }

func OK(v any) Reply { return Reply{Status: http.StatusOK, Body: v} }

// NotFound names the entity that could not be found.
func NotFound(entity string) Reply {
	return Text(http.StatusNotFound, "Could not find "+entity)
}

func BadRequest(msg string) Reply { return Text(http.StatusBadRequest, msg) }

// Internal never carries error detail; callers log it.
func Internal() Reply { return Text(http.StatusInternalServerError, MsgDatabaseError) }

// FromError maps a failed store call. A duplicate-key violation becomes 400
// with the duplicate message, which should name the field and its value;
// every other error becomes a generic 500.
func FromError(err error, duplicate string) Reply {
	if duplicate != "" && database.IsUniqueViolation(err) {
		return BadRequest(duplicate)
	}
	return Internal()
}

// FromMutation maps an UPDATE/DELETE outcome. payload is sent on a real change.
func FromMutation(res database.MutationResult, entity string, payload any) Reply {
	switch {
	case res.Affected == 0:
		return NotFound(entity)
	case res.Changed == 0:
		return OK(MsgNoChanges)
	default:
		return OK(payload)
	}
}

// FromRead maps a set-valued lookup: empty is 404, otherwise every row.
func FromRead[T any](res database.ReadResult[T], entity string) Reply {
	if res.Empty() {
		return NotFound(entity)
	}
	return OK(res.Rows)
}

// FromReadOne maps a single-record lookup.
func FromReadOne[T any](res database.ReadResult[T], entity string) Reply {
	if res.Empty() {
		return NotFound(entity)
	}
	return OK(res.First())
}

// Write sends rp. It is the only writer of handler responses.
func Write(w http.ResponseWriter, rp Reply) {
	status := rp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if msg, ok := rp.Body.(string); ok {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(msg))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rp.Body)
}
