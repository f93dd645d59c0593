package reply

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

func TestFromMutation(t *testing.T) {
	payload := map[string]string{"name": "Greek"}
	tests := []struct {
		name   string
		res    database.MutationResult
		status int
		body   any
	}{
		{"no row matched", database.MutationResult{}, http.StatusNotFound, "Could not find language"},
		{"matched but unchanged", database.MutationResult{Affected: 1}, http.StatusOK, MsgNoChanges},
		{"changed", database.MutationResult{Affected: 1, Changed: 1}, http.StatusOK, payload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := FromMutation(tt.res, "language", payload)
			assert.Equal(t, tt.status, rp.Status)
			assert.Equal(t, tt.body, rp.Body)
		})
	}
}

func TestFromError(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})

	rp := FromError(dup, "Language with isoCode en already exists")
	assert.Equal(t, http.StatusBadRequest, rp.Status)
	assert.Equal(t, "Language with isoCode en already exists", rp.Body)

	rp = FromError(dup, "")
	assert.Equal(t, http.StatusInternalServerError, rp.Status)

	rp = FromError(errors.New("conn refused"), "dup")
	assert.Equal(t, http.StatusInternalServerError, rp.Status)
	assert.Equal(t, MsgDatabaseError, rp.Body)
}

func TestFromRead(t *testing.T) {
	rp := FromRead(database.ReadResult[int]{}, "countries")
	assert.Equal(t, http.StatusNotFound, rp.Status)
	assert.Equal(t, "Could not find countries", rp.Body)

	rp = FromRead(database.Rows([]int{1, 2}), "countries")
	assert.Equal(t, http.StatusOK, rp.Status)
	assert.Equal(t, []int{1, 2}, rp.Body)

	rp = FromReadOne(database.Rows([]int{7, 8}), "user")
	assert.Equal(t, 7, rp.Body)
}

func TestWrite(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		w := httptest.NewRecorder()
		Write(w, NotFound("user"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "Could not find user", w.Body.String())
	})

	t.Run("json", func(t *testing.T) {
		w := httptest.NewRecorder()
		Write(w, OK(database.MutationResult{Affected: 1, Changed: 1}))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"affectedRows":1,"changedRows":1}`, w.Body.String())
	})

	t.Run("zero status is 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		Write(w, Reply{Body: "ok"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandle(t *testing.T) {
	h := Handle(func(r *http.Request) Reply { return BadRequest("nope") })
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "nope", w.Body.String())
}
