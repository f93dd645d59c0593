package reply

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Key is a path segment that addresses a record either by numeric id or by
// a natural code (iso code, email). Exactly one of ID / Code is set.
type Key struct {
	ID   int64
	Code string
}

// IsID reports whether the key is the numeric variant.
func (k Key) IsID() bool { return k.Code == "" }

func (k Key) String() string {
	if k.IsID() {
		return strconv.FormatInt(k.ID, 10)
	}
	return k.Code
}

// PathParam returns the chi URL parameter name percent-decoded. chi matches
// on the escaped path when one exists, so "a%40b.com" arrives undecoded.
func PathParam(r *http.Request, name string) (string, error) {
	return url.PathUnescape(chi.URLParam(r, name))
}

// ParseKey classifies seg by shape: all digits is an id, anything else a code.
func ParseKey(seg string) (Key, bool) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return Key{}, false
	}
	if isDigits(seg) {
		id, err := strconv.ParseInt(seg, 10, 64)
		if err != nil || id <= 0 {
			return Key{}, false
		}
		return Key{ID: id}, true
	}
	return Key{Code: seg}, true
}

// ParseID accepts only the numeric variant.
func ParseID(seg string) (int64, bool) {
	k, ok := ParseKey(seg)
	if !ok || !k.IsID() {
		return 0, false
	}
	return k.ID, true
}

// IsAlpha reports whether s is non-empty and only ASCII letters.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
