package reply

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their json name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind decodes the JSON body into dst and validates its `validate` tags.
// Unknown fields are ignored.
func Bind(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("malformed json: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			switch f.Tag() {
			case "required":
				return fmt.Errorf("field '%s' is required", f.Field())
			case "email":
				return fmt.Errorf("field '%s' must be a valid email address", f.Field())
			default:
				return fmt.Errorf("field '%s' failed '%s' validation", f.Field(), f.Tag())
			}
		}
		return err
	}
	return nil
}

// Invalid is the 400 for a body Bind rejected.
func Invalid(err error) Reply {
	return BadRequest("Invalid payload: " + err.Error())
}
