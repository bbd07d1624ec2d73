package echoapi

import (
	"reflect"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
)

const statusSuccess = "success"

// respond writes {"status":"success","data":{key: v}}. Slices also report their length as "results".
func respond(ctx echo.Context, code int, key string, v interface{}) error {
	body := echo.Map{"status": statusSuccess, "data": echo.Map{key: v}}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice {
		body["results"] = rv.Len()
	}
	return ctx.JSON(code, body)
}

func respondMessage(ctx echo.Context, code int, msg string) error {
	return ctx.JSON(code, echo.Map{"status": statusSuccess, "message": msg})
}

// parseDate accepts RFC 3339 timestamps and plain dates. Empty values yield the zero time.
func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.NewValidationError(errors.New("invalid date"),
		core.FieldError{Field: field, Error: field + " must be a date (YYYY-MM-DD)"})
}
