package handler

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// RequestTimeout bounds the store calls made by a single handler.
var RequestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), RequestTimeout)
}

func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name))); err == nil {
		return n
	}
	return def
}

// flexTime accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
type flexTime struct{ time.Time }

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if v, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = v.UTC()
		return nil
	}
	v, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
