package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("project not found"), http.StatusNotFound},
		{Forbidden(""), http.StatusForbidden},
		{Unauthorized(""), http.StatusUnauthorized},
		{Conflict("slug already in use"), http.StatusConflict},
		{BadRequest(""), http.StatusBadRequest},
		{TooMany(""), http.StatusTooManyRequests},
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("looking up project: %w", ErrNotFound), http.StatusNotFound},
		{errors.New("pgx: broken pipe"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), "%v", tc.err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := NotFound("version not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "version not found", err.Error())

	// message falls back to the sentinel
	assert.Equal(t, "resource conflict", Conflict("").Error())
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("domain error passes its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		WriteError(c, NotFound("project not found"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"ok": false, "error": "project not found"}`, w.Body.String())
	})

	t.Run("internal errors are masked", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		WriteError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"ok": false, "error": "internal error"}`, w.Body.String())
		assert.Len(t, c.Errors, 1)
	})
}
