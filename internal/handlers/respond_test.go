package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/apperr"
	"neighborhub/internal/middleware"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		query         string
		limit, offset int
	}{
		{"", 20, 0},
		{"?page=3", 20, 40},
		{"?page=2&limit=10", 10, 10},
		{"?limit=500", 100, 0},
		{"?page=-1&limit=abc", 20, 0},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			var limit, offset int
			r := newTestEngine("", "")
			r.GET("/p", func(c *gin.Context) {
				limit, offset = parsePage(c)
				c.Status(http.StatusNoContent)
			})
			perform(r, http.MethodGet, "/p"+tc.query, "")
			assert.Equal(t, tc.limit, limit)
			assert.Equal(t, tc.offset, offset)
		})
	}
}

func TestParamIDRejectsMalformed(t *testing.T) {
	r := newTestEngine("", "")
	r.GET("/x/:id", func(c *gin.Context) {
		if _, ok := paramID(c, "id"); ok {
			c.Status(http.StatusNoContent)
		}
	})

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/x/42", "").Code)
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodGet, "/x/"+testResourceID, "").Code)
}

func TestRespondErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		expose bool
		code   int
		detail bool
	}{
		{apperr.Validation("content is required"), false, http.StatusBadRequest, false},
		{apperr.AccessDenied("nope"), false, http.StatusForbidden, false},
		{apperr.NotFound("user not found"), false, http.StatusNotFound, false},
		{errors.New("db down"), false, http.StatusInternalServerError, false},
		{errors.New("db down"), true, http.StatusInternalServerError, true},
	}

	for _, tc := range cases {
		r := newTestEngine("", "")
		r.Use(middleware.ExposeErrors(tc.expose))
		r.GET("/e", func(c *gin.Context) { respondError(c, "test", tc.err) })

		rec := perform(r, http.MethodGet, "/e", "")
		require.Equal(t, tc.code, rec.Code)
		resp := decodeMap(t, rec)
		_, hasDetail := resp["detail"]
		assert.Equal(t, tc.detail, hasDetail)
		if tc.code == http.StatusInternalServerError {
			assert.Equal(t, "internal error", resp["error"])
		}
	}
}
