package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/middleware"
)

const (
	testUserID         = "7d7c3a52-2b9e-4a38-9f0e-1c1f5e0d0a01"
	testOtherUserID    = "7d7c3a52-2b9e-4a38-9f0e-1c1f5e0d0a02"
	testNeighborhoodID = "a3f1b2c4-5d6e-4f70-8a91-b2c3d4e5f601"
	testOtherHoodID    = "a3f1b2c4-5d6e-4f70-8a91-b2c3d4e5f602"
	testResourceID     = "c0ffee00-1234-4abc-9def-000000000001"
)

func newTestEngine(userID, neighborhoodID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	_ = RegisterValidators()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
			c.Set(middleware.NeighborhoodIDKey, neighborhoodID)
		}
		c.Next()
	})
	return r
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}
