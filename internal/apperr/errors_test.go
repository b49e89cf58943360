package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("content is required"), http.StatusBadRequest},
		{fmt.Errorf("verify: %w", ErrUnauthenticated), http.StatusUnauthorized},
		{AccessDenied("not a participant"), http.StatusForbidden},
		{NotFound("recipient %s", "abc"), http.StatusNotFound},
		{Conflict("email taken"), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestWrappedKindSurvivesFurtherWrapping(t *testing.T) {
	err := fmt.Errorf("send message: %w", NotFound("recipient not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, IsUnexpected(err))
	assert.True(t, IsUnexpected(errors.New("boom")))
	assert.Equal(t, "not found: recipient not found", errors.Unwrap(err).Error())
}
