package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srcds-admin/internal/restriction"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{-1, "permanent"},
		{0, "0s"},
		{45, "45s"},
		{90, "1m 30s"},
		{3600, "1h 0m 0s"},
		{90061, "1d 1h 1m 1s"},
		{604800, "7d 0h 0m 0s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestParseBoolParam(t *testing.T) {
	unset, err := parseBoolParam("")
	require.NoError(t, err)
	assert.Nil(t, unset)

	yes, err := parseBoolParam("true")
	require.NoError(t, err)
	require.NotNil(t, yes)
	assert.True(t, *yes)

	no, err := parseBoolParam("0")
	require.NoError(t, err)
	require.NotNil(t, no)
	assert.False(t, *no)

	_, err = parseBoolParam("maybe")
	assert.Error(t, err)
}

func TestRestrictionErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{restriction.ErrInvalidIdentifier, http.StatusBadRequest},
		{fmt.Errorf("%w: junk", restriction.ErrInvalidIdentifier), http.StatusBadRequest},
		{restriction.ErrAlreadyRestricted, http.StatusConflict},
		{restriction.ErrNotFound, http.StatusNotFound},
		{restriction.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		respondRestrictionError(w, tt.err)
		assert.Equal(t, tt.status, w.Code, "err=%v", tt.err)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}
