package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettingsDefaults(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp settingsResponse
	decodeJSON(t, w, &resp)
	require.Empty(t, resp.LibraryRoot)
	require.Equal(t, "ask", resp.ResumeMode)
	require.False(t, resp.NotifyURLSet)
}

func TestSettingsUpdateRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/settings", map[string]string{
		"libraryRoot": "/mnt/movies",
		"resumeMode":  "always",
		"notifyUrl":   "discord://token@channel",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp settingsResponse
	decodeJSON(t, w, &resp)
	require.Equal(t, "/mnt/movies", resp.LibraryRoot)
	require.Equal(t, "always", resp.ResumeMode)
	require.True(t, resp.NotifyURLSet)

	// The raw notification URL must never be echoed back
	require.NotContains(t, w.Body.String(), "discord://token@channel")
}

func TestSettingsPartialUpdateKeepsOtherValues(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/settings", map[string]string{"libraryRoot": "/mnt/movies"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPut, "/api/settings", map[string]string{"resumeMode": "never"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp settingsResponse
	decodeJSON(t, w, &resp)
	require.Equal(t, "/mnt/movies", resp.LibraryRoot)
	require.Equal(t, "never", resp.ResumeMode)
}

func TestSettingsRejectsInvalidResumeMode(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/settings", map[string]string{"resumeMode": "sometimes"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEmptyNotifyURLDisables(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPut, "/api/settings", map[string]string{"notifyUrl": "discord://token@channel"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPut, "/api/settings", map[string]string{"notifyUrl": ""})
	require.Equal(t, http.StatusOK, w.Code)

	var resp settingsResponse
	decodeJSON(t, w, &resp)
	require.False(t, resp.NotifyURLSet)
}
