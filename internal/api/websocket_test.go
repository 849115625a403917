package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/maszaen/reelhouse/internal/testutil"
)

// newHubServer builds the hub after the test has set its environment, so the
// origin policy reflects the current REELHOUSE_CORS_ORIGIN value.
func newHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewWebSocketHub(testutil.NewMockPublisher())
	router := gin.New()
	router.GET("/ws", hub.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func wsAddr(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWebSocketOriginAllowList(t *testing.T) {
	t.Setenv("REELHOUSE_CORS_ORIGIN", "http://allowed.example")
	srv := newHubServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsAddr(srv), http.Header{"Origin": {"http://other.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(wsAddr(srv), http.Header{"Origin": {"http://allowed.example"}})
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}

func TestWebSocketWildcardAllowsAnyOrigin(t *testing.T) {
	t.Setenv("REELHOUSE_CORS_ORIGIN", "*")
	srv := newHubServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(wsAddr(srv), http.Header{"Origin": {"http://anywhere.example"}})
	require.NoError(t, err)
	resp.Body.Close()
	conn.Close()
}
