package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skladhub/sklad-backend/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": "admin",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newChannelServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(time.Second)

	r := gin.New()
	r.GET("/api/v1/realtime", Handler(hub, testSecret, 30*time.Second))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/realtime"
}

func TestHandshakeRefusedWithoutCredential(t *testing.T) {
	hub, srv := newChannelServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/realtime")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.Len())
}

func TestHandshakeRefusedWithExpiredCredential(t *testing.T) {
	hub, srv := newChannelServer(t)
	expired := signToken(t, -time.Hour)

	//nolint:bodyclose // Dial returns the handshake response
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+expired, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, hub.Len())
}

func TestSubscriberReceivesPublishedEvents(t *testing.T) {
	hub, srv := newChannelServer(t)
	token := signToken(t, time.Hour)

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+token, nil)
	require.NoError(t, err)
	defer client.Close()

	waitFor(t, func() bool { return hub.Len() == 1 })

	ev := model.NewChangeEvent(model.KindPart, 42, model.OpUpdated)
	hub.Publish(ev)

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got model.ChangeEvent
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, model.KindPart, got.EntityKind)
	assert.Equal(t, int64(42), got.EntityID)
	assert.Equal(t, model.OpUpdated, got.Operation)
}

func TestDisconnectUnsubscribesExactlyOnce(t *testing.T) {
	hub, srv := newChannelServer(t)
	token := signToken(t, time.Hour)

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?token="+token, nil)
	require.NoError(t, err)

	waitFor(t, func() bool { return hub.Len() == 1 })

	// Abrupt close, no close frame: the endpoint must still unregister.
	require.NoError(t, client.Close())
	waitFor(t, func() bool { return hub.Len() == 0 })

	// A publish after the disconnect must not panic or block.
	hub.Publish(model.NewChangeEvent(model.KindTask, 1, model.OpDeleted))
	assert.Equal(t, 0, hub.Len())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
