package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-persona-chat/backend/internal/models"
	"ai-persona-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(logger.New(logger.Config{Level: "error"}))
	go hub.Run()

	engine := gin.New()
	engine.GET("/ws", hub.HandleConnection)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, personaID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?persona_id=" + personaID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestConnectionRequiresPersonaID(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMessageAppendedReachesSubscriber(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "p1")

	// Registration goes through the hub's run loop.
	time.Sleep(20 * time.Millisecond)

	hub.MessageAppended("p1", models.Message{ID: "m1", Role: models.RoleModel, Text: "hello"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "message", event.Type)
	assert.Equal(t, "p1", event.PersonaID)
	assert.Equal(t, "hello", event.Message.Text)
}

func TestEventsAreScopedToPersona(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv, "p1")

	time.Sleep(20 * time.Millisecond)

	hub.MessageAppended("p2", models.Message{ID: "m1", Role: models.RoleModel, Text: "not for you"})
	hub.MessageAppended("p1", models.Message{ID: "m2", Role: models.RoleModel, Text: "for you"})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, "for you", event.Message.Text)
}
