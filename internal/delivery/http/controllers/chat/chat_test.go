package chat

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/internal/service/chat"
	"DormBiz/pkg/logger"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChats struct {
	ChatService
	hub    *chat.Hub
	before time.Time
	limit  int
}

func (f *fakeChats) Send(_ context.Context, chatID, senderID uuid.UUID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, app_errors.ErrEmptyMessage
	}
	msg := &models.Message{ID: uuid.New(), ChatID: chatID, SenderID: senderID, Body: body}
	f.hub.Publish([]uuid.UUID{senderID}, chat.Envelope{Type: chat.EnvelopeMessage, Message: msg, ChatID: chatID})
	return msg, nil
}

func (f *fakeChats) Messages(_ context.Context, _, _ uuid.UUID, before time.Time, limit int) ([]models.Message, error) {
	f.before, f.limit = before, limit
	return []models.Message{}, nil
}

func (f *fakeChats) DirectChat(_ context.Context, userID, peerID uuid.UUID) (*models.Chat, error) {
	if userID == peerID {
		return nil, app_errors.ErrChatWithSelf
	}
	return &models.Chat{ID: uuid.New(), Kind: models.ChatKindDirect}, nil
}

var me = uuid.MustParse("c4d2a7e1-9b3f-4f60-8a21-3e5d7c9b1f02")

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T) (*httptest.Server, *fakeChats) {
	t.Helper()
	hub := chat.NewHub(logger.NewDiscard(), 8, time.Second, time.Second)
	svc := &fakeChats{hub: hub}
	h := NewChatHandler(logger.NewDiscard(), svc, hub, []string{"http://campus.test"})

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ClientIDCtx, me) })
	r.GET("/ws", h.Connect)
	r.POST("/chats/direct", h.Direct)
	r.GET("/chats/:chat_id/messages", h.Messages)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func dial(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
}

func TestConnect_RoundTrip(t *testing.T) {
	srv, _ := newServer(t)

	conn, _, err := dial(t, srv, "http://campus.test")
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	chatID := uuid.New()
	require.NoError(t, conn.WriteJSON(map[string]any{"chat_id": chatID, "body": "anyone selling a kettle?"}))

	var got chat.Envelope
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EnvelopeMessage, got.Type)
	require.NotNil(t, got.Message)
	assert.Equal(t, "anyone selling a kettle?", got.Message.Body)
	assert.Equal(t, me, got.Message.SenderID)

	require.NoError(t, conn.WriteJSON(map[string]any{"chat_id": chatID, "body": "   "}))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EnvelopeError, got.Type)
	assert.Equal(t, app_errors.ErrEmptyMessage.Error(), got.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, chat.EnvelopeError, got.Type)
}

func TestConnect_RejectsForeignOrigin(t *testing.T) {
	srv, _ := newServer(t)

	_, resp, err := dial(t, srv, "http://evil.test")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMessages_Cursor(t *testing.T) {
	srv, svc := newServer(t)

	resp, err := http.Get(srv.URL + "/chats/" + uuid.NewString() + "/messages?before=2026-10-15T18:30:00Z&limit=20")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, time.Date(2026, 10, 15, 18, 30, 0, 0, time.UTC), svc.before)
	assert.Equal(t, 20, svc.limit)

	resp, err = http.Get(srv.URL + "/chats/" + uuid.NewString() + "/messages?before=yesterday")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDirect(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/chats/direct", "application/json", strings.NewReader(`{"user_id":"`+me.String()+`"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/chats/direct", "application/json", strings.NewReader(`{"user_id":"`+uuid.NewString()+`"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
