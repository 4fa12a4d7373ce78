package chat

import (
	"DormBiz/internal/delivery/http/controllers"
	"DormBiz/internal/delivery/http/controllers/middleware"
	"DormBiz/internal/models"
	"DormBiz/internal/service/chat"
	"DormBiz/pkg/logger"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendTimeout = 5 * time.Second

type ChatService interface {
	DirectChat(ctx context.Context, userID, peerID uuid.UUID) (*models.Chat, error)
	GroupChat(ctx context.Context, userID uuid.UUID, title string, members []uuid.UUID) (*models.Chat, error)
	Send(ctx context.Context, chatID, senderID uuid.UUID, body string) (*models.Message, error)
	Messages(ctx context.Context, chatID, userID uuid.UUID, before time.Time, limit int) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID, userID uuid.UUID) error
	Chats(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error)
	Participants(ctx context.Context, chatID, userID uuid.UUID) ([]models.ChatParticipant, error)
}

type Hub interface {
	Attach(userID uuid.UUID, conn *websocket.Conn) *chat.Client
}

type ChatHandler struct {
	log      logger.Log
	service  ChatService
	hub      Hub
	upgrader websocket.Upgrader
}

func NewChatHandler(l logger.Log, s ChatService, hub Hub, allowedOrigins []string) *ChatHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &ChatHandler{
		log:     l,
		service: s,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// non-browser clients send no origin
				return origin == "" || allowed[origin]
			},
		},
	}
}

type directChatRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *ChatHandler) Direct(c *gin.Context) {
	var input directChatRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	ch, err := h.service.DirectChat(c.Request.Context(), middleware.ClientID(c), input.UserID)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

type groupChatRequest struct {
	Title   string      `json:"title" binding:"required,max=100"`
	Members []uuid.UUID `json:"members" binding:"required,min=1,max=50"`
}

func (h *ChatHandler) Group(c *gin.Context) {
	var input groupChatRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	ch, err := h.service.GroupChat(c.Request.Context(), middleware.ClientID(c), input.Title, input.Members)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *ChatHandler) List(c *gin.Context) {
	chats, err := h.service.Chats(c.Request.Context(), middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// Messages pages backwards through history: before is an RFC 3339 cursor,
// usually the created_at of the oldest message the client already has.
func (h *ChatHandler) Messages(c *gin.Context) {
	chatID, ok := controllers.ParamUUID(c, "chat_id")
	if !ok {
		return
	}
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			controllers.BadRequest(c, err)
			return
		}
		before = t
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.service.Messages(c.Request.Context(), chatID, middleware.ClientID(c), before, limit)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type sendRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	chatID, ok := controllers.ParamUUID(c, "chat_id")
	if !ok {
		return
	}
	var input sendRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		controllers.BadRequest(c, err)
		return
	}
	msg, err := h.service.Send(c.Request.Context(), chatID, middleware.ClientID(c), input.Body)
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := controllers.ParamUUID(c, "chat_id")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), chatID, middleware.ClientID(c)); err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) Participants(c *gin.Context) {
	chatID, ok := controllers.ParamUUID(c, "chat_id")
	if !ok {
		return
	}
	list, err := h.service.Participants(c.Request.Context(), chatID, middleware.ClientID(c))
	if err != nil {
		controllers.RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type inbound struct {
	ChatID uuid.UUID `json:"chat_id"`
	Body   string    `json:"body"`
}

// Connect upgrades to a websocket. Frames from the client are
// {"chat_id", "body"} and are sent like POST /chats/:id/messages; the
// resulting message reaches every participant through the hub.
func (h *ChatHandler) Connect(c *gin.Context) {
	userID := middleware.ClientID(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already answered
		h.log.Debug("websocket upgrade failed", "error", err.Error())
		return
	}

	client := h.hub.Attach(userID, conn)
	h.log.Debug("websocket connected", "user_id", userID)

	ctx := c.Request.Context()
	client.ReadLoop(func(data []byte) {
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			client.Reply(chat.Envelope{Type: chat.EnvelopeError, Error: "malformed frame"})
			return
		}

		sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		if _, err := h.service.Send(sendCtx, in.ChatID, userID, in.Body); err != nil {
			msg := err.Error()
			if controllers.StatusOf(err) == http.StatusInternalServerError {
				h.log.ErrorErr("websocket send failed", err, "user_id", userID)
				msg = "internal server error"
			}
			client.Reply(chat.Envelope{Type: chat.EnvelopeError, ChatID: in.ChatID, Error: msg})
		}
	})
}
