package realtime

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/inkwell-app/backend/internal/auth"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/metrics"
	"go.uber.org/zap"
)

// RateLimitConfig defines per-client message rate limiting parameters
type RateLimitConfig struct {
	MaxMessagesPerSecond int
	BurstSize            int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxMessagesPerSecond: 10,
		BurstSize:            20,
	}
}

// Handler handles socket upgrade requests and owns the presence directory.
type Handler struct {
	directory   *Directory
	authService *auth.Service
	rateLimit   RateLimitConfig

	// All accepted clients, registered or not; Shutdown closes them
	mu      sync.Mutex
	clients map[*Client]struct{}
}

// NewHandler creates a new socket handler around a presence directory
func NewHandler(directory *Directory, authService *auth.Service) *Handler {
	return &Handler{
		directory:   directory,
		authService: authService,
		rateLimit:   DefaultRateLimitConfig(),
		clients:     make(map[*Client]struct{}),
	}
}

func (h *Handler) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Handler) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Directory returns the presence directory for external access
func (h *Handler) Directory() *Directory {
	return h.directory
}

// RateLimitConfig returns the per-client rate limit configuration
func (h *Handler) RateLimitConfig() RateLimitConfig {
	return h.rateLimit
}

// HandleConnection handles socket upgrade requests.
// Authentication is via JWT token in query param ?token=... or the
// Authorization header. The connection does not enter the presence
// directory until the client sends a register message.
func (h *Handler) HandleConnection(c *gin.Context) {
	user, err := h.authenticateRequest(c)
	if err != nil {
		logger.Log.Warn("Socket auth failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "authentication_failed",
			"message": err.Error(),
		})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // TODO: restrict origins once the web client domain is fixed
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.Log.Warn("Socket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(h, conn, user.ID, user.Username)
	client.RemoteAddr = c.ClientIP()

	h.addClient(client)
	defer h.removeClient(client)

	m := metrics.Get()
	m.SocketConnectionsTotal.Inc()
	m.SocketConnectionsActive.Inc()
	defer m.SocketConnectionsActive.Dec()

	client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "connected",
		Message: "Welcome to Inkwell!",
		Data: map[string]interface{}{
			"user_id":       user.ID,
			"username":      user.Username,
			"connection_id": client.ID(),
			"server_time":   time.Now().UTC().UnixMilli(),
		},
	}))

	logger.Log.Info("Client connected",
		zap.String("user", user.ID),
		zap.String("connection", client.ID()))

	go client.WritePump()
	client.ReadPump() // blocks until the connection terminates

	logger.Log.Info("Client disconnected",
		zap.String("user", user.ID),
		zap.String("connection", client.ID()))
}

// handleMessage routes incoming client messages
func (h *Handler) handleMessage(c *Client, message *Message) {
	if message.Timestamp.IsZero() {
		message.Timestamp = FlexibleTime{Time: time.Now().UTC()}
	}

	switch message.Type {
	case MessageTypePing, "heartbeat": // "heartbeat" is an alias for ping
		h.handlePing(c, message)

	case MessageTypeRegister:
		h.handleRegister(c, message)

	default:
		logger.Log.Warn("Unknown message type",
			zap.String("user", c.UserID),
			zap.String("type", message.Type))
		c.SendError("unknown_type", "Unknown message type: "+message.Type)
	}
}

// handlePing responds to ping messages with pong
func (h *Handler) handlePing(c *Client, message *Message) {
	var ping PingPayload
	if err := message.ParsePayload(&ping); err != nil {
		ping.ClientTime = 0
	}

	pong := NewMessage(MessageTypePong, PongPayload{
		ClientTime: ping.ClientTime,
		ServerTime: time.Now().UnixMilli(),
	})
	if message.ID != "" {
		pong.ReplyTo = message.ID
	}

	// Best-effort; connection may be closing
	_ = c.Send(pong)
}

// handleRegister enters the client into the presence directory.
// The registered identity always comes from the authenticated token; a
// userId in the payload is only accepted when it matches, so one user
// cannot claim another's notifications.
func (h *Handler) handleRegister(c *Client, message *Message) {
	var reg RegisterPayload
	if err := message.ParsePayload(&reg); err != nil {
		c.SendError("invalid_payload", "Failed to parse register payload")
		return
	}

	if reg.UserID != "" && reg.UserID != c.UserID {
		logger.Log.Warn("Register identity mismatch",
			zap.String("token_user", c.UserID),
			zap.String("claimed_user", reg.UserID))
		c.SendError("identity_mismatch", "Registered identity must match the authenticated user")
		return
	}

	h.directory.Register(c.UserID, c)

	_ = c.Send(NewMessage(MessageTypeRegistered, RegisteredPayload{
		UserID:       c.UserID,
		ConnectionID: c.ID(),
	}))
}

// authenticateRequest extracts and validates the JWT token from the request
func (h *Handler) authenticateRequest(c *gin.Context) (*authUser, error) {
	tokenString := c.Query("token")

	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimPrefix(header, "Bearer ")
		} else {
			tokenString = header
		}
	}

	if tokenString == "" {
		return nil, errNoToken
	}

	user, err := h.authService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &authUser{ID: user.ID, Username: user.Username}, nil
}

// authUser is the slice of the user record the transport needs
type authUser struct {
	ID       string
	Username string
}

var errNoToken = &noTokenError{}

type noTokenError struct{}

func (*noTokenError) Error() string { return "no authentication token provided" }

// HandleOnlineStatus checks if specific users are online
// POST /api/v1/ws/online
func (h *Handler) HandleOnlineStatus(c *gin.Context) {
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	statuses := make(map[string]bool)
	for _, userID := range req.UserIDs {
		statuses[userID] = h.directory.Online(userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses":  statuses,
		"timestamp": time.Now().UTC(),
	})
}

// HandleStats returns presence statistics (for monitoring)
// GET /api/v1/ws/stats
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"online_count": h.directory.Len(),
		"online_users": h.directory.OnlineUsers(),
		"timestamp":    time.Now().UTC(),
	})
}

// Shutdown clears the presence directory and closes every accepted
// client, registered or not. Without this, hijacked socket connections
// outlive http.Server.Shutdown and the drain window runs out.
func (h *Handler) Shutdown() {
	h.directory.Clear()

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	goodbye := NewMessage(MessageTypeSystem, SystemPayload{
		Event:   "shutdown",
		Message: "Server shutting down",
	})

	for _, c := range clients {
		_ = c.Send(goodbye) // best-effort; the write pump flushes what it can
		c.Close()
	}

	if len(clients) > 0 {
		logger.Log.Info("Closed socket clients for shutdown", zap.Int("count", len(clients)))
	}
}
