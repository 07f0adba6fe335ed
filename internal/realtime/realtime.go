// Package realtime serves the WebSocket endpoints: echo, greeting, clock,
// the Redis-backed chat room and streaming face detection.
package realtime

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillhq/quill/internal/broadcast"
	"github.com/quillhq/quill/internal/metrics"
	"github.com/quillhq/quill/internal/vision"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// maxTextMessage caps text frames on the echo and chat sockets.
	maxTextMessage = 64 << 10

	// maxImageFrame caps binary frames on the face-detection socket.
	maxImageFrame = 8 << 20

	// TokenCookieName is the cookie checked by the greeting socket.
	TokenCookieName = "token"

	// DefaultUsername is used when the username query parameter is absent.
	DefaultUsername = "Anonymous"
)

// Config wires the realtime endpoints.
type Config struct {
	Logger         *slog.Logger
	Recorder       metrics.Recorder
	AllowedOrigins []string

	// APIToken is compared with the token cookie on /ws/greet.
	APIToken string

	ClockInterval time.Duration

	Broker    *broadcast.Broker
	ChatRate  float64
	ChatBurst int

	Detector      vision.Detector
	FaceQueueSize int
}

// Server holds the upgrader and dependencies shared by all sockets.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	recorder metrics.Recorder
	upgrader websocket.Upgrader
	now      func() time.Time
}

// New creates a Server. Zero values in cfg fall back to sane defaults.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewNoop()
	}
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = 10 * time.Second
	}
	if cfg.ChatRate <= 0 {
		cfg.ChatRate = 5
	}
	if cfg.ChatBurst <= 0 {
		cfg.ChatBurst = 10
	}
	if cfg.FaceQueueSize <= 0 {
		cfg.FaceQueueSize = 10
	}

	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "realtime"),
		recorder: cfg.Recorder,
		now:      time.Now,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts same-host requests, requests without an Origin
// header and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// upgrade switches the request to a WebSocket and tracks it in the
// connection gauge until release is called.
func (s *Server) upgrade(w http.ResponseWriter, r *http.Request, readLimit int64) (*conn, error) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		s.logger.Debug("websocket upgrade failed", "path", r.URL.Path, "error", err)
		return nil, err
	}
	ws.SetReadLimit(readLimit)
	s.recorder.AddActiveConnections(1)
	return &conn{ws: ws, release: func() { s.recorder.AddActiveConnections(-1) }}, nil
}

// conn serialises writes; gorilla/websocket allows one concurrent writer.
type conn struct {
	ws      *websocket.Conn
	mu      sync.Mutex
	once    sync.Once
	release func()
}

func (c *conn) writeText(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (c *conn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.writeText(string(data))
}

// closeWith sends a close frame with code and closes the connection.
func (c *conn) closeWith(code int, reason string) {
	c.mu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	c.mu.Unlock()
	c.close()
}

func (c *conn) close() {
	c.once.Do(func() {
		_ = c.ws.Close()
		c.release()
	})
}

// readText returns the next data frame as a string.
func (c *conn) readText() (string, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// logClose records why a read loop ended. Normal closes log at debug.
func (s *Server) logClose(endpoint string, err error) {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		s.logger.Debug("websocket closed", "endpoint", endpoint)
		return
	}
	if websocket.IsUnexpectedCloseError(err) {
		s.logger.Info("websocket closed unexpectedly", "endpoint", endpoint, "error", err)
		return
	}
	s.logger.Debug("websocket read ended", "endpoint", endpoint, "error", err)
}

func usernameParam(r *http.Request) string {
	if name := r.URL.Query().Get("username"); name != "" {
		return name
	}
	return DefaultUsername
}

func tokenMatches(got, want string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
