package realtime

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Echo handles /ws/echo.
func (s *Server) Echo(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrade(w, r, maxTextMessage)
	if err != nil {
		return
	}
	defer c.close()

	s.echoLoop(c, "echo")
}

func (s *Server) echoLoop(c *conn, endpoint string) {
	for {
		text, err := c.readText()
		if err != nil {
			s.logClose(endpoint, err)
			return
		}
		if err := c.writeText(echoReply(text)); err != nil {
			return
		}
	}
}

func echoReply(text string) string {
	return fmt.Sprintf("Message text was: %s", text)
}

// Greet handles /ws/greet. The token cookie must equal the static API token.
func (s *Server) Greet(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		token = cookie.Value
	}

	c, err := s.upgrade(w, r, maxTextMessage)
	if err != nil {
		return
	}

	if !tokenMatches(token, s.cfg.APIToken) {
		s.logger.Warn("websocket greeting rejected", "remote_addr", r.RemoteAddr)
		c.closeWith(websocket.ClosePolicyViolation, "")
		return
	}
	defer c.close()

	if err := c.writeText(fmt.Sprintf("Hello, %s!", usernameParam(r))); err != nil {
		return
	}
	s.echoLoop(c, "greet")
}

// Clock handles /ws/clock: an echo socket that also pushes the current
// UTC time every ClockInterval.
func (s *Server) Clock(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrade(w, r, maxTextMessage)
	if err != nil {
		return
	}
	defer c.close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.echoLoop(c, "clock")
	}()

	ticker := time.NewTicker(s.cfg.ClockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.writeText(clockMessage(s.now())); err != nil {
				return
			}
		}
	}
}

func clockMessage(t time.Time) string {
	return "It is: " + t.UTC().Format(time.RFC3339)
}
