// Package server is the HTTP ingress for the messaging platform's
// webhooks. It parses event and interaction payloads into typed events
// and hands them to the event bus; request/reply interactions (options
// requests, view submissions) are answered synchronously from the
// first router reply.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/gin-gonic/gin"
)

// replyTimeout bounds how long a synchronous interaction waits for a
// router reply. The platform gives webhooks three seconds; leave some
// headroom for the response itself.
const replyTimeout = 2500 * time.Millisecond

// Publisher is the bus-facing side the ingress needs.
type Publisher interface {
	PublishEvent(ctx context.Context, ev *chat.Event) error
	RequestEvent(ctx context.Context, ev *chat.Event, timeout time.Duration) ([]byte, error)
}

// Server hosts the webhook endpoints.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	publisher  Publisher
}

// New creates a server publishing parsed events through pub.
func New(port int, pub Publisher) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:    engine,
		publisher: pub,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      engine,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}

	engine.POST("/slack/events", s.handleEvents)
	engine.POST("/slack/actions", s.handleActions)

	return s
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	logger.Info("Webhook ingress listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleEvents handles the events webhook: the URL verification
// handshake and message events. Signature verification is out of
// scope here.
func (s *Server) handleEvents(c *gin.Context) {
	var envelope eventEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		logger.Warn("Rejecting malformed event payload: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if envelope.Type == "url_verification" {
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
		return
	}

	ev := envelope.toEvent()
	if ev == nil {
		// Unhandled event type; acknowledge and drop
		c.Status(http.StatusOK)
		return
	}

	if err := s.publisher.PublishEvent(c.Request.Context(), ev); err != nil {
		logger.Error("Failed to publish %s event: %v", ev.Kind, err)
	}
	c.Status(http.StatusOK)
}

// handleActions handles the interactivity webhook: block actions,
// view submissions and options requests arrive as a form-encoded
// "payload" field.
func (s *Server) handleActions(c *gin.Context) {
	raw := c.PostForm("payload")
	if raw == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	ev, err := parseInteraction([]byte(raw))
	if err != nil {
		logger.Warn("Rejecting malformed interaction payload: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}
	if ev == nil {
		c.Status(http.StatusOK)
		return
	}

	switch ev.Kind {
	case chat.KindBlockAction:
		if err := s.publisher.PublishEvent(c.Request.Context(), ev); err != nil {
			logger.Error("Failed to publish %s event: %v", ev.Kind, err)
		}
		c.Status(http.StatusOK)

	case chat.KindViewSubmission, chat.KindOptionsRequest:
		reply, err := s.publisher.RequestEvent(c.Request.Context(), ev, replyTimeout)
		if err != nil {
			logger.Error("Failed to request reply for %s event: %v", ev.Kind, err)
			c.Status(http.StatusOK)
			return
		}
		if reply == nil {
			c.Status(http.StatusOK)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", reply)

	default:
		c.Status(http.StatusOK)
	}
}
