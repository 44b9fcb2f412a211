package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/middleware"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/authz"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/jwt"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/sse"
)

type EventHandler interface {
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	hub        *sse.Hub
	jwtService jwt.Service
	authorizer *authz.Authorizer
	keepalive  time.Duration
}

func NewEventHandler(hub *sse.Hub, jwtService jwt.Service, authorizer *authz.Authorizer) EventHandler {
	return &eventHandlerImpl{
		hub:        hub,
		jwtService: jwtService,
		authorizer: authorizer,
		keepalive:  30 * time.Second,
	}
}

type sseTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GetSSEToken handles POST /events/token
func (h *eventHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID, middleware.RoleFromContext(r.Context()))
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, sseTokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// topicObject returns the authorization object guarding a topic.
func topicObject(topic string) (string, bool) {
	switch {
	case topic == sse.TopicReports:
		return authz.ObjectReports, true
	case strings.HasPrefix(topic, "agent:") && len(topic) > len("agent:"):
		return authz.ObjectCommissions, true
	default:
		return "", false
	}
}

// Stream handles GET /events?token=&topic=. Events carry no view data; they
// only tell the client which views to refetch.
func (h *eventHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send an Authorization header
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.Unauthorized(w, "Missing token")
		return
	}

	userID, role, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.Unauthorized(w, "Invalid token")
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = sse.TopicReports
	}
	object, ok := topicObject(topic)
	if !ok {
		response.BadRequest(w, "unknown topic", map[string]string{"topic": topic})
		return
	}
	allowed, enforced, err := h.authorizer.Authorize(role, object, authz.ActionRead)
	if err != nil {
		response.InternalServerError(w, "Authorization check failed")
		return
	}
	if !allowed && enforced {
		response.Forbidden(w, "Insufficient permissions")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(topic)
	defer cleanup()

	connected, _ := json.Marshal(map[string]string{"status": "connected", "user_id": userID, "topic": topic})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]interface{}{"topic": event.Topic, "data": event.Data})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
