package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"

	"github.com/go-chi/chi/v5"
)

const StreamPath = "/stream/events"

// DefaultKeepAlive keeps idle streams alive through proxies.
const DefaultKeepAlive = 15 * time.Second

// ChangeEmitter fans event changes out to connected admin pages.
type ChangeEmitter struct {
	mu      sync.RWMutex
	clients []chan models.EventChange
}

func NewChangeEmitter() *ChangeEmitter {
	return &ChangeEmitter{}
}

// Subscribe registers a client until ctx is done, then closes its channel.
func (e *ChangeEmitter) Subscribe(ctx context.Context) <-chan models.EventChange {
	ch := make(chan models.EventChange, 10)

	e.mu.Lock()
	e.clients = append(e.clients, ch)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(ch)
	}()
	return ch
}

// Emit never blocks; a client with a full buffer misses the change.
func (e *ChangeEmitter) Emit(change models.EventChange) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, ch := range e.clients {
		select {
		case ch <- change:
		default:
		}
	}
}

// PublishEventChange lets the emitter sit beside the Kafka producer as a change publisher.
func (e *ChangeEmitter) PublishEventChange(ctx context.Context, change models.EventChange) error {
	e.Emit(change)
	return nil
}

func (e *ChangeEmitter) ClientCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients)
}

func (e *ChangeEmitter) remove(ch chan models.EventChange) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, c := range e.clients {
		if c == ch {
			e.clients = append(e.clients[:i], e.clients[i+1:]...)
			close(ch)
			return
		}
	}
}

type Handler struct {
	Emitter *ChangeEmitter
	Logger  *logger.Logger
	// KeepAlive is the comment interval on idle streams. Zero disables it.
	KeepAlive time.Duration
}

func NewHandler(emitter *ChangeEmitter, log *logger.Logger) *Handler {
	return &Handler{Emitter: emitter, Logger: log, KeepAlive: DefaultKeepAlive}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get(StreamPath, h.Stream)
}

// Stream sends one "change" event per mutation until the client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	// the server WriteTimeout would otherwise cut the stream
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Warn("SSE", fmt.Sprintf("Failed to clear write deadline: %v", err))
	}
	setupSSEHeaders(w)

	ctx := r.Context()
	changes := h.Emitter.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Debug("SSE", fmt.Sprintf("Client connected to calendar changes (%d open)", h.Emitter.ClientCount()))

	var keepAlive <-chan time.Time
	if h.KeepAlive > 0 {
		ticker := time.NewTicker(h.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-keepAlive:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case change, ok := <-changes:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize change: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", "Client disconnected from calendar changes")
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
