package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/soberano/soberano/internal/adapter/http/templates"
	"github.com/soberano/soberano/internal/service"
)

// Subscriber is the part of the event bus the streams need.
type Subscriber interface {
	Subscribe(topic string) chan service.Event
	Unsubscribe(topic string, ch chan service.Event)
}

type SSEHandler struct {
	events   Subscriber
	handlers *Handlers
}

func NewSSEHandler(events Subscriber, handlers *Handlers) *SSEHandler {
	return &SSEHandler{events: events, handlers: handlers}
}

// streamState remembers the last fragment sent per event name.
type streamState map[string]string

func renderHTML(c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// send renders a fragment and writes it unless it matches what the client
// already has.
func (h *SSEHandler) send(w http.ResponseWriter, state streamState, name string, c templ.Component) error {
	html, err := renderHTML(c)
	if err != nil {
		return err
	}
	if prev, ok := state[name]; ok && prev == html {
		return nil
	}
	state[name] = html
	sseWrite(w, name, html)
	return nil
}

func (h *SSEHandler) sendQueue(w http.ResponseWriter, state streamState) error {
	rows, stats := h.handlers.rows()
	return h.send(w, state, service.TopicQueue, templates.QueueTable(rows, stats))
}

func (h *SSEHandler) sendEngine(w http.ResponseWriter, state streamState) error {
	return h.send(w, state, service.TopicEngine, templates.EnginePanel(h.handlers.engine.Status()))
}

// Events streams re-rendered queue and engine fragments whenever either
// changes.
func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		queueCh := h.events.Subscribe(service.TopicQueue)
		defer h.events.Unsubscribe(service.TopicQueue, queueCh)
		engineCh := h.events.Subscribe(service.TopicEngine)
		defer h.events.Unsubscribe(service.TopicEngine, engineCh)

		state := streamState{}
		_ = h.sendQueue(w, state)
		_ = h.sendEngine(w, state)

		ctx := r.Context()
		keepAlive := time.NewTicker(15 * time.Second)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case _, ok := <-queueCh:
				if !ok {
					return
				}
				_ = h.sendQueue(w, state)
			case _, ok := <-engineCh:
				if !ok {
					return
				}
				_ = h.sendEngine(w, state)
			}
		}
	}
}
