package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const eventKeepAlive = 25 * time.Second

// toastHub fans toast events out to the open event streams of a session.
type toastHub struct {
	mu      sync.Mutex
	streams map[string]map[chan Toast]struct{}
}

func newToastHub() *toastHub {
	return &toastHub{streams: make(map[string]map[chan Toast]struct{})}
}

func (h *toastHub) subscribe(key string) chan Toast {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Toast, 8)
	if h.streams[key] == nil {
		h.streams[key] = make(map[chan Toast]struct{})
	}
	h.streams[key][ch] = struct{}{}
	return ch
}

func (h *toastHub) unsubscribe(key string, ch chan Toast) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if chans, ok := h.streams[key]; ok {
		delete(chans, ch)
		if len(chans) == 0 {
			delete(h.streams, key)
		}
	}
	close(ch)
}

// publish never blocks; a stream whose buffer is full misses the event and
// picks the toast up on its next page load.
func (h *toastHub) publish(key string, toast Toast) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.streams[key] {
		select {
		case ch <- toast:
		default:
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	key := toastKey(r)
	if key == "" {
		http.Error(w, "no session", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := s.events.subscribe(key)
	defer s.events.unsubscribe(key, ch)

	fmt.Fprint(w, "event: ready\ndata: ok\n\n")
	flusher.Flush()

	ticker := time.NewTicker(eventKeepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case toast := <-ch:
			payload, err := json.Marshal(toastEvent{
				ID:       toast.ID,
				Title:    toast.Title,
				Message:  toast.Message,
				Kind:     toast.Kind,
				Duration: toast.DurationSeconds,
			})
			if err != nil {
				slog.Warn("encode toast event", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: toast\ndata: %s\n\n", payload)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

type toastEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Kind     string `json:"kind"`
	Duration int    `json:"duration"`
}
