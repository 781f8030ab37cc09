package web

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"pbnadmin/internal/console"
)

const (
	toastSuccess     = "success"
	toastDestructive = "destructive"

	toastSeconds = 8
)

type Toast struct {
	ID              string
	Title           string
	Message         string
	Kind            string
	DurationSeconds int
	CreatedAt       time.Time
}

type toastStore struct {
	mu        sync.Mutex
	bySession map[string][]Toast
}

func newToastStore() *toastStore {
	return &toastStore{bySession: make(map[string][]Toast)}
}

func (s *toastStore) Add(key string, toast Toast) {
	if key == "" {
		return
	}
	if toast.ID == "" {
		toast.ID = uuid.NewString()
	}
	if toast.CreatedAt.IsZero() {
		toast.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bySession[key] = append(s.bySession[key], toast)
}

// List returns the unexpired toasts of a session and drops the expired ones.
func (s *toastStore) List(key string) []Toast {
	if key == "" {
		return nil
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	toasts := s.bySession[key]
	if len(toasts) == 0 {
		return nil
	}
	active := toasts[:0]
	for _, toast := range toasts {
		if toast.DurationSeconds > 0 {
			exp := toast.CreatedAt.Add(time.Duration(toast.DurationSeconds) * time.Second)
			if now.After(exp) {
				continue
			}
		}
		active = append(active, toast)
	}
	if len(active) == 0 {
		delete(s.bySession, key)
		return nil
	}
	out := make([]Toast, len(active))
	copy(out, active)
	s.bySession[key] = active
	return out
}

func (s *toastStore) Remove(key, id string) {
	if key == "" || id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	toasts := s.bySession[key]
	next := toasts[:0]
	for _, toast := range toasts {
		if toast.ID != id {
			next = append(next, toast)
		}
	}
	if len(next) == 0 {
		delete(s.bySession, key)
		return
	}
	s.bySession[key] = next
}

func toastKey(r *http.Request) string {
	if id, ok := SessionID(r.Context()); ok {
		return "session:" + id
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return "session:" + cookie.Value
	}
	return ""
}

func (s *Server) addToast(r *http.Request, toast Toast) {
	if toast.DurationSeconds == 0 {
		toast.DurationSeconds = toastSeconds
	}
	if toast.ID == "" {
		toast.ID = uuid.NewString()
	}
	if toast.CreatedAt.IsZero() {
		toast.CreatedAt = time.Now()
	}
	key := toastKey(r)
	s.toasts.Add(key, toast)
	s.events.publish(key, toast)
}

func (s *Server) toastSuccess(r *http.Request, title, message string) {
	s.addToast(r, Toast{Title: title, Message: message, Kind: toastSuccess})
}

// toastError reports err to the operator. Validation failures carry their
// own title; store failures use title and the store's message as is.
func (s *Server) toastError(r *http.Request, title string, err error) int {
	var ve *console.ValidationError
	if errors.As(err, &ve) {
		s.addToast(r, Toast{Title: ve.Title, Message: ve.Message, Kind: toastDestructive})
		return http.StatusUnprocessableEntity
	}
	slog.Warn("store call failed", "action", title, "path", r.URL.Path, "err", err)
	s.addToast(r, Toast{Title: title, Message: err.Error(), Kind: toastDestructive})
	return http.StatusBadGateway
}

func (s *Server) handleDismissToast(w http.ResponseWriter, r *http.Request) {
	s.toasts.Remove(toastKey(r), chiParam(r, "id"))
	if r.Header.Get("HX-Request") == "true" || r.Header.Get("Accept") == "application/json" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
}
