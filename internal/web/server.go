package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pbnadmin/internal/console"
)

type Options struct {
	// ObjectsDir is the root of the local bucket. Empty disables /objects.
	ObjectsDir     string
	MaxUploadBytes int64
}

type Server struct {
	svc    *console.Service
	opts   Options
	router chi.Router
	views  *Templates
	toasts *toastStore
	events *toastHub
}

func NewServer(svc *console.Service, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	s := &Server{
		svc:    svc,
		opts:   opts,
		router: chi.NewRouter(),
		views:  MustParseTemplates(),
		toasts: newToastStore(),
		events: newToastHub(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog)
	r.Use(withSession)

	r.Get("/", s.handleNetwork)
	r.Post("/network", s.handleSaveNetwork)

	r.Route("/offers", func(r chi.Router) {
		r.Get("/", s.handleOffers)
		r.Post("/{idx}", s.handleSaveOffer)
		r.Post("/{idx}/link", s.handleSaveLink)
	})

	r.Route("/blog/{site}", func(r chi.Router) {
		r.Get("/", s.handleEditor)
		r.Post("/", s.handlePublish)
		r.Post("/commit", s.handleCommit)
	})

	r.Route("/products/{layout}", func(r chi.Router) {
		r.Get("/", s.handleProductForm)
		r.Post("/", s.handleSaveProduct)
		r.Post("/preview", s.handleProductPreview)
	})

	r.Get("/events", s.handleEvents)
	r.Post("/toasts/{id}/dismiss", s.handleDismissToast)

	if s.opts.ObjectsDir != "" {
		files := http.StripPrefix("/objects/", http.FileServer(http.Dir(s.opts.ObjectsDir)))
		r.Get("/objects/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("X-Content-Type-Options", "nosniff")
			files.ServeHTTP(w, r)
		})
	}
}
