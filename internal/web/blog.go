package web

import (
	"html/template"
	"io"
	"mime"
	"net/http"

	"pbnadmin/internal/config"
	"pbnadmin/internal/console"
)

const maxCommitBytes = 4 << 20

func (s *Server) site(w http.ResponseWriter, r *http.Request) (config.Site, bool) {
	site, ok := s.svc.Catalog().Site(chiParam(r, "site"))
	if !ok {
		http.Error(w, "Invalid blog type", http.StatusNotFound)
	}
	return site, ok
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	site, ok := s.site(w, r)
	if !ok {
		return
	}
	data := s.page(site.Title, "editor")
	data.Site = site
	s.render(w, r, http.StatusOK, data)
}

// handleCommit answers the editor's focus-loss request with the linkified
// markup. The body is either a form field "content" or the raw markup.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.site(w, r); !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCommitBytes)
	var markup string
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		markup = r.FormValue("content")
	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		markup = string(data)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, s.svc.Commit(markup))
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	site, ok := s.site(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := PostForm{
		Title:            r.PostForm.Get("title"),
		Content:          r.PostForm.Get("content"),
		AlsoAvailable:    checked(r, "also_available"),
		AlsoAvailableURL: r.PostForm.Get("also_available_url"),
	}
	_, err := s.svc.PublishPost(r.Context(), console.PostRequest{
		Site:             site.Key,
		Title:            form.Title,
		Content:          form.Content,
		AlsoAvailable:    form.AlsoAvailable,
		AlsoAvailableURL: form.AlsoAvailableURL,
	})
	if err != nil {
		status := s.toastError(r, "Error", err)
		data := s.page(site.Title, "editor")
		data.Site = site
		form.ContentHTML = template.HTML(s.svc.Draft(form.Content))
		data.Post = form
		s.render(w, r, status, data)
		return
	}
	s.toastSuccess(r, "Success!", "Blog published to "+site.Title+" successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
