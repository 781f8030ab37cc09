package web

import (
	"bytes"
	"errors"
	"html/template"
	"mime/multipart"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"pbnadmin/internal/config"
	"pbnadmin/internal/console"
)

var mdRenderer = goldmark.New(goldmark.WithExtensions(extension.Linkify))

func (s *Server) layout(w http.ResponseWriter, r *http.Request) (config.Layout, bool) {
	layout, ok := s.svc.Catalog().Layout(chiParam(r, "layout"))
	if !ok {
		http.Error(w, "Invalid layout", http.StatusNotFound)
	}
	return layout, ok
}

func (s *Server) productPage(layout config.Layout, form ProductForm) ViewData {
	data := s.page("Product Upload", "product")
	data.Layout = layout
	data.Product = form
	data.MaxImages = s.svc.Catalog().MaxProductImages
	return data
}

func productForm(r *http.Request) ProductForm {
	return ProductForm{
		Name:             r.FormValue("name"),
		NameFormat:       console.Format{Bold: checked(r, "name_bold"), Italic: checked(r, "name_italic")},
		MiniBlog:         r.FormValue("mini_blog"),
		MiniBlogFormat:   console.Format{Bold: checked(r, "mini_blog_bold"), Italic: checked(r, "mini_blog_italic")},
		AlsoAvailable:    checked(r, "also_available"),
		AlsoAvailableURL: r.FormValue("also_available_url"),
	}
}

func (f ProductForm) request(layout string) console.ProductRequest {
	return console.ProductRequest{
		Layout:           layout,
		Name:             f.Name,
		NameFormat:       f.NameFormat,
		MiniBlog:         f.MiniBlog,
		MiniBlogFormat:   f.MiniBlogFormat,
		AlsoAvailable:    f.AlsoAvailable,
		AlsoAvailableURL: f.AlsoAvailableURL,
	}
}

func (s *Server) handleProductForm(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, s.productPage(layout, ProductForm{}))
}

func (s *Server) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	form := productForm(r)
	req := form.request(layout.ID)
	var files []multipart.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			files = append(files, f)
			req.Images = append(req.Images, console.Image{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Body:        f,
			})
		}
	}

	if _, err := s.svc.SaveProduct(r.Context(), req); err != nil {
		status := s.toastError(r, "Error", err)
		s.render(w, r, status, s.productPage(layout, form))
		return
	}
	s.toastSuccess(r, "Success!", "Product information saved successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleProductPreview renders the formatted product name and mini blog the
// way a product page would show them.
func (s *Server) handleProductPreview(w http.ResponseWriter, r *http.Request) {
	layout, ok := s.layout(w, r)
	if !ok {
		return
	}
	form := productForm(r)
	req := form.request(layout.ID)

	var buf bytes.Buffer
	source := console.FormatText(req.Name, req.NameFormat) + "\n\n" + console.ComposeMiniBlog(req)
	if err := mdRenderer.Convert([]byte(source), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = s.views.all.ExecuteTemplate(w, "preview", map[string]any{
		"Layout": layout,
		"HTML":   template.HTML(buf.String()),
	})
}
