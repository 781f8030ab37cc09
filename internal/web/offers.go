package web

import (
	"fmt"
	"net/http"
	"strconv"
)

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	board, err := s.svc.LoadOffers(r.Context())
	if err != nil {
		status = s.toastError(r, "Error loading offers", err)
		board = s.svc.DefaultOffers()
	}

	extra, _ := strconv.Atoi(r.URL.Query().Get("slots"))
	if extra < 0 {
		extra = 0
	}
	for i := 0; i < extra; i++ {
		next, ok := board.AddSlot()
		if !ok {
			break
		}
		board = next
	}

	data := s.page("Affiliate Product Manager", "offers")
	data.Board = board
	data.CanAddSlot = board.CanAddSlot()
	data.NextSlots = extra + 1
	s.render(w, r, status, data)
}

func offerIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(chiParam(r, "idx"))
	if err != nil {
		http.Error(w, "invalid offer index", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}

func (s *Server) handleSaveOffer(w http.ResponseWriter, r *http.Request) {
	idx, ok := offerIndex(w, r)
	if !ok {
		return
	}
	if err := s.svc.SaveOffer(r.Context(), idx, r.FormValue("name")); err != nil {
		s.toastError(r, "Error saving offer", err)
	} else {
		s.toastSuccess(r, "Offer saved!", fmt.Sprintf("Offer %d updated.", idx+1))
	}
	http.Redirect(w, r, "/offers", http.StatusSeeOther)
}

func (s *Server) handleSaveLink(w http.ResponseWriter, r *http.Request) {
	idx, ok := offerIndex(w, r)
	if !ok {
		return
	}
	if err := s.svc.SaveLink(r.Context(), idx, r.FormValue("link")); err != nil {
		s.toastError(r, "Error saving link", err)
	} else {
		s.toastSuccess(r, "Link saved!", fmt.Sprintf("Link for offer %d updated.", idx+1))
	}
	http.Redirect(w, r, "/offers", http.StatusSeeOther)
}
