package food

import (
	"fmt"
	"net/http"
	"unifeed-backend/lib/httpx"
)

func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /yemek", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, s.Menu(r.Context()))
	})
	mux.HandleFunc("GET /yemek/clear-cache", func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.ClearCache(r.Context())
		if err != nil {
			s.tel.ReportBroken("clear-cache", err)
			httpx.JSONError(w, r, http.StatusInternalServerError, "Failed to clear menu cache")
			return
		}
		httpx.JSONMessage(w, r, fmt.Sprintf("Menu cache cleared (%d entries)", removed))
	})
}
