package notices

import (
	"fmt"
	"net/http"
	"unifeed-backend/lib/httpx"
)

func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /duyuru/uni", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, s.Notices(r.Context()))
	})
	mux.HandleFunc("GET /duyuru/news", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, s.News(r.Context()))
	})
	mux.HandleFunc("GET /duyuru/events", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, s.Events(r.Context()))
	})
	mux.HandleFunc("GET /duyuru/clear-cache", func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.ClearCache(r.Context())
		if err != nil {
			s.tel.ReportBroken("clear-cache", err)
			httpx.JSONError(w, r, http.StatusInternalServerError, "Failed to clear notices cache")
			return
		}
		httpx.JSONMessage(w, r, fmt.Sprintf("Notices cache cleared (%d entries)", removed))
	})
}
