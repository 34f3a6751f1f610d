package bus

import (
	"errors"
	"fmt"
	"net/http"
	"unifeed-backend/lib/httpx"
)

func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /bus-schedule", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, r, http.StatusOK, s.All(r.Context()))
	})
	route := func(alias string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			name := alias
			if name == "" {
				name = r.PathValue("route")
			}
			schedules, err := s.Route(r.Context(), name)
			if errors.Is(err, ErrUnknownRoute) {
				httpx.JSONError(w, r, http.StatusNotFound, err.Error())
				return
			}
			if err != nil {
				httpx.JSONError(w, r, http.StatusInternalServerError, err.Error())
				return
			}
			httpx.JSON(w, r, http.StatusOK, schedules)
		}
	}
	mux.HandleFunc("GET /bus-schedule/a1", route("a1"))
	mux.HandleFunc("GET /bus-schedule/a2", route("a2"))
	mux.HandleFunc("GET /bus-schedule/route/{route}", route(""))
	mux.HandleFunc("GET /bus-schedule/clear-cache", func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.ClearCache(r.Context())
		if err != nil {
			s.tel.ReportBroken("clear-cache", err)
			httpx.JSONError(w, r, http.StatusInternalServerError, "Failed to clear bus schedule cache")
			return
		}
		httpx.JSONMessage(w, r, fmt.Sprintf("Bus schedule cache cleared (%d entries)", removed))
	})
}
