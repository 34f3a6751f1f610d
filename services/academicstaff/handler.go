package academicstaff

import (
	"errors"
	"fmt"
	"net/http"
	"unifeed-backend/lib/departments"
	"unifeed-backend/lib/httpx"
)

func (s Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /academic-staff/clear-cache", func(w http.ResponseWriter, r *http.Request) {
		removed, err := s.ClearCache(r.Context())
		if err != nil {
			s.tel.ReportBroken("clear-cache", err)
			httpx.JSONError(w, r, http.StatusInternalServerError, "Failed to clear academic staff cache")
			return
		}
		httpx.JSONMessage(w, r, fmt.Sprintf("Academic staff cache cleared (%d entries)", removed))
	})
	mux.HandleFunc("GET /academic-staff/{department}", func(w http.ResponseWriter, r *http.Request) {
		result, err := s.Staff(r.Context(), r.PathValue("department"))
		var unknown *departments.UnknownDepartmentError
		if errors.As(err, &unknown) {
			httpx.JSON(w, r, http.StatusNotFound, httpx.ErrorResponse{
				Message:     unknown.Error(),
				Suggestions: unknown.Suggestions,
			})
			return
		}
		if err != nil {
			httpx.JSONError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		httpx.JSON(w, r, http.StatusOK, result)
	})
}
