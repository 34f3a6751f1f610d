package bus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unifeed-backend/lib/htmlutil"
	"unifeed-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const a1Page = `<html><body>
<table><tr><td>Menü</td></tr></table>
<table>
  <tr><td colspan="3">A1 ÜNİVERSİTE HATTI</td></tr>
  <tr><td>Sefer</td><td>Çarşı Kalkış</td><td>Üniversite Kalkış</td></tr>
  <tr><td>1</td><td> 07:00 </td><td>07:30</td></tr>
  <tr><td>2</td><td>07:45</td><td>Durak</td><td>08:15</td></tr>
  <tr><td>3</td><td></td><td></td></tr>
  <tr><td colspan="2">Not: Pazar günleri sefer yoktur</td></tr>
  <tr><td>4</td><td>09:00</td><td></td></tr>
</table>
</body></html>`

const a2Page = `<html><body>
<table><tr><td>x</td></tr></table>
<table>
  <tr><td>No</td><td>Kalkış</td><td>Varış</td></tr>
  <tr><td>1</td><td>06:30</td><td>07:00</td></tr>
  <tr><td>2</td><td>10:30</td><td>11:00</td></tr>
</table>
</body></html>`

func setup(t *testing.T) (Service, testutil.ServiceResult) {
	res := testutil.SetupService(t, testutil.ServiceParams{})
	service := NewService(Options{
		Fetcher: res.Fetcher,
		Store:   res.Store,
		Tel:     res.Tel,
		Routes: []string{
			res.Site.URL("/a1-universite-hatti"),
			res.Site.URL("/a-2-universite-hatti"),
		},
		TTL: time.Hour,
	})
	return service, res
}

func TestParseTimetable(t *testing.T) {
	testCases := []struct {
		name     string
		page     string
		expected []Schedule
	}{
		{
			name: "header table",
			page: a1Page,
			expected: []Schedule{
				{CarsKalkisSaati: "07:00", UniversiteKalkis: "07:30"},
				{CarsKalkisSaati: "07:45", UniversiteKalkis: "08:15"},
				{CarsKalkisSaati: "09:00", UniversiteKalkis: ""},
			},
		},
		{
			name: "largest table without header",
			page: a2Page,
			expected: []Schedule{
				{CarsKalkisSaati: "Kalkış", UniversiteKalkis: "Varış"},
				{CarsKalkisSaati: "06:30", UniversiteKalkis: "07:00"},
				{CarsKalkisSaati: "10:30", UniversiteKalkis: "11:00"},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := htmlutil.Parse(test.page)
			require.NoError(t, err)
			schedules, err := ParseTimetable(doc)
			require.NoError(t, err)
			require.Empty(t, cmp.Diff(test.expected, schedules))
		})
	}

	doc, err := htmlutil.Parse(`<html><body><p>Sayfa bulunamadı</p></body></html>`)
	require.NoError(t, err)
	_, err = ParseTimetable(doc)
	require.ErrorIs(t, err, ErrNoTable)
}

func TestAll(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/a1-universite-hatti", a1Page)
	res.Site.Page("/a-2-universite-hatti", a2Page)

	all := service.All(context.Background())
	require.Len(t, all, 2)
	require.Len(t, all["a1-universite-hatti"], 3)
	require.Len(t, all["a-2-universite-hatti"], 3)

	again := service.All(context.Background())
	require.Equal(t, all, again)
	require.Equal(t, 2, res.Site.TotalHits())
}

func TestAllPartialFailure(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/a1-universite-hatti", a1Page)
	res.Site.Fail("/a-2-universite-hatti", http.StatusServiceUnavailable)

	all := service.All(context.Background())
	require.Len(t, all["a1-universite-hatti"], 3)
	require.NotNil(t, all["a-2-universite-hatti"])
	require.Empty(t, all["a-2-universite-hatti"])
	require.Len(t, res.Tel.Reports("broken", "bus.route"), 1)

	// the healthy route comes from its own cache, the failed one is retried
	res.Site.Page("/a-2-universite-hatti", a2Page)
	all = service.All(context.Background())
	require.Len(t, all["a-2-universite-hatti"], 3)
	require.Equal(t, 1, res.Site.Hits("/a1-universite-hatti"))
	require.Equal(t, 2, res.Site.Hits("/a-2-universite-hatti"))
}

func TestRoute(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/a1-universite-hatti", a1Page)
	res.Site.Page("/a-2-universite-hatti", a2Page)

	a1, err := service.Route(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, a1, 3)

	a2, err := service.Route(context.Background(), "a-2")
	require.NoError(t, err)
	require.Equal(t, "06:30", a2[1].CarsKalkisSaati)

	_, err = service.Route(context.Background(), "b7")
	require.ErrorIs(t, err, ErrUnknownRoute)
}

func TestRoutes(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/a1-universite-hatti", a1Page)
	res.Site.Page("/a-2-universite-hatti", a2Page)

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	for _, path := range []string{"/bus-schedule/a2", "/bus-schedule/route/a-2-universite-hatti"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		var schedules []Schedule
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schedules))
		require.Len(t, schedules, 3)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bus-schedule", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var all map[string][]Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 2)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bus-schedule/route/zz", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bus-schedule/clear-cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "(3 entries)")
}
