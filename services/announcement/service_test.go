package announcement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
	"unifeed-backend/lib/departments"
	"unifeed-backend/lib/httpx"
	"unifeed-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func listPage(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="ctl15_div_duyurulist_"><ul>`)
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, `<li><div><div>%02d.03.2024</div><div><span><a href="duyuru/%d.html">Duyuru %d</a></span></div></div></li>`, i, i, i)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func detailPage(title, content string) string {
	return fmt.Sprintf(`<html><body>
<span id="ctl15_aktivitebaslik_">%s</span>
<div id="ctl15_aktivitedetay_"><p>%s</p></div>
</body></html>`, title, content)
}

func setup(t *testing.T) (Service, testutil.ServiceResult) {
	res := testutil.SetupService(t, testutil.ServiceParams{})
	service := NewService(Options{
		Fetcher: res.Fetcher,
		Store:   res.Store,
		Tel:     res.Tel,
		Departments: departments.New(map[string]string{
			"testBolumu": res.Site.URL("/bolum/"),
		}),
		TTL: time.Hour,
	})
	return service, res
}

func TestAnnouncementsKeepsLatestTen(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/bolum/", listPage(14))
	for i := 1; i <= 14; i++ {
		res.Site.Page(fmt.Sprintf("/bolum/duyuru/%d.html", i), detailPage(fmt.Sprintf("Duyuru %d", i), "içerik"))
	}
	res.Site.Page("/bolum/duyuru/9.html", detailPage("Uzun", testutil.Repeat("Uzun bir duyuru metni. ", 300)))
	res.Site.Fail("/bolum/duyuru/12.html", http.StatusNotFound)

	result, err := service.Announcements(context.Background(), "testBolumu")
	require.NoError(t, err)
	require.Len(t, result, 9)
	require.Equal(t, res.Site.URL("/bolum/duyuru/5.html"), result[0].Url)
	require.Equal(t, "Duyuru 5", result[0].Title)
	require.Equal(t, "içerik", result[0].Content)
	require.Equal(t, res.Site.URL("/bolum/duyuru/14.html"), result[8].Url)

	require.Equal(t, 253, utf8.RuneCountInString(result[4].Content))
	require.True(t, strings.HasSuffix(result[4].Content, "..."))

	for i := 1; i <= 4; i++ {
		require.Zero(t, res.Site.Hits(fmt.Sprintf("/bolum/duyuru/%d.html", i)))
	}
	require.Len(t, res.Tel.Reports("broken", "announcement.detail"), 1)
}

func TestAnnouncementsCached(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/bolum/", listPage(2))
	res.Site.Page("/bolum/duyuru/1.html", detailPage("Bir", "içerik"))
	res.Site.Page("/bolum/duyuru/2.html", detailPage("İki", "içerik"))

	first, err := service.Announcements(context.Background(), "testBolumu")
	require.NoError(t, err)
	second, err := service.Announcements(context.Background(), "testBolumu")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 3, res.Site.TotalHits())

	removed, err := service.ClearCache(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, removed)
}

func TestUnknownDepartment(t *testing.T) {
	service, res := setup(t)

	_, err := service.Announcements(context.Background(), "bilgisayarMuhendisligii")
	var unknown *departments.UnknownDepartmentError
	require.True(t, errors.As(err, &unknown))
	require.Zero(t, res.Site.TotalHits())

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/announcement/bilgisayarMuhendisligii", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Contains(t, body.Suggestions, "bilgisayarMuhendisligi")
}

func TestRoutes(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/bolum/", listPage(1))
	res.Site.Page("/bolum/duyuru/1.html", detailPage("Bir", "içerik"))

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/announcement/testBolumu", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var result []Announcement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Equal(t, []Announcement{{Title: "Bir", Url: res.Site.URL("/bolum/duyuru/1.html"), Content: "içerik"}}, result)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/announcement/clear-cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body httpx.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
}
