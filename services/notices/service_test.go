package notices

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	"unicode/utf8"
	"unifeed-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func homePage() string {
	return `<html><body>
<div id="ctl14_div_duyurulist1_">
  <div>
    <div><span>28</span><span>Şubat</span></div>
    <div class="duyuruanadiv label"><a href="duyuru/1.html">Kayıt</a></div>
  </div>
  <div>
    <div>  01Mart
         2024 </div>
    <div class="duyuruanadiv label"><a href="/duyuru/2.html">Sınav</a></div>
  </div>
  <div>
    <div>02 Mart</div>
    <div class="duyuruanadiv label"><a href="/duyuru/3.html">Broken</a></div>
  </div>
  <div>
    <div>03 Mart</div>
    <div class="duyuruanadiv label"><a href="/duyuru/liste.aspx">Not a detail page</a></div>
  </div>
</div>
<div id="ctl14_div_haberler">
  <div><a href="/haber/1.html">Haber 1</a></div>
  <div><span>no link</span></div>
  <div><a href="/haber/2.html">Haber 2</a></div>
</div>
<div id="ctl14_div_alt_etkinlik">
  <div><div><a href="/etkinlik/a.html">A</a></div><span class="date">01.02.2024</span></div>
  <div><div><a href="/etkinlik/b.html">B</a></div><p>Tarih: 15/03/2024 saat 10:00</p></div>
  <div><div><a href="/etkinlik/c.html">C</a></div></div>
  <div><div><a href="/etkinlik/d.html">D</a></div><span id="event_date_1">20-12-2023</span></div>
</div>
</body></html>`
}

func noticePage(title, content string) string {
	return fmt.Sprintf(`<html><body>
<h1 id="ctl14_aktivitebaslik_"> %s </h1>
<div id="ctl14_aktivitedetay_"><p>%s</p><p>İmza</p></div>
</body></html>`, title, content)
}

func newsPage(title, img, content string) string {
	return fmt.Sprintf(`<html><body>
<h1 id="ctl14_aktivitebaslik_">%s</h1>
<div id="ctl14_aktivitedetay_">
  <div><a href="#"><img src="%s"></a></div>
  <p>ilk paragraf</p>
  <p><span>%s<b>kalın</b></span></p>
</div>
</body></html>`, title, img, content)
}

func setup(t *testing.T) (Service, testutil.ServiceResult) {
	res := testutil.SetupService(t, testutil.ServiceParams{})
	res.Site.Page("/", homePage())

	service := NewService(Options{
		Fetcher: res.Fetcher,
		Store:   res.Store,
		Tel:     res.Tel,
		SiteUrl: res.Site.URL("/"),
		TTL:     time.Hour,
	})
	return service, res
}

func TestNotices(t *testing.T) {
	service, res := setup(t)
	long := testutil.Repeat("Öğrencilerimizin dikkatine. ", 400)
	res.Site.Page("/duyuru/1.html", noticePage("Kayıt Yenileme", "Kısa içerik"))
	res.Site.Page("/duyuru/2.html", noticePage("Sınav Takvimi", long))
	res.Site.Fail("/duyuru/3.html", http.StatusInternalServerError)

	notices := service.Notices(context.Background())
	require.Len(t, notices, 2)

	diff := cmp.Diff(Notice{
		Link:             res.Site.URL("/duyuru/1.html"),
		Title:            "Kayıt Yenileme",
		Content:          []string{"Kısa içerik İmza"},
		AnnouncementDate: "28 Şubat",
	}, notices[0])
	require.Empty(t, diff)

	require.Equal(t, "01 Mart 2024", notices[1].AnnouncementDate)
	require.Len(t, notices[1].Content, 1)
	require.Equal(t, 253, utf8.RuneCountInString(notices[1].Content[0]))
	require.Equal(t, "...", notices[1].Content[0][len(notices[1].Content[0])-3:])

	require.Len(t, res.Tel.Reports("broken", "notices.detail"), 1)
	require.Zero(t, res.Site.Hits("/duyuru/liste.aspx"))
}

func TestNoticesCached(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/duyuru/1.html", noticePage("Bir", "içerik"))
	res.Site.Page("/duyuru/2.html", noticePage("İki", "içerik"))
	res.Site.Page("/duyuru/3.html", noticePage("Üç", "içerik"))

	first, err := json.Marshal(service.Notices(context.Background()))
	require.NoError(t, err)
	hits := res.Site.TotalHits()

	second, err := json.Marshal(service.Notices(context.Background()))
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, hits, res.Site.TotalHits())

	removed, err := service.ClearCache(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, removed)

	service.Notices(context.Background())
	require.Greater(t, res.Site.TotalHits(), hits)
}

func TestNoticesListDown(t *testing.T) {
	service, res := setup(t)
	res.Site.Fail("/", http.StatusBadGateway)

	notices := service.Notices(context.Background())
	require.NotNil(t, notices)
	require.Empty(t, notices)
	require.Len(t, res.Tel.Reports("broken", "notices.list"), 1)
}

func TestNews(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/haber/1.html", newsPage("Mezuniyet", "/uploads/mezuniyet.jpg", "Tören   yapıldı."))
	res.Site.Page("/haber/2.html", newsPage("Spor", "https://cdn.example.com/spor.png", ""))

	news := service.News(context.Background())
	require.Len(t, news, 2)

	diff := cmp.Diff([]News{
		{
			Link:    res.Site.URL("/haber/1.html"),
			Title:   "Mezuniyet",
			ImgUrl:  res.Site.URL("/uploads/mezuniyet.jpg"),
			Content: "Tören yapıldı.",
		},
		{
			Link:    res.Site.URL("/haber/2.html"),
			Title:   "Spor",
			ImgUrl:  "https://cdn.example.com/spor.png",
			Content: "",
		},
	}, news)
	require.Empty(t, diff)
	require.Len(t, res.Tel.Reports("warning", "news.content"), 1)
}

func TestEvents(t *testing.T) {
	service, res := setup(t)

	events := service.Events(context.Background())
	diff := cmp.Diff([]Event{
		{Link: res.Site.URL("/etkinlik/b.html"), Date: "15.03.2024"},
		{Link: res.Site.URL("/etkinlik/a.html"), Date: "01.02.2024"},
		{Link: res.Site.URL("/etkinlik/d.html"), Date: "20-12-2023"},
		{Link: res.Site.URL("/etkinlik/c.html"), Date: ""},
	}, events)
	require.Empty(t, diff)

	service.Events(context.Background())
	require.Equal(t, 1, res.Site.Hits("/"))
}

func TestRoutes(t *testing.T) {
	service, res := setup(t)
	res.Site.Page("/duyuru/1.html", noticePage("Bir", "içerik"))
	res.Site.Page("/duyuru/2.html", noticePage("İki", "içerik"))
	res.Site.Page("/duyuru/3.html", noticePage("Üç", "içerik"))

	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/duyuru/uni", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var notices []Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notices))
	require.Len(t, notices, 3)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/duyuru/clear-cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Contains(t, body.Message, "4")
}
