package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"unifeed-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, token string) (http.Handler, testutil.ServiceResult) {
	res := testutil.SetupService(t, testutil.ServiceParams{})
	res.Site.Page("/yemeklistesi.html", `<html><body><div id="ctl14_div_yemeklist_">
<div style="border-bottom:1px solid"><div style="background-color:#ecc41a">28Şubat</div><div>Çorba 90 Kalori</div></div>
</div></body></html>`)

	cfg := Config{Auth: AuthConfig{AccessToken: token}, Env: "test"}
	cfg.Food.MenuUrl = res.Site.URL("/yemeklistesi.html")
	cfg.Notices.SiteUrl = res.Site.URL("/")
	cfg.Bus.Routes = []string{res.Site.URL("/a1-universite-hatti")}
	cfg.SetDefaults()

	return NewHandler(cfg, InitServices(cfg, res.Store, res.Tel)), res
}

func get(handler http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsOpen(t *testing.T) {
	handler, _ := newTestHandler(t, "s3cret")

	rec := get(handler, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "test", body.Env)
	require.NotEmpty(t, body.Timestamp)
}

func TestRoutesRequireToken(t *testing.T) {
	handler, res := newTestHandler(t, "s3cret")

	for _, path := range []string{"/", "/yemek", "/duyuru/uni", "/bus-schedule/a1", "/announcement/tarih", "/yemek/clear-cache"} {
		require.Equal(t, http.StatusUnauthorized, get(handler, path, "").Code, path)
		require.Equal(t, http.StatusUnauthorized, get(handler, path, "Bearer wrong").Code, path)
	}
	require.Zero(t, res.Site.TotalHits())

	rec := get(handler, "/", "Bearer s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	var index indexResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &index))
	require.Equal(t, indexResponse{Name: apiName, Version: apiVersion, Status: "running"}, index)

	rec = get(handler, "/yemek", "Bearer s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tarih":"28 Şubat"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMissingTokenIsStrict(t *testing.T) {
	handler, _ := newTestHandler(t, "")
	require.Equal(t, http.StatusInternalServerError, get(handler, "/yemek", "").Code)
	require.Equal(t, http.StatusOK, get(handler, "/health", "").Code)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are allowed
		port: 8080,
		auth: { access_token: "from-file", strict: false },
		cache: { driver: "badger" },
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		cache_ttl_seconds: 60,
	}`), 0644))

	t.Setenv("API_TOKEN", "from-env")
	t.Setenv("PORT", "9090")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "from-env", cfg.Auth.AccessToken)
	require.Equal(t, "production", cfg.Env)
	require.False(t, cfg.StrictAuth())
	require.Equal(t, "badger", cfg.Cache.Driver)
	require.Equal(t, 60, cfg.CacheTTLSeconds)

	t.Setenv("PORT", "eighty")
	_, err = LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("API_TOKEN", "")
	t.Setenv("APP_ENV", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "development", cfg.Env)
	require.True(t, cfg.StrictAuth())
	require.Equal(t, 3600, cfg.CacheTTLSeconds)
}
