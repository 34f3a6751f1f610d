package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unifeed-backend/lib/cache"
	"unifeed-backend/lib/fetcher"
	"unifeed-backend/lib/telemetry"
)

// Site is a fake university site serving html fixtures by path.
type Site struct {
	server *httptest.Server
	mutex  sync.Mutex
	pages  map[string]string
	status map[string]int
	hits   map[string]int
}

func (s *Site) URL(path string) string {
	return s.server.URL + path
}

// Page serves html under path.
func (s *Site) Page(path, html string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pages[path] = html
	delete(s.status, path)
}

// Fail makes path answer with the given status code.
func (s *Site) Fail(path string, status int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.status[path] = status
}

// Hits returns how many times path was requested.
func (s *Site) Hits(path string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests the site received.
func (s *Site) TotalHits() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

func (s *Site) serve(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.hits[r.URL.Path]++
	html, ok := s.pages[r.URL.Path]
	status := s.status[r.URL.Path]
	s.mutex.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

type ServiceParams struct {
	// if unspecified, the memory driver is used
	Store cache.Store
}

type ServiceResult struct {
	Site    *Site
	Store   cache.Store
	Tel     *telemetry.Recorder
	Fetcher fetcher.Client
}

// SetupService starts a fixture site and the collaborators every service needs.
// Everything is torn down when the test ends.
func SetupService(t testing.TB, params ServiceParams) ServiceResult {
	site := &Site{
		pages:  map[string]string{},
		status: map[string]int{},
		hits:   map[string]int{},
	}
	site.server = httptest.NewServer(http.HandlerFunc(site.serve))
	t.Cleanup(site.server.Close)

	store := params.Store
	if store == nil {
		memory, err := cache.NewMemory(0, nil)
		if err != nil {
			t.Fatal(err)
		}
		store = memory
	}
	t.Cleanup(func() { store.Close() })

	return ServiceResult{
		Site:    site,
		Store:   store,
		Tel:     &telemetry.Recorder{},
		Fetcher: fetcher.NewClient(fetcher.Config{TimeoutSeconds: 5}),
	}
}

// Repeat returns s repeated until it is at least n runes long.
func Repeat(s string, n int) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	for len([]rune(b.String())) < n {
		b.WriteString(s)
	}
	return b.String()
}
