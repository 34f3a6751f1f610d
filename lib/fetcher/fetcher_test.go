package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "unifeed-test" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<p>Şubat</p>"))
	})
	mux.HandleFunc("/latin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-9")
		// "ş" in ISO-8859-9 (Turkish) is 0xFE
		w.Write([]byte{'<', 'p', '>', 0xFE, '<', '/', 'p', '>'})
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(1500 * time.Millisecond)
		w.Write([]byte("late"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(Config{TimeoutSeconds: 1, UserAgent: "unifeed-test"})

	body, err := client.Fetch(context.Background(), server.URL+"/ok")
	require.NoError(t, err)
	require.Equal(t, "<p>Şubat</p>", body)

	body, err = client.Fetch(context.Background(), server.URL+"/latin")
	require.NoError(t, err)
	require.Equal(t, "<p>ş</p>", body)

	_, err = client.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUpstream))
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)

	_, err = client.Fetch(context.Background(), server.URL+"/slow")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUpstream))
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, 0, fetchErr.StatusCode)
}

func TestFetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(Config{}).Fetch(context.Background(), url)
	require.True(t, errors.Is(err, ErrUpstream))
}
