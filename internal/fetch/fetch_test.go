package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certstamp/internal/models"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cert.pdf":
			w.Write([]byte("%PDF-1.4 body"))
		case "/big.pdf":
			w.Write(make([]byte, 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, 1024)

	data, err := f.Fetch(context.Background(), srv.URL+"/cert.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.pdf")
	assert.ErrorIs(t, err, models.ErrFetch)

	_, err = f.Fetch(context.Background(), srv.URL+"/big.pdf")
	assert.ErrorIs(t, err, models.ErrFetch)
}

func TestHTTPFetcherHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPFetcher(time.Minute, 0).Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, models.ErrFetch)
}

func TestRouter(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/docs/cert.pdf", []byte("local"), 0o644))

	r := &Router{File: &FileFetcher{Fs: fs}}

	data, err := r.Fetch(context.Background(), "/docs/cert.pdf")
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	data, err = r.Fetch(context.Background(), "file:///docs/cert.pdf")
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	_, err = r.Fetch(context.Background(), "/docs/missing.pdf")
	assert.ErrorIs(t, err, models.ErrFetch)

	_, err = r.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrFetch)

	_, err = r.Fetch(context.Background(), "https://drive.example/cert.pdf")
	assert.ErrorIs(t, err, models.ErrFetch, "no http fetcher configured")
}
