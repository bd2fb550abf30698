package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/q.json"))
	assert.True(t, IsRemote("HTTP://example.com/q.json"))
	assert.True(t, IsRemote("ftp://files.example.com/q.csv"))
	assert.False(t, IsRemote("data/q.json"))
	assert.False(t, IsRemote("/abs/q.json"))
	assert.False(t, IsRemote("s3://bucket/q.json"))
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".json", Ext("data/questions.JSON"))
	assert.Equal(t, ".csv", Ext("https://example.com/export/q.csv?token=abc"))
	assert.Equal(t, ".xlsx", Ext("ftp://files.example.com/pub/q.xlsx"))
	assert.Equal(t, "", Ext("questions"))
}

func TestFor(t *testing.T) {
	assert.IsType(t, &HTTPFetcher{}, For("https://example.com/q.json", Options{}))
	assert.IsType(t, &FTPFetcher{}, For("ftp://example.com/q.json", Options{}))
	assert.Nil(t, For("q.json", Options{}))
}

func TestOpen_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	rc, err := Open(context.Background(), path, Options{})
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestOpen_LocalMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.json"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: open")
}

func TestOpen_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"question":"q","ground_truth":"a"}]`))
	}))
	defer srv.Close()

	rc, err := Open(context.Background(), srv.URL+"/q.json", Options{})
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"question":"q"`)
}

func TestLocalize_Local(t *testing.T) {
	path, cleanup, err := Localize(context.Background(), "some/file.xlsx", Options{})
	require.NoError(t, err)
	cleanup()
	assert.Equal(t, "some/file.xlsx", path)
}

func TestLocalize_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("spreadsheet bytes"))
	}))
	defer srv.Close()

	path, cleanup, err := Localize(context.Background(), srv.URL+"/book.xlsx?v=2", Options{})
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "spreadsheet bytes", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalize_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := Localize(context.Background(), srv.URL+"/missing.xlsx", Options{})
	assert.Error(t, err)
}
