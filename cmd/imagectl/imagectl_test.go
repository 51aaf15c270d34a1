package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-client/core"
	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/result"
)

func TestParseMetadata(t *testing.T) {
	got, err := parseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseMetadata([]string{"owner=ann", " team =infra", "query=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"owner": "ann", "team": "infra", "query": "a=b", "empty": ""}, got)

	for _, bad := range []string{"novalue", "=x", " =x"} {
		_, err := parseMetadata([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.Set("account-id", "acc")
	v.Set("api-token", "tok")
	v.Set("timeout", "5s")
	v.Set("max-size", "2MB")
	v.Set("logging", true)

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "acc", cfg.AccountID)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxUploadBytes)
	assert.True(t, cfg.Logging)
	assert.Equal(t, 20, cfg.DefaultPerPage)

	v.Set("max-size", "lots")
	_, err = loadConfig(v)
	assert.Error(t, err)

	_, err = loadConfig(viper.New())
	assert.Error(t, err, "account and token are required")
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, loadEnvFile(""))
	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "absent.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("IMAGES_TEST_ONLY_VALUE=from-file\n"), 0o600))
	t.Setenv("IMAGES_TEST_ONLY_VALUE", "")
	require.NoError(t, os.Unsetenv("IMAGES_TEST_ONLY_VALUE"))
	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("IMAGES_TEST_ONLY_VALUE"))
}

func TestRender(t *testing.T) {
	img := core.RemoteImage{ID: "a", Name: "a.png", VariantURLs: []string{"https://cdn/a/public"}}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, "json", img))
	assert.Contains(t, buf.String(), `"id": "a"`)
	assert.Contains(t, buf.String(), `"variant_urls": [`)

	buf.Reset()
	require.NoError(t, render(&buf, "YAML", img))
	assert.Contains(t, buf.String(), "id: a\n")
	assert.Contains(t, buf.String(), "variant_urls:\n  - https://cdn/a/public\n")

	assert.Error(t, render(&buf, "xml", img))
}

func TestEmit(t *testing.T) {
	var buf bytes.Buffer
	err := emit(&buf, "json", result.Success(core.UsageStats{Current: 1, Allowed: 4}), func(u core.UsageStats) any {
		return u.Remaining()
	})
	require.NoError(t, err)
	assert.Equal(t, "3\n", buf.String())

	err = emit[int](&buf, "json", result.Failure[int]("boom", nil), nil)
	assert.EqualError(t, err, "boom")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runApp(t, args...)
	return out, err
}

func runApp(t *testing.T, args ...string) (string, *app, error) {
	t.Helper()
	var out bytes.Buffer
	root, a := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--env-file", "", "--log-level", "error"}, args...))
	err := execute(context.Background(), root, a)
	return out.String(), a, err
}

func TestStatsCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/stats", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"result":{"count":{"current":25,"allowed":100}}}`))
	}))
	defer srv.Close()

	out, err := run(t, "--base-url", srv.URL+"/images", "--api-token", "tok", "-o", "yaml", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "current: 25\n")
	assert.Contains(t, out, "remaining: 75\n")
	assert.Contains(t, out, "percentage_used: 25\n")
}

func TestDeleteCommandReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":5404,"message":"Image not found"}]}`))
	}))
	defer srv.Close()

	_, err := run(t, "--base-url", srv.URL, "--api-token", "tok", "delete", "missing")
	require.Error(t, err)
	assert.Equal(t, "Image not found", err.Error())
}

func TestFailedCommandClosesClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, a, err := runApp(t, "--base-url", srv.URL, "--api-token", "tok", "get", "img-1")
	require.Error(t, err)
	assert.Equal(t, "request failed with status 500", err.Error())
	require.NotNil(t, a.client)
	assert.ErrorIs(t, a.client.Usage(context.Background()).Err(), apperrors.ErrClientClosed)
}

func TestCommandRequiresCredentials(t *testing.T) {
	_, err := run(t, "--account-id", "", "--api-token", "", "stats")
	assert.Error(t, err)
}

func TestInspectCommandIsOffline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dot.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 5, 4))))
	require.NoError(t, f.Close())

	out, err := run(t, "-o", "yaml", "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "format: png\n")
	assert.Contains(t, out, "width: 5\n")
	assert.Contains(t, out, "height: 4\n")
	assert.Contains(t, out, "media_type: image/png\n")
}
