package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method   string
	path     string
	rawQuery string
	header   http.Header
	body     []byte
}

func newBackend(t *testing.T, status int, body string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.rawQuery = r.URL.RawQuery
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runWithStderr(t, args...)
	return out, err
}

func runWithStderr(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestListCommand(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{
		"data": [{"id": "1", "type": "posts", "attributes": {"title": "go"}}],
		"meta": {"page": {"total": 1}}
	}`)

	out, err := run(t,
		"--api-url", srv.URL,
		"--header", "Authorization=Bearer abc",
		"list", "posts",
		"--page", "2", "--per-page", "10",
		"--filter", "title=go",
		"--filter", "published=true",
		"--filter", "author=!:anon",
		"--sort", "createdAt", "--order", "desc",
	)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/posts", rec.path)
	assert.Equal(t, "page[offset]=10&page[limit]=10&filter[title]=:go&filter[published]=true&filter[author]=anon&sort=-createdAt", rec.rawQuery)
	assert.Equal(t, "Bearer abc", rec.header.Get("Authorization"))

	var result struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, []map[string]any{{"id": "1", "title": "go"}}, result.Data)
	assert.Equal(t, 1, result.Total)
}

func TestCreateCommand(t *testing.T) {
	srv, rec := newBackend(t, http.StatusCreated, `{"data": {"id": "42", "type": "posts", "attributes": {"title": "x"}}}`)

	out, err := run(t, "--api-url", srv.URL, "create", "posts", "--data", `{"title": "x"}`)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.JSONEq(t, `{"data": {"type": "posts", "attributes": {"title": "x"}}}`, string(rec.body))
	assert.JSONEq(t, `{"data": {"id": "42", "title": "x"}}`, out)
}

func TestDeleteCommand(t *testing.T) {
	srv, rec := newBackend(t, http.StatusNoContent, "")

	out, err := run(t, "--api-url", srv.URL, "delete", "posts", "9")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/posts/9", rec.path)
	assert.JSONEq(t, `{"data": {"id": "9"}}`, out)
}

func TestManyAndReferenceCommands(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data": [], "meta": {"page": {"total": 0}}}`)

	_, err := run(t, "--api-url", srv.URL, "many", "posts", "3", "1")
	require.NoError(t, err)
	assert.Equal(t, "filter[id]=3&filter[id]=1", rec.rawQuery)

	_, err = run(t, "--api-url", srv.URL, "reference", "comments", "post_id", "3")
	require.NoError(t, err)
	assert.Equal(t, "/comments", rec.path)
	assert.Equal(t, "filter[post_id]=3", rec.rawQuery)
}

func TestConfigFile(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data": {"id": "1", "type": "posts", "attributes": {}}}`)

	file := filepath.Join(t.TempDir(), "jsonapictl.yaml")
	require.NoError(t, os.WriteFile(file, []byte("api-url: "+srv.URL+"\nheaders:\n  X-Tenant: acme\n"), 0o600))

	_, err := run(t, "--config", file, "get", "posts", "1")
	require.NoError(t, err)
	assert.Equal(t, "/posts/1", rec.path)
	assert.Equal(t, "acme", rec.header.Get("X-Tenant"))
}

func TestFilterModeKeepsFieldCase(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data": [], "meta": {"page": {"total": 0}}}`)

	_, err := run(t,
		"--api-url", srv.URL,
		"--filter-mode", "approvalStatus=exact",
		"list", "posts",
		"--filter", "approvalStatus=PENDING",
		"--filter", "title=go",
	)
	require.NoError(t, err)
	assert.Equal(t, "page[offset]=0&page[limit]=25&filter[approvalStatus]=PENDING&filter[title]=:go", rec.rawQuery)
}

func TestFilterModeFromConfigFile(t *testing.T) {
	srv, rec := newBackend(t, http.StatusOK, `{"data": [], "meta": {"page": {"total": 0}}}`)

	file := filepath.Join(t.TempDir(), "jsonapictl.yaml")
	config := "api-url: " + srv.URL + "\nfilter-mode:\n  - approvalStatus=exact\n  - authorName=excludes\n"
	require.NoError(t, os.WriteFile(file, []byte(config), 0o600))

	_, err := run(t, "--config", file, "list", "posts",
		"--filter", "approvalStatus=PENDING",
		"--filter", "authorName=bob",
	)
	require.NoError(t, err)
	assert.Equal(t, "page[offset]=0&page[limit]=25&filter[approvalStatus]=PENDING&filter[authorName]=bob", rec.rawQuery)
}

func TestInvalidFilterMode(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"data": []}`)

	_, err := run(t, "--api-url", srv.URL, "--filter-mode", "approvalStatus", "list", "posts")
	assert.ErrorContains(t, err, "invalid filter mode")

	_, err = run(t, "--api-url", srv.URL, "--filter-mode", "approvalStatus=fuzzy", "list", "posts")
	assert.Error(t, err)
}

func TestMetricsFlag(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"data": {"id": "1", "type": "posts", "attributes": {}}}`)

	_, stderr, err := runWithStderr(t, "--api-url", srv.URL, "--metrics", "get", "posts", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, `jsonapi_bridge_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, stderr, "jsonapi_bridge_request_duration_seconds_count")

	_, stderr, err = runWithStderr(t, "--api-url", srv.URL, "get", "posts", "1")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "jsonapi_bridge_requests_total")
}

func TestDebugFlagLogsRequests(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK, `{"data": {"id": "1", "type": "posts", "attributes": {}}}`)

	_, stderr, err := runWithStderr(t, "--api-url", srv.URL, "--debug", "get", "posts", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "sending request to "+srv.URL+"/posts/1")

	_, stderr, err = runWithStderr(t, "--api-url", srv.URL, "get", "posts", "1")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "sending request")
}

func TestStatusErrorFailsCommand(t *testing.T) {
	srv, _ := newBackend(t, http.StatusNotFound, `{"errors": [{"status": "404"}]}`)

	_, err := run(t, "--api-url", srv.URL, "get", "posts", "404")
	assert.Error(t, err)
}

func TestMissingAPIURL(t *testing.T) {
	_, err := run(t, "get", "posts", "1")
	assert.ErrorContains(t, err, "--api-url is required")
}

func TestParseFilters(t *testing.T) {
	_, err := parseFilters([]string{"novalue"})
	assert.Error(t, err)

	f, err := parseFilters([]string{"a=false", "b=x"})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
}
