package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-drawing-fields/internal/config"
	"github.com/a3tai/mcp-drawing-fields/internal/metrics"
)

func postRPC(t *testing.T, client *http.Client, url, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServerHTTPIntegration(t *testing.T) {
	m := metrics.New()
	srv, _ := newTestServer(t, config.ModeServer,
		WithMetrics(m.Handler()),
		WithToolObserver(m),
	)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postRPC(t, ts.Client(), ts.URL+endpointPath, "",
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessionID := resp.Header.Get("Mcp-Session-Id")
	resp.Body.Close()
	require.NotEmpty(t, sessionID)

	resp = postRPC(t, ts.Client(), ts.URL+endpointPath, sessionID,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"drawing_extract_fields","arguments":{"path":"A-101.json"}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var call rpcResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&call))
	resp.Body.Close()
	require.False(t, call.Result.IsError)
	require.Len(t, call.Result.Content, 1)
	assert.Contains(t, call.Result.Content[0].Text, `"Riverside Tower"`)
	assert.Contains(t, call.Result.Content[0].Text, `"found": 5`)

	resp = postRPC(t, ts.Client(), ts.URL+endpointPath, sessionID,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"drawing_extract_fields","arguments":{"path":"missing.json"}}}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&call))
	resp.Body.Close()
	assert.True(t, call.Result.IsError)

	resp, err := ts.Client().Get(ts.URL + metricsPath)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(body), `drawing_fields_tool_calls_total{status="ok",tool="drawing_extract_fields"} 1`)
	assert.Contains(t, string(body), `drawing_fields_tool_calls_total{status="error",tool="drawing_extract_fields"} 1`)
}

func TestServerHTTPWithoutMetrics(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeServer)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + metricsPath)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerHTTPRejectsBadSession(t *testing.T) {
	srv, _ := newTestServer(t, config.ModeServer)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := postRPC(t, ts.Client(), ts.URL+endpointPath, "nope",
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
