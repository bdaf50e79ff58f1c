package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_HeadersQueryAndDecode(t *testing.T) {
	var gotUA, gotRef, gotPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRef = r.Header.Get("Referer")
		gotPage = r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"ok"}`))
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 2 * time.Second, UserAgent: "test-agent/1.0", Referer: "https://live.bilibili.com"})
	require.NoError(t, err)
	var out struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, cl.GetJSON(context.Background(), srv.URL, map[string]string{"page": "2"}, &out))
	assert.Equal(t, "test-agent/1.0", gotUA)
	assert.Equal(t, "https://live.bilibili.com", gotRef)
	assert.Equal(t, "2", gotPage)
	assert.Equal(t, "ok", out.Message)
}

func TestGetJSON_NoRetryOnStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	var out map[string]any
	err = cl.GetJSON(context.Background(), srv.URL, nil, &out)
	var se *StatusError
	require.True(t, errors.As(err, &se), "want StatusError, got %v", err)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":`))
	}))
	defer srv.Close()

	cl, err := New(Options{})
	require.NoError(t, err)
	var out map[string]any
	assert.Error(t, cl.GetJSON(context.Background(), srv.URL, nil, &out))
}

func TestGetJSON_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 100 * time.Millisecond})
	require.NoError(t, err)
	var out map[string]any
	err = cl.GetJSON(context.Background(), srv.URL, nil, &out)
	require.Error(t, err)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_BadProxy(t *testing.T) {
	_, err := New(Options{ProxyHTTP: "://bad"})
	assert.Error(t, err)
}

func TestNew_TimeoutIsTheOnlyResponseCap(t *testing.T) {
	cl, err := New(Options{Timeout: 45 * time.Second})
	require.NoError(t, err)
	hc := cl.rc.GetClient()
	assert.Equal(t, 45*time.Second, hc.Timeout)
	tr, ok := hc.Transport.(*http.Transport)
	require.True(t, ok, "transport %T", hc.Transport)
	assert.Zero(t, tr.ResponseHeaderTimeout, "headers may take as long as the request timeout allows")

	cl, err = New(Options{})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cl.rc.GetClient().Timeout)
}

func TestGetJSON_SlowHeadersWithinTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(400 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	cl, err := New(Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	var out struct {
		Code int `json:"code"`
	}
	require.NoError(t, cl.GetJSON(context.Background(), srv.URL, nil, &out))
}
