package bili

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bili-guard-list/internal/fetch"
	"bili-guard-list/internal/store"
)

func TestTopList_RequestAndDecode(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, TopListPath, r.URL.Path)
		q := r.URL.Query()
		got = map[string]string{"roomid": q.Get("roomid"), "page": q.Get("page"), "ruid": q.Get("ruid"), "page_size": q.Get("page_size")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"message":"0","data":{
			"info":{"num":13,"page":2,"now":1},
			"list":[{"uid":7,"ruid":13046,"username":"b","rank":4,"guard_level":3,"accompany":12,"face":"http://f/7.jpg",
				"medal_info":{"medal_name":"喵","medal_level":21}}],
			"top3":[{"uid":1,"username":"a","rank":1,"guard_level":2}]}}`))
	}))
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{})
	require.NoError(t, err)
	api := NewClient(cl, srv.URL+"/")
	resp, err := api.TopList(context.Background(), 92613, 13046, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"roomid": "92613", "page": "1", "ruid": "13046", "page_size": "10"}, got)
	assert.Equal(t, 2, resp.Data.Info.Page)
	assert.Equal(t, 1, resp.Data.Info.Now)
	require.Len(t, resp.Data.List, 1)
	require.Len(t, resp.Data.Top3, 1)

	rec, ok := resp.Data.List[0].Record("2026-10-16")
	require.True(t, ok)
	assert.Equal(t, int64(7), rec.UID)
	assert.Equal(t, "2026-10-16", rec.FetchDate)
	require.NotNil(t, rec.Medal)
	assert.Equal(t, "喵", rec.Medal.Name)
	assert.Equal(t, 21, *rec.Medal.Level)
	assert.Equal(t, 12, *rec.Accompany)

	top, ok := resp.Data.Top3[0].Record("2026-10-16")
	require.True(t, ok)
	assert.Nil(t, top.Medal)
	assert.Nil(t, top.RUID, "ruid missing in payload")
	assert.Nil(t, top.Accompany)
}

func TestTopList_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":-400,"message":"参数错误"}`))
	}))
	defer srv.Close()

	cl, _ := fetch.New(fetch.Options{})
	_, err := NewClient(cl, srv.URL).TopList(context.Background(), 1, 2, 1, 10)
	var ae *APIError
	require.True(t, errors.As(err, &ae), "want APIError, got %v", err)
	assert.Equal(t, -400, ae.Code)
	assert.Equal(t, "参数错误", ae.Message)
}

func TestEntry_MissingUID(t *testing.T) {
	_, ok := Entry{Username: "x"}.Record("2026-10-16")
	assert.False(t, ok)
}

func TestEntry_MissingNumericFieldsWriteEmptyCells(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"uid":5,"username":"x"}`), &e))
	rec, ok := e.Record("2026-10-16")
	require.True(t, ok)
	assert.Nil(t, rec.Rank)
	assert.Nil(t, rec.GuardLevel)
	assert.Equal(t, "2026-10-16,5,x,,,,,,,", strings.Join(store.Row(rec), ","))

	// 显式的 0 与缺失不同
	var e2 Entry
	require.NoError(t, json.Unmarshal([]byte(`{"uid":6,"username":"y","rank":0,"accompany":0,"medal_info":{"medal_name":"m"}}`), &e2))
	rec, _ = e2.Record("2026-10-16")
	assert.Equal(t, "2026-10-16,6,y,0,,0,,m,,", strings.Join(store.Row(rec), ","))
}
