package milvus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

type recorded struct {
	path string
	auth string
	body map[string]interface{}
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{path: r.URL.Path, auth: r.Header.Get("Authorization")}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClientPost(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"code":0,"data":{"insertCount":1}}`)

	tests := []struct {
		name     string
		client   *Client
		wantAuth string
	}{
		{"token", NewClient(srv.URL, "tok", "", "", 0), "Bearer tok"},
		{"user password", NewClient(srv.URL+"/", "", "root", "Milvus", time.Second), "Bearer root:Milvus"},
		{"anonymous", NewClient(srv.URL, "", "", "", 0), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Code int `json:"code"`
				Data struct {
					InsertCount int `json:"insertCount"`
				} `json:"data"`
			}
			err := tt.client.Post(context.Background(), "/v2/vectordb/entities/insert",
				map[string]interface{}{"collectionName": "docs"}, &out)
			require.NoError(t, err)
			assert.Equal(t, 1, out.Data.InsertCount)

			last := (*calls)[len(*calls)-1]
			assert.Equal(t, "/v2/vectordb/entities/insert", last.path)
			assert.Equal(t, tt.wantAuth, last.auth)
			assert.Equal(t, "docs", last.body["collectionName"])
		})
	}
}

func TestClientPostKeepsLargeIntegers(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"code":0,"data":[{"id":449187316467269830,"score":0.5}]}`)

	var out struct {
		Data []map[string]interface{} `json:"data"`
	}
	err := NewClient(srv.URL, "", "", "", 0).Post(context.Background(), "/v2/vectordb/entities/query",
		map[string]interface{}{"collectionName": "docs"}, &out)
	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, json.Number("449187316467269830"), out.Data[0]["id"])
	assert.Equal(t, json.Number("0.5"), out.Data[0]["score"])
}

func TestClientHTTPError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"message":"bad token"}`)
	err := NewClient(srv.URL, "x", "", "", 0).Post(context.Background(), "/p", map[string]interface{}{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}

func TestConnect(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{"code":0,"data":["docs"]}`)

	conn, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.Milvus,
		URL:          srv.URL,
		DatabaseName: "default",
	})
	require.NoError(t, err)
	defer conn.Close()

	require.Len(t, *calls, 1)
	assert.Equal(t, listCollectionsPath, (*calls)[0].path)
	assert.Equal(t, "default", (*calls)[0].body["dbName"])

	_, ok := conn.Raw().(*Client)
	assert.True(t, ok)
}

func TestConnectAPIError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"code":1800,"message":"user hasn't authenticated"}`)

	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.Milvus,
		URL:          srv.URL,
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.Contains(t, err.Error(), "milvus error 1800")
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://vec:19530", BaseURL(adapter.ConnectionConfig{Host: "vec"}))
	assert.Equal(t, "https://vec:443", BaseURL(adapter.ConnectionConfig{Host: "vec", Port: 443, SSL: true}))
}
