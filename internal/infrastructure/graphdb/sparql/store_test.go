package sparql

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

type recorded struct {
	method      string
	path        string
	query       string
	contentType string
	body        string
	user        string
}

func testServer(t *testing.T, status int, reply string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.contentType = r.Header.Get("Content-Type")
		rec.body = string(body)
		rec.user, _, _ = r.BasicAuth()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(config.FusekiConfig{Dataset: "kg"}, nil)
	assert.ErrorContains(t, err, "url is required")

	_, err = NewStore(config.FusekiConfig{URL: "http://localhost:3030"}, nil)
	assert.ErrorContains(t, err, "dataset is required")
}

func TestStore_Upload(t *testing.T) {
	tests := []struct {
		name       string
		graph      string
		replace    bool
		wantMethod string
		wantQuery  string
	}{
		{name: "merge into default graph", wantMethod: http.MethodPost},
		{name: "replace default graph", replace: true, wantMethod: http.MethodPut},
		{name: "named graph", graph: "http://mycomind.org/kg/graph", wantMethod: http.MethodPost, wantQuery: "graph=http%3A%2F%2Fmycomind.org%2Fkg%2Fgraph"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := testServer(t, http.StatusCreated, "")
			store, err := NewStore(config.FusekiConfig{URL: srv.URL + "/", Dataset: "mycomind", Graph: tt.graph, Username: "admin", Password: "pw"}, nil)
			require.NoError(t, err)

			turtle := "<http://a> <http://b> <http://c> .\n"
			require.NoError(t, store.Upload(t.Context(), ContentTypeTurtle, []byte(turtle), tt.replace))

			assert.Equal(t, tt.wantMethod, rec.method)
			assert.Equal(t, "/mycomind/data", rec.path)
			assert.Equal(t, tt.wantQuery, rec.query)
			assert.Equal(t, ContentTypeTurtle, rec.contentType)
			assert.Equal(t, turtle, rec.body)
			assert.Equal(t, "admin", rec.user)
		})
	}
}

func TestStore_Upload_Rejected(t *testing.T) {
	srv, _ := testServer(t, http.StatusBadRequest, "Parse error: line 1\n")
	store, err := NewStore(config.FusekiConfig{URL: srv.URL, Dataset: "mycomind"}, nil)
	require.NoError(t, err)

	err = store.Upload(t.Context(), ContentTypeTurtle, []byte("not turtle"), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Parse error: line 1")
}

func TestStore_Upload_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	store, err := NewStore(config.FusekiConfig{URL: srv.URL, Dataset: "mycomind"}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Upload(t.Context(), ContentTypeNTriples, []byte("<a> <b> <c> .\n"), true))
	assert.Equal(t, int32(2), calls.Load())
}

func TestStore_Count(t *testing.T) {
	srv, rec := testServer(t, http.StatusOK, `{"head": {"vars": ["n"]}, "results": {"bindings": [{"n": {"type": "literal", "value": "42"}}]}}`)
	store, err := NewStore(config.FusekiConfig{URL: srv.URL, Dataset: "mycomind", Graph: "http://g"}, nil)
	require.NoError(t, err)

	n, err := store.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, "/mycomind/sparql", rec.path)
	assert.Contains(t, rec.body, "GRAPH+%3Chttp%3A%2F%2Fg%3E")
}

func TestStore_Ping(t *testing.T) {
	srv, rec := testServer(t, http.StatusOK, "2025-03-01T12:00:00Z")
	store, err := NewStore(config.FusekiConfig{URL: srv.URL, Dataset: "mycomind"}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Ping(t.Context()))
	assert.Equal(t, "/$/ping", rec.path)

	down, _ := testServer(t, http.StatusNotFound, "")
	store, err = NewStore(config.FusekiConfig{URL: down.URL, Dataset: "mycomind"}, nil)
	require.NoError(t, err)
	assert.ErrorContains(t, store.Ping(t.Context()), "404")
}
