package driver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc, opts ...QueryServiceOpt) *QueryService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewQueryService(srv.URL+"/", append([]QueryServiceOpt{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestQueryServiceQuery(t *testing.T) {
	var got queryRequest
	qs := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/query/service", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		io.WriteString(w, `{
			"requestID": "r-1",
			"results": [{"name": "attic", "volume": 18}, {"name": "study"}],
			"status": "success",
			"metrics": {"elapsedTime": "1.2ms", "executionTime": "1.1ms", "resultCount": 2, "resultSize": 64}
		}`)
	}, WithBasicAuth("admin", "secret"), WithQueryTimeout(1500*time.Millisecond))

	res, err := qs.Query(context.Background(), "SELECT * FROM `b` WHERE `a` = $1", []any{"x"}, RequestPlus)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM `b` WHERE `a` = $1", got.Statement)
	assert.Equal(t, []any{"x"}, got.Args)
	assert.Equal(t, "request_plus", got.ScanConsistency)
	assert.Equal(t, "1500ms", got.Timeout)

	require.Len(t, res.Rows, 2)
	assert.Equal(t, "attic", res.Rows[0]["name"])
	assert.Equal(t, Metrics{ResultCount: 2, ResultSize: 64, ElapsedTime: "1.2ms", ExecutionTime: "1.1ms"}, res.Metrics)
}

func TestQueryServiceOmitsEmptyFields(t *testing.T) {
	var raw map[string]any
	qs := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		io.WriteString(w, `{"results": [], "status": "success"}`)
	})

	res, err := qs.Query(context.Background(), "SELECT 1", nil, "")
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, map[string]any{"statement": "SELECT 1"}, raw)
}

func TestQueryServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "errors array",
			status: http.StatusOK,
			body:   `{"status": "errors", "errors": [{"code": 4300, "msg": "The index room_idx already exists."}]}`,
			check: func(t *testing.T, err error) {
				var se *ServiceError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, 4300, se.Code)
				assert.Contains(t, err.Error(), "already exists")
			},
		},
		{
			name:   "http failure without errors",
			status: http.StatusServiceUnavailable,
			body:   `{"status": "fatal"}`,
			check: func(t *testing.T, err error) {
				var se *ServiceError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusServiceUnavailable, se.Code)
			},
		},
		{
			name:   "not json",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "HTTP 502")
			},
		},
		{
			name:   "row is not an object",
			status: http.StatusOK,
			body:   `{"status": "success", "results": [1]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "result 0 is not an object")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := qs.Query(context.Background(), "SELECT 1", nil, "")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestParseConsistency(t *testing.T) {
	tests := []struct {
		in   string
		want Consistency
		ok   bool
	}{
		{"NOT_BOUNDED", NotBounded, true},
		{"request_plus", RequestPlus, true},
		{" Statement-Plus ", StatementPlus, true},
		{"eventually", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConsistency(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationParam(t *testing.T) {
	assert.Equal(t, "", durationParam(0))
	assert.Equal(t, "75000ms", durationParam(75*time.Second))
}
