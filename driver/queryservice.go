package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// QueryService implements Querier against the N1QL query REST endpoint
// (POST {endpoint}/query/service).
type QueryService struct {
	endpoint string
	user     string
	password string
	timeout  time.Duration
	client   *http.Client
}

var _ Querier = (*QueryService)(nil)

type QueryServiceOpt func(*QueryService)

func WithBasicAuth(user, password string) QueryServiceOpt {
	return func(q *QueryService) { q.user, q.password = user, password }
}

// WithHTTPClient swaps the transport (tests, custom TLS).
func WithHTTPClient(c *http.Client) QueryServiceOpt {
	return func(q *QueryService) { q.client = c }
}

// WithQueryTimeout sets the server-side statement timeout.
func WithQueryTimeout(d time.Duration) QueryServiceOpt {
	return func(q *QueryService) { q.timeout = d }
}

// NewQueryService builds a client for endpoint, e.g. "http://localhost:8093".
func NewQueryService(endpoint string, opts ...QueryServiceOpt) *QueryService {
	qs := &QueryService{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   http.DefaultClient,
	}
	for _, o := range opts {
		o(qs)
	}
	return qs
}

// ServiceError is an error reported in the "errors" array of a response.
type ServiceError struct {
	Status string
	Code   int
	Msg    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("driver: query service %s: [%d] %s", e.Status, e.Code, e.Msg)
}

type queryRequest struct {
	Statement       string `json:"statement"`
	Args            []any  `json:"args,omitempty"`
	ScanConsistency string `json:"scan_consistency,omitempty"`
	Timeout         string `json:"timeout,omitempty"`
}

type queryResponse struct {
	RequestID string            `json:"requestID"`
	Results   []json.RawMessage `json:"results"`
	Status    string            `json:"status"`
	Errors    []struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"errors"`
	Metrics struct {
		ElapsedTime   string `json:"elapsedTime"`
		ExecutionTime string `json:"executionTime"`
		ResultCount   int    `json:"resultCount"`
		ResultSize    int    `json:"resultSize"`
	} `json:"metrics"`
}

// Query satisfies the Querier interface.
func (qs *QueryService) Query(ctx context.Context, statement string, args []any, c Consistency) (*Result, error) {
	ctx, span := otel.Tracer("docquery.driver").Start(ctx, "query.service")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.statement", statement),
		attribute.Int("db.args", len(args)),
		attribute.String("db.scan_consistency", string(c)),
	)

	start := time.Now()
	res, err := qs.do(ctx, queryRequest{
		Statement:       statement,
		Args:            args,
		ScanConsistency: string(c),
		Timeout:         durationParam(qs.timeout),
	})
	span.SetAttributes(attribute.Float64("db.duration_ms", float64(time.Since(start).Milliseconds())))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("db.result_count", res.Metrics.ResultCount))
	return res, nil
}

func (qs *QueryService) do(ctx context.Context, body queryRequest) (*Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("driver: encode query request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, qs.endpoint+"/query/service", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if qs.user != "" {
		req.SetBasicAuth(qs.user, qs.password)
	}

	resp, err := qs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("driver: query service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("driver: read query response: %w", err)
	}

	var qr queryResponse
	if err := json.Unmarshal(raw, &qr); err != nil {
		return nil, fmt.Errorf("driver: decode query response (HTTP %d): %w", resp.StatusCode, err)
	}
	if len(qr.Errors) > 0 {
		e := qr.Errors[0]
		return nil, &ServiceError{Status: qr.Status, Code: e.Code, Msg: e.Msg}
	}
	if resp.StatusCode >= 300 || (qr.Status != "" && qr.Status != "success") {
		return nil, &ServiceError{Status: qr.Status, Code: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
	}

	rows := make([]map[string]any, 0, len(qr.Results))
	for i, r := range qr.Results {
		var row map[string]any
		if err := json.Unmarshal(r, &row); err != nil {
			return nil, fmt.Errorf("driver: result %d is not an object: %w", i, err)
		}
		rows = append(rows, row)
	}

	return &Result{
		Rows: rows,
		Metrics: Metrics{
			ResultCount:   qr.Metrics.ResultCount,
			ResultSize:    qr.Metrics.ResultSize,
			ElapsedTime:   qr.Metrics.ElapsedTime,
			ExecutionTime: qr.Metrics.ExecutionTime,
		},
	}, nil
}

// durationParam renders d the way the query service expects ("1500ms").
func durationParam(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
