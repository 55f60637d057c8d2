package api

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/internal/telemetry"
	"github.com/marmos91/newsletter/pkg/domain"
	promexp "github.com/marmos91/newsletter/pkg/metrics/prometheus"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type nopStore struct{}

func (nopStore) InsertPendingSubscriber(context.Context, domain.NewSubscriber, domain.SubscriptionToken) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (nopStore) SubscriberIDFromToken(context.Context, domain.SubscriptionToken) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (nopStore) ConfirmSubscriber(context.Context, uuid.UUID) error { return nil }

type nopSender struct{}

func (nopSender) SendEmail(context.Context, domain.SubscriberEmail, string, string, string) error {
	return nil
}

func testRouter(reg *prometheus.Registry) http.Handler {
	return NewRouter(RouterDeps{
		DB:                  okPinger{},
		Store:               nopStore{},
		Email:               nopSender{},
		BaseURL:             "http://localhost",
		HTTPMetrics:         promexp.NewHTTPMetrics(reg),
		SubscriptionMetrics: promexp.NewSubscriptionMetrics(reg),
		Registry:            reg,
	})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	h := testRouter(prometheus.NewRegistry())

	tests := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodPost, "/subscriptions", "name=a&email=a%40example.com", http.StatusOK},
		{http.MethodPost, "/subscriptions", "name=a", http.StatusBadRequest},
		{http.MethodGet, "/subscriptions", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/subscriptions/confirm", "", http.StatusBadRequest},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(h, tt.method, tt.target, tt.body).Code)
		})
	}
}

func TestRouter_MetricsUseRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := testRouter(reg)

	serve(h, http.MethodGet, "/health", "")
	serve(h, http.MethodGet, "/unknown/path", "")
	serve(h, http.MethodPost, "/subscriptions", "name=a&email=a%40example.com")

	body := serve(h, http.MethodGet, "/metrics", "").Body.String()
	assert.Regexp(t, `newsletter_http_requests_total\{method="GET",route="/health/?",status="200"\} 1`, body)
	assert.Contains(t, body, `route="unmatched",status="404"`)
	assert.Contains(t, body, `newsletter_subscriptions_total{outcome="created"} 1`)
	assert.NotContains(t, body, "/unknown/path")
}

func TestRouter_BodySizeCap(t *testing.T) {
	h := NewRouter(RouterDeps{DB: okPinger{}, Store: nopStore{}, Email: nopSender{}, MaxBodySize: 64})

	body := "name=a&email=a%40example.com&pad=" + strings.Repeat("x", 128)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodPost, "/subscriptions", body).Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/subscriptions", "name=a&email=a%40example.com").Code)
}

func TestRouter_NoRegistryNoMetricsRoute(t *testing.T) {
	h := NewRouter(RouterDeps{DB: okPinger{}, Store: nopStore{}, Email: nopSender{}})

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code)
}

func TestRouter_LogsCarryTraceContext(t *testing.T) {
	tp := telemetry.InitLocal("newsletter-test")
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var buf bytes.Buffer
	prevOut, prevColor := logger.Output()
	prevLevel, prevFormat := logger.CurrentLevel(), logger.CurrentFormat()
	logger.InitWithWriter(&buf, "INFO", "text", false)
	t.Cleanup(func() { logger.InitWithWriter(prevOut, prevLevel.String(), prevFormat, prevColor) })

	serve(testRouter(prometheus.NewRegistry()), http.MethodGet, "/health", "")

	line := buf.String()
	assert.Contains(t, line, "API request completed")
	assert.Contains(t, line, "request_id=")
	assert.Contains(t, line, "trace_id=")
	assert.Contains(t, line, "route=/health")
	assert.Contains(t, line, "status=200")
}

func TestRun_RejectsMissingCollaborators(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	_, err = Run(nil, nil, nil, Options{})
	assert.Error(t, err)

	_, err = Run(ln, nil, nil, Options{})
	assert.ErrorContains(t, err, "nil pool")
}

func TestOptions_Defaults(t *testing.T) {
	var o Options
	o.applyDefaults("127.0.0.1:1234")

	assert.Equal(t, "http://127.0.0.1:1234", o.BaseURL)
	assert.NotZero(t, o.ReadTimeout)
	assert.NotZero(t, o.WriteTimeout)
	assert.NotZero(t, o.IdleTimeout)
	assert.NotZero(t, o.RequestTimeout)
	assert.EqualValues(t, 64<<10, o.MaxBodySize)
}
