package testapp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/newsletter/pkg/api/handlers"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

const validForm = "name=le%20guin&email=ursula_le_guin%40gmail.com"

func subscriptionStatus(t *testing.T, app *TestApp, email string) string {
	t.Helper()
	var status string
	err := app.Pool.QueryRow(context.Background(),
		"SELECT status FROM subscriptions WHERE email = $1", email).Scan(&status)
	require.NoError(t, err)
	return status
}

func TestSubscribe_ValidForm(t *testing.T) {
	t.Parallel()
	app := startApp(t)

	resp, err := app.PostSubscriptions(validForm)
	require.NoError(t, err)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, postgres.StatusPendingConfirmation, subscriptionStatus(t, app, "ursula_le_guin@gmail.com"))

	reqs := app.Mail.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "ursula_le_guin@gmail.com", reqs[0].Body.To)
	assert.Equal(t, app.Config.EmailClient.SenderEmail, reqs[0].Body.From)
	assert.Equal(t, app.Config.EmailClient.AuthorizationToken.Expose(), reqs[0].Token)
}

func TestSubscribe_InvalidForm(t *testing.T) {
	t.Parallel()
	app := startApp(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing email", "name=le%20guin"},
		{"missing name", "email=ursula_le_guin%40gmail.com"},
		{"empty body", ""},
		{"empty name", "name=&email=ursula_le_guin%40gmail.com"},
		{"bad email", "name=Ursula&email=definitely-not-an-email"},
		{"forbidden characters", "name=%3Cscript%3E&email=ursula_le_guin%40gmail.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.PostSubscriptions(tt.body)
			require.NoError(t, err)
			_ = readBody(t, resp)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, handlers.ContentTypeProblemJSON, resp.Header.Get("Content-Type"))
		})
	}
	assert.Empty(t, app.Mail.Requests())
}

func TestSubscribe_Duplicate(t *testing.T) {
	t.Parallel()
	app := startApp(t)

	resp, err := app.PostSubscriptions(validForm)
	require.NoError(t, err)
	_ = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.PostSubscriptions(validForm)
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, app.Mail.Requests(), 1)
}

func TestSubscribe_EmailFailure(t *testing.T) {
	t.Parallel()
	app := startApp(t)
	app.Mail.SetStatus(http.StatusInternalServerError)

	resp, err := app.PostSubscriptions(validForm)
	require.NoError(t, err)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestConfirm_LinkFromEmail(t *testing.T) {
	t.Parallel()
	app := startApp(t)

	resp, err := app.PostSubscriptions(validForm)
	require.NoError(t, err)
	_ = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	links := app.Mail.ConfirmationLinks(0)
	require.Len(t, links, 1)

	link, err := url.Parse(links[0])
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", link.Hostname())
	assert.Equal(t, handlers.ConfirmPath, link.Path)

	resp, err = app.Get(strings.TrimPrefix(links[0], app.HTTPEndpoint))
	require.NoError(t, err)
	_ = readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, postgres.StatusConfirmed, subscriptionStatus(t, app, "ursula_le_guin@gmail.com"))
}

func TestConfirm_Rejections(t *testing.T) {
	t.Parallel()
	app := startApp(t)

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"missing token", "", http.StatusBadRequest},
		{"malformed token", "?subscription_token=short", http.StatusBadRequest},
		{"unknown token", "?subscription_token=" + strings.Repeat("a", 25), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Get(handlers.ConfirmPath + tt.query)
			require.NoError(t, err)
			_ = readBody(t, resp)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestMetrics_Exposed(t *testing.T) {
	t.Parallel()
	app := startApp(t)

	resp, err := app.Get("/health")
	require.NoError(t, err)
	_ = readBody(t, resp)

	resp, err = app.Get("/metrics")
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "newsletter_http_requests_total")
	assert.Contains(t, body, `newsletter_db_pool_max_connections{database="`+app.DatabaseName()+`"}`)
}
