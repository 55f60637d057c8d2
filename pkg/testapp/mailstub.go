package testapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"

	"github.com/marmos91/newsletter/pkg/emailclient"
)

var linkPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// MailRequest is one request received by the MailStub.
type MailRequest struct {
	Token string
	Body  emailclient.SendEmailRequest
}

// MailStub stands in for the outbound email API. It records every
// POST /email and answers with a configurable status.
type MailStub struct {
	server *httptest.Server

	mu       sync.Mutex
	status   int
	requests []MailRequest
}

// NewMailStub starts a stub answering 200 OK.
func NewMailStub() *MailStub {
	m := &MailStub{status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /email", m.handleEmail)
	m.server = httptest.NewServer(mux)
	return m
}

// URL is the base URL to configure the email client with.
func (m *MailStub) URL() string { return m.server.URL }

// SetStatus changes the status returned to subsequent requests.
func (m *MailStub) SetStatus(code int) {
	m.mu.Lock()
	m.status = code
	m.mu.Unlock()
}

// Requests returns a snapshot of the received requests, oldest first.
func (m *MailStub) Requests() []MailRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MailRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// ConfirmationLinks returns the links found in the text body of the
// i-th request. It returns nil when there is no such request.
func (m *MailStub) ConfirmationLinks(i int) []string {
	reqs := m.Requests()
	if i < 0 || i >= len(reqs) {
		return nil
	}
	return linkPattern.FindAllString(reqs[i].Body.TextBody, -1)
}

// Close shuts the stub down. It is safe to call more than once.
func (m *MailStub) Close() {
	m.server.Close()
}

func (m *MailStub) handleEmail(w http.ResponseWriter, r *http.Request) {
	var body emailclient.SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, MailRequest{
		Token: r.Header.Get(emailclient.TokenHeader),
		Body:  body,
	})
	status := m.status
	m.mu.Unlock()

	w.WriteHeader(status)
}
