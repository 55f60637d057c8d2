package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/internal/telemetry"
	"github.com/marmos91/newsletter/pkg/domain"
	"github.com/marmos91/newsletter/pkg/metrics"
	"github.com/marmos91/newsletter/pkg/store/postgres"
)

// SubscriptionStore is the persistence used by SubscriptionHandler.
// *postgres.SubscriptionStore implements it.
type SubscriptionStore interface {
	InsertPendingSubscriber(ctx context.Context, sub domain.NewSubscriber, token domain.SubscriptionToken) (uuid.UUID, error)
	SubscriberIDFromToken(ctx context.Context, token domain.SubscriptionToken) (uuid.UUID, error)
	ConfirmSubscriber(ctx context.Context, id uuid.UUID) error
}

// EmailSender delivers the confirmation email. *emailclient.Client
// implements it.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}

// ConfirmPath is the route of the confirmation link.
const ConfirmPath = "/subscriptions/confirm"

// TokenParam is the query parameter carrying the confirmation token.
const TokenParam = "subscription_token"

// SubscriptionHandler handles signup and confirmation.
type SubscriptionHandler struct {
	store   SubscriptionStore
	email   EmailSender
	baseURL string
	metrics metrics.SubscriptionMetrics
}

// NewSubscriptionHandler creates a handler. Confirmation links point at
// baseURL. m may be nil.
func NewSubscriptionHandler(store SubscriptionStore, email EmailSender, baseURL string, m metrics.SubscriptionMetrics) *SubscriptionHandler {
	return &SubscriptionHandler{
		store:   store,
		email:   email,
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: m,
	}
}

func (h *SubscriptionHandler) recordSubscription(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordSubscription(outcome)
	}
}

func (h *SubscriptionHandler) recordConfirmation(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordConfirmation(outcome)
	}
}

// Subscribe handles POST /subscriptions with form fields name and email.
//
// The subscriber is stored as pending_confirmation together with a fresh
// token, then a confirmation email carrying the token link is sent.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.recordSubscription("invalid")
		BadRequest(w, "Invalid form body")
		return
	}

	sub, err := domain.ParseNewSubscriber(r.PostForm.Get("name"), r.PostForm.Get("email"))
	if err != nil {
		h.recordSubscription("invalid")
		BadRequest(w, err.Error())
		return
	}

	token, err := domain.NewSubscriptionToken()
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to generate subscription token", logger.Err(err))
		h.recordSubscription("store_error")
		InternalServerError(w, "Failed to generate subscription token")
		return
	}

	id, err := h.store.InsertPendingSubscriber(ctx, sub, token)
	if err != nil {
		telemetry.RecordError(ctx, err)
		if errors.Is(err, postgres.ErrAlreadyExists) {
			h.recordSubscription("duplicate")
			Conflict(w, "Email is already subscribed")
			return
		}
		logger.ErrorCtx(ctx, "Failed to store subscriber", logger.Err(err))
		h.recordSubscription("store_error")
		InternalServerError(w, "Failed to store subscriber")
		return
	}
	telemetry.SetAttributes(ctx, telemetry.SubscriberID(id.String()))

	link := h.confirmationLink(token)
	if err := h.email.SendEmail(ctx, sub.Email, "Welcome!",
		fmt.Sprintf(`Welcome to our newsletter!<br />Click <a href="%s">here</a> to confirm your subscription.`, link),
		fmt.Sprintf("Welcome to our newsletter!\nVisit %s to confirm your subscription.", link),
	); err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Failed to send confirmation email",
			logger.SubscriberID(id.String()), logger.Err(err))
		h.recordSubscription("email_error")
		InternalServerError(w, "Failed to send confirmation email")
		return
	}

	logger.InfoCtx(ctx, "New subscriber saved", logger.SubscriberID(id.String()))
	h.recordSubscription("created")
	writeJSON(w, http.StatusOK, okResponse(nil))
}

// Confirm handles GET /subscriptions/confirm?subscription_token=...
//
// Returns 400 for a missing or malformed token, 401 for a token that was
// never issued and 200 once the subscriber is confirmed.
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := domain.ParseSubscriptionToken(r.URL.Query().Get(TokenParam))
	if err != nil {
		h.recordConfirmation("invalid")
		BadRequest(w, err.Error())
		return
	}

	id, err := h.store.SubscriberIDFromToken(ctx, token)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			h.recordConfirmation("unknown_token")
			Unauthorized(w, "Unknown subscription token")
			return
		}
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Failed to look up subscription token", logger.Err(err))
		h.recordConfirmation("store_error")
		InternalServerError(w, "Failed to look up subscription token")
		return
	}
	telemetry.SetAttributes(ctx, telemetry.SubscriberID(id.String()))

	if err := h.store.ConfirmSubscriber(ctx, id); err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "Failed to confirm subscriber", logger.SubscriberID(id.String()), logger.Err(err))
		h.recordConfirmation("store_error")
		InternalServerError(w, "Failed to confirm subscriber")
		return
	}

	logger.InfoCtx(ctx, "Subscriber confirmed", logger.SubscriberID(id.String()))
	h.recordConfirmation("confirmed")
	writeJSON(w, http.StatusOK, okResponse(nil))
}

func (h *SubscriptionHandler) confirmationLink(token domain.SubscriptionToken) string {
	q := url.Values{TokenParam: []string{token.String()}}
	return h.baseURL + ConfirmPath + "?" + q.Encode()
}
