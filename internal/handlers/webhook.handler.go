package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/fasthttp/router"
	"github.com/shirapay/shirapay/internal/events"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/shirapay/shirapay/pkg/logger"
	"github.com/shirapay/shirapay/pkg/prom"
	"github.com/valyala/fasthttp"
)

const signatureHeader = "x-paystack-signature"

type WebhookService interface {
	ApplyTransferEvent(ctx context.Context, event, reference, reason string) error
}

// ReplayGuard short-circuits deliveries already seen. Optional; the
// database precondition still protects when it is nil. A claim is only
// kept when the event was applied; Release undoes it otherwise.
type ReplayGuard interface {
	Claim(event, reference string) error
	Release(event, reference string) error
}

type WebhookHandler struct {
	svc    WebhookService
	guard  ReplayGuard
	secret []byte
}

func NewWebhookHandler(svc WebhookService, guard ReplayGuard, secret string) *WebhookHandler {
	return &WebhookHandler{
		svc:    svc,
		guard:  guard,
		secret: []byte(secret),
	}
}

func RegisterWebhookRoutes(e *router.Group, h *WebhookHandler) {
	e.POST("/webhooks/paystack", h.HandlePaystackEvent)
}

// webhookEnvelope is the provider's event wrapper. Only the fields the
// reconciliation path needs are decoded.
type webhookEnvelope struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Reason    string `json:"reason"`
		Status    string `json:"status"`
	} `json:"data"`
}

// HandlePaystackEvent verifies and applies a provider webhook. The
// response code is the contract: 500 tells the provider to retry, 401
// rejects a bad signature, and 200 acknowledges everything else, no-ops
// included, so the provider stops redelivering.
func (h *WebhookHandler) HandlePaystackEvent(ctx *xhttp.RequestCtx) {
	if len(h.secret) == 0 {
		logger.Error("webhook secret is not configured, cannot verify deliveries")
		writeError(ctx, fasthttp.StatusInternalServerError, "webhook verification unavailable")
		return
	}

	body := ctx.PostBody()
	signature := ctx.Request.Header.Peek(signatureHeader)
	if !h.verifySignature(body, signature) {
		logger.Warn("webhook signature verification failed", "remote_addr", ctx.RemoteAddr().String())
		writeError(ctx, fasthttp.StatusUnauthorized, "invalid signature")
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		// authenticated but malformed; retrying will not help
		logger.Warn("webhook body is not valid JSON", "error", err)
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	prom.IncCounterVec(prom.SystemWebhooks, prom.MetricWebhookEventsReceived, envelope.Event)

	if h.guard != nil {
		if err := h.guard.Claim(envelope.Event, envelope.Data.Reference); err != nil {
			if errors.Is(err, events.ErrAlreadySeen) {
				writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "duplicate"})
				return
			}
		}
	}

	if err := h.svc.ApplyTransferEvent(ctx, envelope.Event, envelope.Data.Reference, envelope.Data.Reason); err != nil {
		logger.Error("failed to apply webhook event",
			"event", envelope.Event,
			"reference", envelope.Data.Reference,
			"error", err)
		if h.guard != nil {
			// the 500 asks the provider to retry; the retry must not be
			// mistaken for a duplicate of this failed delivery
			_ = h.guard.Release(envelope.Event, envelope.Data.Reference)
		}
		writeError(ctx, fasthttp.StatusInternalServerError, "failed to process event")
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// verifySignature checks the hex HMAC-SHA512 of the raw body in constant
// time.
func (h *WebhookHandler) verifySignature(body, signature []byte) bool {
	if len(signature) == 0 {
		return false
	}
	mac := hmac.New(sha512.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), signature) == 1
}
