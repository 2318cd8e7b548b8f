package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/shirapay/shirapay/internal/events"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) ApplyTransferEvent(ctx context.Context, event, reference, reason string) error {
	args := m.Called(ctx, event, reference, reason)
	return args.Error(0)
}

type stubReplayGuard struct {
	err error
}

func (g *stubReplayGuard) Claim(event, reference string) error {
	return g.err
}

func (g *stubReplayGuard) Release(event, reference string) error {
	return nil
}

// memoryReplayGuard mimics the SETNX claim semantics of the real guard.
type memoryReplayGuard struct {
	seen map[string]bool
}

func newMemoryReplayGuard() *memoryReplayGuard {
	return &memoryReplayGuard{seen: make(map[string]bool)}
}

func (g *memoryReplayGuard) Claim(event, reference string) error {
	key := event + ":" + reference
	if g.seen[key] {
		return events.ErrAlreadySeen
	}
	g.seen[key] = true
	return nil
}

func (g *memoryReplayGuard) Release(event, reference string) error {
	delete(g.seen, event+":"+reference)
	return nil
}

const testWebhookSecret = "whsec_test_12345"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func setupWebhookContext(body []byte, signature string) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("POST")
	ctx.Request.SetRequestURI("/webhooks/paystack")
	ctx.Request.SetBody(body)
	if signature != "" {
		ctx.Request.Header.Set(signatureHeader, signature)
	}
	return ctx
}

func TestWebhookHandler_MissingSecret(t *testing.T) {
	svc := new(MockWebhookService)
	handler := NewWebhookHandler(svc, nil, "")

	body := []byte(`{"event":"transfer.success","data":{"reference":"SP-ref-1"}}`)
	ctx := setupWebhookContext(body, sign(testWebhookSecret, body))
	handler.HandlePaystackEvent(ctx)

	assert.Equal(t, 500, ctx.Response.StatusCode())
	svc.AssertNotCalled(t, "ApplyTransferEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_InvalidSignature(t *testing.T) {
	svc := new(MockWebhookService)
	handler := NewWebhookHandler(svc, nil, testWebhookSecret)

	body := []byte(`{"event":"transfer.success","data":{"reference":"SP-ref-1"}}`)

	t.Run("wrong signature", func(t *testing.T) {
		ctx := setupWebhookContext(body, sign("wrong-secret", body))
		handler.HandlePaystackEvent(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("missing header", func(t *testing.T) {
		ctx := setupWebhookContext(body, "")
		handler.HandlePaystackEvent(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	t.Run("signature of a different body", func(t *testing.T) {
		other := []byte(`{"event":"transfer.success","data":{"reference":"SP-ref-2"}}`)
		ctx := setupWebhookContext(body, sign(testWebhookSecret, other))
		handler.HandlePaystackEvent(ctx)
		assert.Equal(t, 401, ctx.Response.StatusCode())
	})

	svc.AssertNotCalled(t, "ApplyTransferEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookHandler_ValidEventApplied(t *testing.T) {
	svc := new(MockWebhookService)
	handler := NewWebhookHandler(svc, nil, testWebhookSecret)

	body := []byte(`{"event":"transfer.failed","data":{"reference":"SP-ref-1","reason":"insufficient balance"}}`)
	svc.On("ApplyTransferEvent", mock.Anything, "transfer.failed", "SP-ref-1", "insufficient balance").Return(nil)

	ctx := setupWebhookContext(body, sign(testWebhookSecret, body))
	handler.HandlePaystackEvent(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}

// The provider retries on anything but 200, so events for unknown
// references and replays still acknowledge.
func TestWebhookHandler_BenignOutcomesAcknowledge(t *testing.T) {
	t.Run("unknown reference is a service-level no-op", func(t *testing.T) {
		svc := new(MockWebhookService)
		handler := NewWebhookHandler(svc, nil, testWebhookSecret)

		body := []byte(`{"event":"transfer.success","data":{"reference":"unknown"}}`)
		svc.On("ApplyTransferEvent", mock.Anything, "transfer.success", "unknown", "").Return(nil)

		ctx := setupWebhookContext(body, sign(testWebhookSecret, body))
		handler.HandlePaystackEvent(ctx)
		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("duplicate delivery short-circuits on the replay guard", func(t *testing.T) {
		svc := new(MockWebhookService)
		handler := NewWebhookHandler(svc, &stubReplayGuard{err: events.ErrAlreadySeen}, testWebhookSecret)

		body := []byte(`{"event":"transfer.success","data":{"reference":"SP-ref-1"}}`)
		ctx := setupWebhookContext(body, sign(testWebhookSecret, body))
		handler.HandlePaystackEvent(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "ApplyTransferEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed but authenticated body", func(t *testing.T) {
		svc := new(MockWebhookService)
		handler := NewWebhookHandler(svc, nil, testWebhookSecret)

		body := []byte("not json at all")
		ctx := setupWebhookContext(body, sign(testWebhookSecret, body))
		handler.HandlePaystackEvent(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "ApplyTransferEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestWebhookHandler_ServiceFailureAsksForRetry(t *testing.T) {
	svc := new(MockWebhookService)
	handler := NewWebhookHandler(svc, nil, testWebhookSecret)

	body := []byte(`{"event":"transfer.success","data":{"reference":"SP-ref-1"}}`)
	svc.On("ApplyTransferEvent", mock.Anything, "transfer.success", "SP-ref-1", "").Return(assert.AnError)

	ctx := setupWebhookContext(body, sign(testWebhookSecret, body))
	handler.HandlePaystackEvent(ctx)

	assert.Equal(t, 500, ctx.Response.StatusCode())
}

// A failed apply must not leave its claim behind: the provider retries
// after the 500, and that retry has to reach the service instead of being
// acknowledged as a duplicate.
func TestWebhookHandler_FailedApplyDoesNotConsumeTheDelivery(t *testing.T) {
	svc := new(MockWebhookService)
	handler := NewWebhookHandler(svc, newMemoryReplayGuard(), testWebhookSecret)

	body := []byte(`{"event":"transfer.success","data":{"reference":"SP-ref-1"}}`)
	signature := sign(testWebhookSecret, body)

	svc.On("ApplyTransferEvent", mock.Anything, "transfer.success", "SP-ref-1", "").
		Return(assert.AnError).Once()
	svc.On("ApplyTransferEvent", mock.Anything, "transfer.success", "SP-ref-1", "").
		Return(nil).Once()

	first := setupWebhookContext(body, signature)
	handler.HandlePaystackEvent(first)
	assert.Equal(t, 500, first.Response.StatusCode())

	retry := setupWebhookContext(body, signature)
	handler.HandlePaystackEvent(retry)
	assert.Equal(t, 200, retry.Response.StatusCode())

	svc.AssertNumberOfCalls(t, "ApplyTransferEvent", 2)

	// now the claim sticks and an identical re-delivery short-circuits
	replay := setupWebhookContext(body, signature)
	handler.HandlePaystackEvent(replay)
	assert.Equal(t, 200, replay.Response.StatusCode())
	svc.AssertNumberOfCalls(t, "ApplyTransferEvent", 2)
}
