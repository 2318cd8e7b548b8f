package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TransferStatus mirrors the provider's transfer lifecycle values.
type TransferStatus string

const (
	StatusPending  TransferStatus = "pending"
	StatusSuccess  TransferStatus = "success"
	StatusFailed   TransferStatus = "failed"
	StatusReversed TransferStatus = "reversed"
)

type transferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Reason    string `json:"reason"`
	Reference string `json:"reference" binding:"required"`
}

type transferData struct {
	Reference    string         `json:"reference"`
	TransferCode string         `json:"transfer_code"`
	Status       TransferStatus `json:"status"`
	Amount       int64          `json:"amount"`
	Reason       string         `json:"reason,omitempty"`
}

type webhookEvent struct {
	Event string       `json:"event"`
	Data  transferData `json:"data"`
}

// MockProvider simulates the payment provider: transfers queue instantly
// and settle later by posting a signed webhook back to the API.
type MockProvider struct {
	successRate   float64
	reversalRate  float64
	minDelay      time.Duration
	maxDelay      time.Duration
	webhookURL    string
	webhookSecret string
	rng           *rand.Rand
}

func NewMockProvider(successRate, reversalRate float64, minDelay, maxDelay time.Duration, webhookURL, webhookSecret string) *MockProvider {
	return &MockProvider{
		successRate:   successRate,
		reversalRate:  reversalRate,
		minDelay:      minDelay,
		maxDelay:      maxDelay,
		webhookURL:    webhookURL,
		webhookSecret: webhookSecret,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *MockProvider) queueTransfer(req *transferRequest) transferData {
	data := transferData{
		Reference:    req.Reference,
		TransferCode: "TRF_" + uuid.New().String()[:12],
		Status:       StatusPending,
		Amount:       req.Amount,
	}

	go p.settleLater(data)
	return data
}

// settleLater waits a random delay, then delivers the settlement webhook.
// Occasionally a success is followed by a reversal, like the real thing.
func (p *MockProvider) settleLater(data transferData) {
	time.Sleep(p.randomDelay())

	if p.rng.Float64() < p.successRate {
		data.Status = StatusSuccess
		p.deliverWebhook("transfer.success", data)

		if p.rng.Float64() < p.reversalRate {
			time.Sleep(p.randomDelay())
			data.Status = StatusReversed
			p.deliverWebhook("transfer.reversed", data)
		}
		return
	}

	data.Status = StatusFailed
	data.Reason = p.randomFailureReason()
	p.deliverWebhook("transfer.failed", data)
}

func (p *MockProvider) deliverWebhook(event string, data transferData) {
	if p.webhookURL == "" {
		log.Warn().Str("event", event).Msg("no webhook URL configured, dropping event")
		return
	}

	body, err := json.Marshal(webhookEvent{Event: event, Data: data})
	if err != nil {
		return
	}

	mac := hmac.New(sha512.New, []byte(p.webhookSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req, err := http.NewRequest(http.MethodPost, p.webhookURL, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-paystack-signature", signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("event", event).Str("reference", data.Reference).Msg("webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	log.Info().
		Str("event", event).
		Str("reference", data.Reference).
		Int("status", resp.StatusCode).
		Msg("webhook delivered")

	// a non-200 asks for redelivery
	if resp.StatusCode != http.StatusOK {
		time.Sleep(p.randomDelay())
		p.deliverWebhook(event, data)
	}
}

func (p *MockProvider) randomDelay() time.Duration {
	delta := p.maxDelay - p.minDelay
	if delta <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(p.rng.Int63n(int64(delta)))
}

func (p *MockProvider) randomFailureReason() string {
	reasons := []string{
		"Insufficient balance",
		"Recipient account unable to receive funds",
		"Transfer limit exceeded",
		"Recipient bank unavailable",
	}
	return reasons[p.rng.Intn(len(reasons))]
}

type Handler struct {
	provider *MockProvider
}

func NewHandler(provider *MockProvider) *Handler {
	return &Handler{provider: provider}
}

// InitiateTransfer mimics POST /transfer: validate, queue, answer
// synchronously with status pending.
func (h *Handler) InitiateTransfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  false,
			"message": "Invalid request: " + err.Error(),
		})
		return
	}

	log.Info().
		Str("reference", req.Reference).
		Str("recipient", req.Recipient).
		Int64("amount", req.Amount).
		Msg("transfer request received")

	data := h.provider.queueTransfer(&req)

	c.JSON(http.StatusOK, gin.H{
		"status":  true,
		"message": "Transfer has been queued",
		"data":    data,
	})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"success_rate": h.provider.successRate,
		"timestamp":    time.Now(),
	})
}

// UpdateConfig changes the simulated settlement behavior at runtime.
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		SuccessRate  *float64 `json:"success_rate"`
		ReversalRate *float64 `json:"reversal_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if config.SuccessRate != nil && *config.SuccessRate >= 0 && *config.SuccessRate <= 1.0 {
		h.provider.successRate = *config.SuccessRate
		log.Info().Float64("rate", *config.SuccessRate).Msg("updated success rate")
	}
	if config.ReversalRate != nil && *config.ReversalRate >= 0 && *config.ReversalRate <= 1.0 {
		h.provider.reversalRate = *config.ReversalRate
		log.Info().Float64("rate", *config.ReversalRate).Msg("updated reversal rate")
	}

	c.JSON(http.StatusOK, gin.H{
		"success_rate":  h.provider.successRate,
		"reversal_rate": h.provider.reversalRate,
	})
}

func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	router.POST("/transfer", handler.InitiateTransfer)
	router.GET("/health", handler.HealthCheck)
	router.PUT("/config", handler.UpdateConfig)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	successRate := getEnvFloat("SUCCESS_RATE", 0.9)
	reversalRate := getEnvFloat("REVERSAL_RATE", 0.05)
	minDelay := getEnvDuration("MIN_DELAY", 1*time.Second)
	maxDelay := getEnvDuration("MAX_DELAY", 10*time.Second)
	webhookURL := getEnv("WEBHOOK_URL", "http://localhost:8080/api/v1/webhooks/paystack")
	webhookSecret := getEnv("WEBHOOK_SECRET", "")

	if webhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET is empty, deliveries will fail signature verification")
	}

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Str("webhook_url", webhookURL).
		Msg("starting payment provider simulator")

	provider := NewMockProvider(successRate, reversalRate, minDelay, maxDelay, webhookURL, webhookSecret)
	handler := NewHandler(provider)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
