package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shirapay/shirapay/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	// ErrTransferRejected is returned when the provider synchronously
	// refuses a transfer request.
	ErrTransferRejected = errors.New("transfer rejected by provider")
)

// TransferRequest is the outbound transfer call. Amount is in major units;
// the client converts to the provider's minor unit on the wire.
type TransferRequest struct {
	Amount    int64
	Recipient string
	Reason    string
	Reference string
}

// TransferResult is the provider's synchronous answer. A queued transfer
// is not settled; settlement arrives later on the webhook.
type TransferResult struct {
	Reference    string
	TransferCode string
	Status       string
	Message      string
}

type transferPayload struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

type transferEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Reference    string `json:"reference"`
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	} `json:"data"`
}

type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	MaxConns  int
}

type PaystackClient struct {
	config PaystackConfig
	client *fasthttp.Client
}

func NewPaystackClient(config PaystackConfig) (*PaystackClient, error) {
	if config.BaseURL == "" {
		return nil, errors.New("paystack base url is required")
	}
	if config.SecretKey == "" {
		return nil, errors.New("paystack secret key is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxConns == 0 {
		config.MaxConns = 64
	}

	return &PaystackClient{
		config: config,
		client: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}, nil
}

// InitiateTransfer requests a transfer to the recipient. A nil error means
// the provider accepted and queued it, nothing more.
func (c *PaystackClient) InitiateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	payload := transferPayload{
		Source:    "balance",
		Amount:    req.Amount * 100, // provider expects minor units
		Recipient: req.Recipient,
		Reason:    req.Reason,
		Reference: req.Reference,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transfer request: %w", err)
	}

	respBody, err := c.doRequest(ctx, "POST", "/transfer", body)
	if err != nil {
		return nil, err
	}

	var envelope transferEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transfer response: %w", err)
	}

	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrTransferRejected, envelope.Message)
	}

	logger.Info("transfer queued with provider",
		"reference", envelope.Data.Reference,
		"transfer_code", envelope.Data.TransferCode,
		"status", envelope.Data.Status)

	return &TransferResult{
		Reference:    envelope.Data.Reference,
		TransferCode: envelope.Data.TransferCode,
		Status:       envelope.Data.Status,
		Message:      envelope.Message,
	}, nil
}

func (c *PaystackClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)

	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusCreated {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}
