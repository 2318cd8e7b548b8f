package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// AssistClient calls the hosted model endpoint for department suggestion
// and description enhancement. One request, one response; failures are
// reported to the caller, never retried here.
type AssistClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *fasthttp.Client
}

type AssistConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewAssistClient(config AssistConfig) (*AssistClient, error) {
	if config.BaseURL == "" {
		return nil, errors.New("assist base url is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}
	return &AssistClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		timeout: config.Timeout,
		client: &fasthttp.Client{
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
		},
	}, nil
}

type suggestDepartmentRequest struct {
	Vendor      string `json:"vendor"`
	Description string `json:"description"`
}

type suggestDepartmentResponse struct {
	Department string `json:"department"`
	Reason     string `json:"reason"`
}

func (c *AssistClient) SuggestDepartment(ctx context.Context, vendor, description string) (department, reason string, err error) {
	body, err := json.Marshal(suggestDepartmentRequest{Vendor: vendor, Description: description})
	if err != nil {
		return "", "", err
	}

	respBody, err := c.doRequest(ctx, "/v1/suggest-department", body)
	if err != nil {
		return "", "", err
	}

	var resp suggestDepartmentResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", "", fmt.Errorf("failed to unmarshal suggestion: %w", err)
	}
	return resp.Department, resp.Reason, nil
}

type enhanceDescriptionRequest struct {
	BriefDescription string `json:"brief_description"`
}

type enhanceDescriptionResponse struct {
	EnhancedDescription string `json:"enhanced_description"`
}

func (c *AssistClient) EnhanceDescription(ctx context.Context, brief string) (string, error) {
	body, err := json.Marshal(enhanceDescriptionRequest{BriefDescription: brief})
	if err != nil {
		return "", err
	}

	respBody, err := c.doRequest(ctx, "/v1/enhance-description", body)
	if err != nil {
		return "", err
	}

	var resp enhanceDescriptionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal enhancement: %w", err)
	}
	return resp.EnhancedDescription, nil
}

func (c *AssistClient) doRequest(ctx context.Context, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode(), resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}
