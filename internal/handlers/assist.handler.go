package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/shirapay/shirapay/internal/services"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/valyala/fasthttp"
)

type AssistService interface {
	SuggestDepartment(ctx context.Context, organizationID, vendor, description string) (*services.Suggestion, error)
	EnhanceDescription(ctx context.Context, brief string) (string, error)
}

type AssistHandler struct {
	svc AssistService
}

func NewAssistHandler(svc AssistService) *AssistHandler {
	return &AssistHandler{svc: svc}
}

func RegisterAssistRoutes(e *router.Group, h *AssistHandler) {
	e.POST("/assist/suggest-department", h.SuggestDepartment)
	e.POST("/assist/enhance-description", h.EnhanceDescription)
}

type suggestDepartmentRequest struct {
	OrganizationID string `json:"organization_id"`
	Vendor         string `json:"vendor"`
	Description    string `json:"description"`
}

type enhanceDescriptionRequest struct {
	Description string `json:"description"`
}

func (h *AssistHandler) SuggestDepartment(ctx *xhttp.RequestCtx) {
	var req suggestDepartmentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.OrganizationID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "organization_id is required")
		return
	}

	suggestion, err := h.svc.SuggestDepartment(ctx, req.OrganizationID, req.Vendor, req.Description)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, suggestion)
}

func (h *AssistHandler) EnhanceDescription(ctx *xhttp.RequestCtx) {
	var req enhanceDescriptionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	enhanced, err := h.svc.EnhanceDescription(ctx, req.Description)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"enhanced_description": enhanced})
}
