package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/shirapay/shirapay/internal/model"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/valyala/fasthttp"
)

type OrganizationService interface {
	Create(ctx context.Context, p model.OrganizationCreateRequest) (*model.Organization, error)
	Get(ctx context.Context, id string) (*model.Organization, error)
	AddAdmin(ctx context.Context, id, adminID string) error
}

type OrganizationHandler struct {
	svc OrganizationService
}

func NewOrganizationHandler(svc OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{svc: svc}
}

func RegisterOrganizationRoutes(e *router.Group, h *OrganizationHandler) {
	e.POST("/organizations", h.CreateOrganization)
	e.GET("/organizations/{id}", h.GetOrganization)
	e.POST("/organizations/{id}/admins", h.AddAdmin)
}

type createOrganizationRequest struct {
	Name         string   `json:"name"`
	ContactEmail string   `json:"contact_email"`
	Departments  []string `json:"departments"`
	AdminID      string   `json:"admin_id"`
}

type addAdminRequest struct {
	AdminID string `json:"admin_id"`
}

func (h *OrganizationHandler) CreateOrganization(ctx *xhttp.RequestCtx) {
	var req createOrganizationRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	org, err := h.svc.Create(ctx, model.OrganizationCreateRequest{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Departments:  req.Departments,
		AdminID:      req.AdminID,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, org)
}

func (h *OrganizationHandler) GetOrganization(ctx *xhttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	org, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, org)
}

func (h *OrganizationHandler) AddAdmin(ctx *xhttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	var req addAdminRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.AdminID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "admin_id is required")
		return
	}

	if err := h.svc.AddAdmin(ctx, id, req.AdminID); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}
