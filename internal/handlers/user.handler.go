package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/shirapay/shirapay/internal/model"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/valyala/fasthttp"
)

type UserService interface {
	SignUp(ctx context.Context, p model.UserCreateRequest) (*model.UserProfile, error)
	Get(ctx context.Context, uid string) (*model.UserProfile, error)
	ApproveStaff(ctx context.Context, uid string) error
	RejectStaff(ctx context.Context, uid string) error
	ListPendingStaff(ctx context.Context, linkedAdminID string) ([]*model.UserProfile, error)
	UpdateKYC(ctx context.Context, uid string, status model.KYCStatus) error
	SetRecipientCode(ctx context.Context, uid, code string) error
}

type UserHandler struct {
	svc UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func RegisterUserRoutes(e *router.Group, h *UserHandler) {
	e.POST("/users", h.SignUp)
	e.GET("/users/{id}", h.GetUser)
	e.POST("/users/{id}/approve", h.ApproveStaff)
	e.POST("/users/{id}/reject", h.RejectStaff)
	e.PUT("/users/{id}/kyc", h.UpdateKYC)
	e.PUT("/users/{id}/recipient-code", h.SetRecipientCode)
	e.GET("/admins/{id}/pending-staff", h.ListPendingStaff)
}

type signUpRequest struct {
	UID            string `json:"uid"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	LinkedAdminID  string `json:"linked_admin_id"`
}

type updateKYCRequest struct {
	Status string `json:"status"`
}

type recipientCodeRequest struct {
	RecipientCode string `json:"recipient_code"`
}

type pendingStaffResponse struct {
	Items []*model.UserProfile `json:"items"`
}

func (h *UserHandler) SignUp(ctx *xhttp.RequestCtx) {
	var req signUpRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	profile, err := h.svc.SignUp(ctx, model.UserCreateRequest{
		UID:            req.UID,
		Name:           req.Name,
		Email:          req.Email,
		Role:           req.Role,
		OrganizationID: req.OrganizationID,
		LinkedAdminID:  req.LinkedAdminID,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, profile)
}

func (h *UserHandler) GetUser(ctx *xhttp.RequestCtx) {
	uid, _ := ctx.UserValue("id").(string)

	profile, err := h.svc.Get(ctx, uid)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, profile)
}

func (h *UserHandler) ApproveStaff(ctx *xhttp.RequestCtx) {
	uid, _ := ctx.UserValue("id").(string)

	if err := h.svc.ApproveStaff(ctx, uid); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"approval_status": string(model.ApprovalVerified)})
}

func (h *UserHandler) RejectStaff(ctx *xhttp.RequestCtx) {
	uid, _ := ctx.UserValue("id").(string)

	if err := h.svc.RejectStaff(ctx, uid); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"approval_status": string(model.ApprovalRejected)})
}

func (h *UserHandler) ListPendingStaff(ctx *xhttp.RequestCtx) {
	adminID, _ := ctx.UserValue("id").(string)

	items, err := h.svc.ListPendingStaff(ctx, adminID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, pendingStaffResponse{Items: items})
}

func (h *UserHandler) UpdateKYC(ctx *xhttp.RequestCtx) {
	uid, _ := ctx.UserValue("id").(string)

	var req updateKYCRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	status := model.KYCStatus(req.Status)
	switch status {
	case model.KYCNone, model.KYCPending, model.KYCVerified, model.KYCRejected:
	default:
		writeError(ctx, fasthttp.StatusBadRequest, "unknown kyc status")
		return
	}

	if err := h.svc.UpdateKYC(ctx, uid, status); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"kyc_status": string(status)})
}

func (h *UserHandler) SetRecipientCode(ctx *xhttp.RequestCtx) {
	uid, _ := ctx.UserValue("id").(string)

	var req recipientCodeRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := h.svc.SetRecipientCode(ctx, uid, req.RecipientCode); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}
