package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/internal/services"
	xhttp "github.com/shirapay/shirapay/pkg/http"
	"github.com/valyala/fasthttp"
)

type TransactionService interface {
	Create(ctx context.Context, p model.TransactionCreateRequest) (*model.Transaction, error)
	SubmitForApproval(ctx context.Context, p model.SubmitRequest) error
	Approve(ctx context.Context, id, adminID string) (*model.Transaction, error)
	Reject(ctx context.Context, id, adminID, reason string) error
	Get(ctx context.Context, id string) (*model.Transaction, error)
	List(ctx context.Context, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

type TransactionHandler struct {
	svc TransactionService
}

func NewTransactionHandler(svc TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

func RegisterTransactionRoutes(e *router.Group, h *TransactionHandler) {
	e.POST("/transactions", h.CreateTransaction)
	e.GET("/transactions", h.ListTransactions)
	e.GET("/transactions/{id}", h.GetTransaction)
	e.POST("/transactions/{id}/submit", h.SubmitTransaction)
	e.POST("/transactions/{id}/approve", h.ApproveTransaction)
	e.POST("/transactions/{id}/reject", h.RejectTransaction)
}

type createTransactionRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	VendorID    string `json:"vendor_id"`
	VendorName  string `json:"vendor_name"`
	VendorEmail string `json:"vendor_email"`
}

type submitTransactionRequest struct {
	AgentID        string `json:"agent_id"`
	OrganizationID string `json:"organization_id"`
	Department     string `json:"department"`
}

type approveTransactionRequest struct {
	AdminID string `json:"admin_id"`
}

type rejectTransactionRequest struct {
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason"`
}

type listTransactionsResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *TransactionHandler) CreateTransaction(ctx *xhttp.RequestCtx) {
	var req createTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	txn, err := h.svc.Create(ctx, model.TransactionCreateRequest{
		Amount:      req.Amount,
		Description: req.Description,
		VendorID:    req.VendorID,
		VendorName:  req.VendorName,
		VendorEmail: req.VendorEmail,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, txn)
}

func (h *TransactionHandler) GetTransaction(ctx *xhttp.RequestCtx) {
	id, ok := ctx.UserValue("id").(string)
	if !ok || id == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "transaction id is required")
		return
	}

	txn, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, txn)
}

func (h *TransactionHandler) SubmitTransaction(ctx *xhttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	var req submitTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	err := h.svc.SubmitForApproval(ctx, model.SubmitRequest{
		TransactionID:  id,
		AgentID:        req.AgentID,
		OrganizationID: req.OrganizationID,
		Department:     req.Department,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": string(model.StatusPendingApproval)})
}

func (h *TransactionHandler) ApproveTransaction(ctx *xhttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	var req approveTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.AdminID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "admin_id is required")
		return
	}

	txn, err := h.svc.Approve(ctx, id, req.AdminID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, txn)
}

func (h *TransactionHandler) RejectTransaction(ctx *xhttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	var req rejectTransactionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.AdminID == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "admin_id is required")
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		writeError(ctx, fasthttp.StatusBadRequest, "reason is required")
		return
	}

	if err := h.svc.Reject(ctx, id, req.AdminID, req.Reason); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": string(model.StatusRejected)})
}

func (h *TransactionHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	var f model.TransactionFilter

	if v := query(ctx, "vendor_id"); v != "" {
		f.VendorID = &v
	}
	if v := query(ctx, "agent_id"); v != "" {
		f.AgentID = &v
	}
	if v := query(ctx, "organization_id"); v != "" {
		f.OrganizationID = &v
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.TransactionStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, listTransactionsResponse{Items: items, Total: total})
}

/* -------------------------------- Helpers ------------------------------------ */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps service sentinel errors onto response codes.
// Anything unrecognized is a validation failure from a request struct.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, fasthttp.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrDecisionConflict):
		writeError(ctx, fasthttp.StatusConflict, err.Error())
	case errors.Is(err, services.ErrAdminWrongOrganization):
		writeError(ctx, fasthttp.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrVendorNotFound),
		errors.Is(err, services.ErrRecipientNotConfigured):
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrTransferFailed):
		writeError(ctx, fasthttp.StatusBadGateway, err.Error())
	default:
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
