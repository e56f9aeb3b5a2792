package handler

import (
	"encoding/json"

	creditapp "github.com/creditledger/backend/internal/application/credit"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreditHandler exposes the credit ledger and allocation API endpoints
type CreditHandler struct {
	BaseHandler
	ledger         *creditapp.LedgerService
	allocation     *creditapp.AllocationService
	reconciliation *creditapp.ReconciliationService
	discrepancy    *creditapp.DiscrepancyService
	approval       *creditapp.ApprovalService
	dispatcher     *creditapp.Dispatcher
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(
	ledger *creditapp.LedgerService,
	allocation *creditapp.AllocationService,
	reconciliation *creditapp.ReconciliationService,
	discrepancy *creditapp.DiscrepancyService,
	approval *creditapp.ApprovalService,
	dispatcher *creditapp.Dispatcher,
) *CreditHandler {
	return &CreditHandler{
		ledger:         ledger,
		allocation:     allocation,
		reconciliation: reconciliation,
		discrepancy:    discrepancy,
		approval:       approval,
		dispatcher:     dispatcher,
	}
}

// ApplyCreditRequest represents a request to apply credits to an invoice.
// InvoiceRef may be omitted; the allocation then targets the customer's
// latest pending invoice.
type ApplyCreditRequest struct {
	CustomerRef    string          `json:"customer_ref" binding:"required,min=1,max=200"`
	InvoiceRef     string          `json:"invoice_ref" binding:"omitempty,max=50"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key" binding:"max=200"`
}

// ApplyCredit applies a customer's available credits against an invoice
func (h *CreditHandler) ApplyCredit(c *gin.Context) {
	var req ApplyCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.allocation.ApplyCredit(c.Request.Context(), creditapp.ApplyCreditRequest{
		CustomerRef:    req.CustomerRef,
		InvoiceRef:     req.InvoiceRef,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetBalance returns a customer's active credits and total available balance
func (h *CreditHandler) GetBalance(c *gin.Context) {
	ref := c.Param("ref")
	result, err := h.ledger.ActiveCredits(c.Request.Context(), ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetPurchaseHistory returns a customer's invoices, newest first
func (h *CreditHandler) GetPurchaseHistory(c *gin.Context) {
	ref := c.Param("ref")
	result, err := h.ledger.GetPurchaseHistory(c.Request.Context(), ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AccrueRewardRequest represents a request to grant purchase reward credit
type AccrueRewardRequest struct {
	CustomerRef string          `json:"customer_ref" binding:"required,min=1,max=200"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// AccrueReward grants a purchase reward credit to a customer
func (h *CreditHandler) AccrueReward(c *gin.Context) {
	var req AccrueRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	amount := valueobject.NewMoneyUSD(req.Amount)
	grant, err := h.ledger.AccruePurchaseReward(c.Request.Context(), req.CustomerRef, amount, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, grant)
}

// ReportShortageRequest represents a quantity shortage report
type ReportShortageRequest struct {
	CustomerRef     string          `json:"customer_ref" binding:"required,min=1,max=200"`
	InvoiceRef      string          `json:"invoice_ref" binding:"required,min=1,max=50"`
	MissingQuantity decimal.Decimal `json:"missing_quantity"`
	ItemDescription string          `json:"item_description" binding:"max=200"`
}

// ReportQuantityShortage files a shortage report and drafts a credit memo
func (h *CreditHandler) ReportQuantityShortage(c *gin.Context) {
	var req ReportShortageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.discrepancy.ReportQuantityShortage(
		c.Request.Context(), req.CustomerRef, req.InvoiceRef, req.MissingQuantity, req.ItemDescription)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ReportDamageRequest represents a damaged goods report
type ReportDamageRequest struct {
	CustomerRef       string `json:"customer_ref" binding:"required,min=1,max=200"`
	InvoiceRef        string `json:"invoice_ref" binding:"required,min=1,max=50"`
	ItemDescription   string `json:"item_description" binding:"max=200"`
	DamageDescription string `json:"damage_description" binding:"max=1000"`
}

// ReportDamage files a damage report and drafts a credit memo for the
// affected line item
func (h *CreditHandler) ReportDamage(c *gin.Context) {
	var req ReportDamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.discrepancy.ReportDamage(
		c.Request.Context(), req.CustomerRef, req.InvoiceRef, req.ItemDescription, req.DamageDescription)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ApproveMemoRequest represents the customer's chosen memo disposition
type ApproveMemoRequest struct {
	CustomerChoice   string `json:"customer_choice" binding:"required,oneof=apply_to_invoice apply_to_account refund"`
	TargetInvoiceRef string `json:"target_invoice_ref" binding:"max=50"`
}

// ApproveCreditMemo approves a draft memo and carries out the chosen
// disposition
func (h *CreditHandler) ApproveCreditMemo(c *gin.Context) {
	memoRef := c.Param("ref")

	var req ApproveMemoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.approval.Approve(c.Request.Context(), creditapp.ApproveRequest{
		MemoRef:          memoRef,
		CustomerChoice:   req.CustomerChoice,
		TargetInvoiceRef: req.TargetInvoiceRef,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ReconcileRequest represents a partial payment reconciliation request
type ReconcileRequest struct {
	CustomerRef   string           `json:"customer_ref" binding:"required,min=1,max=200"`
	InvoiceRef    string           `json:"invoice_ref" binding:"max=50"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	InvoiceAmount *decimal.Decimal `json:"invoice_amount"`
}

// ReconcilePartialPayment previews how available credits could close the gap
// left by a partial payment. Nothing is persisted.
func (h *CreditHandler) ReconcilePartialPayment(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reconciliation.ReconcilePartialPayment(c.Request.Context(), creditapp.ReconcileRequest{
		CustomerRef:   req.CustomerRef,
		InvoiceRef:    req.InvoiceRef,
		PaidAmount:    req.PaidAmount,
		InvoiceAmount: req.InvoiceAmount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// OperationRequest represents a named operation with a raw payload
type OperationRequest struct {
	Action  string          `json:"action" binding:"required,min=1,max=100"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch routes a named operation to the matching service call. This is
// the single entry point for clients that drive the engine by action name.
func (h *CreditHandler) Dispatch(c *gin.Context) {
	var req OperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), req.Action, req.Payload)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
