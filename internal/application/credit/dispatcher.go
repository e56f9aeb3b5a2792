package credit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Operation names accepted by the dispatcher
const (
	ActionApplyCredit             = "apply_credit"
	ActionGetBalance              = "get_balance"
	ActionGetPurchaseHistory      = "get_purchase_history"
	ActionReportQuantityShortage  = "report_quantity_shortage"
	ActionReportDamage            = "report_damage"
	ActionApproveCreditMemo       = "approve_credit_memo"
	ActionReconcilePartialPayment = "reconcile_partial_payment"
)

// Dispatcher routes a named operation with a raw JSON payload to the
// matching service call. Unrecognized operation names are reported, not
// treated as faults.
type Dispatcher struct {
	ledger         *LedgerService
	allocation     *AllocationService
	reconciliation *ReconciliationService
	discrepancy    *DiscrepancyService
	approval       *ApprovalService
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	ledgerSvc *LedgerService,
	allocation *AllocationService,
	reconciliation *ReconciliationService,
	discrepancy *DiscrepancyService,
	approval *ApprovalService,
) *Dispatcher {
	return &Dispatcher{
		ledger:         ledgerSvc,
		allocation:     allocation,
		reconciliation: reconciliation,
		discrepancy:    discrepancy,
		approval:       approval,
	}
}

type applyCreditPayload struct {
	CustomerRef    string          `json:"customer_ref"`
	InvoiceRef     string          `json:"invoice_ref"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type customerPayload struct {
	CustomerRef string `json:"customer_ref"`
}

type shortagePayload struct {
	CustomerRef     string          `json:"customer_ref"`
	InvoiceRef      string          `json:"invoice_ref"`
	MissingQuantity decimal.Decimal `json:"missing_quantity"`
	ItemDescription string          `json:"item_description"`
}

type damagePayload struct {
	CustomerRef       string `json:"customer_ref"`
	InvoiceRef        string `json:"invoice_ref"`
	ItemDescription   string `json:"item_description"`
	DamageDescription string `json:"damage_description"`
}

type approvePayload struct {
	MemoRef          string `json:"memo_ref"`
	CustomerChoice   string `json:"customer_choice"`
	TargetInvoiceRef string `json:"target_invoice_ref"`
}

type reconcilePayload struct {
	CustomerRef   string           `json:"customer_ref"`
	InvoiceRef    string           `json:"invoice_ref"`
	PaidAmount    decimal.Decimal  `json:"paid_amount"`
	InvoiceAmount *decimal.Decimal `json:"invoice_amount"`
}

// Dispatch executes the named operation with the given JSON payload
func (d *Dispatcher) Dispatch(ctx context.Context, action string, payload json.RawMessage) (interface{}, error) {
	switch action {
	case ActionApplyCredit:
		var p applyCreditPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.allocation.ApplyCredit(ctx, ApplyCreditRequest{
			CustomerRef:    p.CustomerRef,
			InvoiceRef:     p.InvoiceRef,
			Amount:         p.Amount,
			IdempotencyKey: p.IdempotencyKey,
		})

	case ActionGetBalance:
		var p customerPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.ledger.ActiveCredits(ctx, p.CustomerRef)

	case ActionGetPurchaseHistory:
		var p customerPayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.ledger.GetPurchaseHistory(ctx, p.CustomerRef)

	case ActionReportQuantityShortage:
		var p shortagePayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.discrepancy.ReportQuantityShortage(ctx, p.CustomerRef, p.InvoiceRef, p.MissingQuantity, p.ItemDescription)

	case ActionReportDamage:
		var p damagePayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.discrepancy.ReportDamage(ctx, p.CustomerRef, p.InvoiceRef, p.ItemDescription, p.DamageDescription)

	case ActionApproveCreditMemo:
		var p approvePayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.approval.Approve(ctx, ApproveRequest{
			MemoRef:          p.MemoRef,
			CustomerChoice:   p.CustomerChoice,
			TargetInvoiceRef: p.TargetInvoiceRef,
		})

	case ActionReconcilePartialPayment:
		var p reconcilePayload
		if err := decodePayload(payload, &p); err != nil {
			return nil, err
		}
		return d.reconciliation.ReconcilePartialPayment(ctx, ReconcileRequest{
			CustomerRef:   p.CustomerRef,
			InvoiceRef:    p.InvoiceRef,
			PaidAmount:    p.PaidAmount,
			InvoiceAmount: p.InvoiceAmount,
		})

	default:
		return nil, shared.NewDomainError(shared.CodeUnknownAction,
			fmt.Sprintf("Unknown action: %s", action))
	}
}

func decodePayload(payload json.RawMessage, target interface{}) error {
	if len(payload) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Request payload is required")
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Malformed request payload: %v", err))
	}
	return nil
}
