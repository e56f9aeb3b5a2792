package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalService drives a credit memo from draft to a terminal
// disposition. Applying to an invoice delegates to the allocation engine;
// applying to the account creates a fresh discrepancy credit grant; a
// refund only records the disposition, execution happens elsewhere.
type ApprovalService struct {
	memoRepo   memo.CreditMemoRepository
	grantRepo  ledger.CreditGrantRepository
	allocation *AllocationService
	locks      shared.CustomerLockManager
	logger     *zap.Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	memoRepo memo.CreditMemoRepository,
	grantRepo ledger.CreditGrantRepository,
	allocation *AllocationService,
	locks shared.CustomerLockManager,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		memoRepo:   memoRepo,
		grantRepo:  grantRepo,
		allocation: allocation,
		locks:      locks,
		logger:     logger,
	}
}

// ApproveRequest is a request to approve a credit memo with a disposition.
// TargetInvoiceRef is only used for apply_to_invoice and defaults to the
// memo's source invoice when empty.
type ApproveRequest struct {
	MemoRef          string
	CustomerChoice   string
	TargetInvoiceRef string
}

// Approve applies the customer's chosen disposition to a draft credit memo.
// If carrying out the disposition fails, the memo is left in draft. The
// whole operation runs under the memo customer's lock, so two concurrent
// approvals of the same memo cannot both pass the draft check.
func (s *ApprovalService) Approve(ctx context.Context, req ApproveRequest) (*ApprovalResult, error) {
	draft, err := s.findMemo(ctx, req.MemoRef)
	if err != nil {
		return nil, err
	}

	choice := memo.CustomerChoice(req.CustomerChoice)
	if !choice.IsValid() {
		return nil, shared.NewDomainError(shared.CodeUnknownAction,
			fmt.Sprintf("Unknown customer choice: %s", req.CustomerChoice))
	}

	release, err := s.locks.Acquire(ctx, draft.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire customer lock: %w", err)
	}
	defer release()

	// Re-read under the lock; a concurrent approval may have settled the
	// memo between the first read and the acquire
	draft, err = s.findMemo(ctx, draft.ID.String())
	if err != nil {
		return nil, err
	}
	if !draft.IsDraft() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Credit memo %s is already %s", draft.MemoNumber, draft.Status))
	}

	result := &ApprovalResult{}

	switch choice {
	case memo.ChoiceApplyToInvoice:
		targetRef := req.TargetInvoiceRef
		if targetRef == "" {
			targetRef = draft.InvoiceID.String()
		}

		customer, err := s.allocation.resolver.ResolveCustomer(ctx, draft.CustomerID.String())
		if err != nil {
			return nil, err
		}

		// The allocation runs under the lock already held here. Any
		// failure aborts the transition before the memo has been touched.
		allocation, err := s.allocation.applyToCustomer(ctx, customer, ApplyCreditRequest{
			InvoiceRef: targetRef,
			Amount:     draft.Amount,
		})
		if err != nil {
			return nil, err
		}
		result.Transaction = allocation.Transaction

		target := allocation.Transaction.InvoiceID
		if err := draft.Approve(choice, &target); err != nil {
			return nil, err
		}
		if err := s.memoRepo.SaveWithLock(ctx, draft); err != nil {
			return nil, fmt.Errorf("failed to save credit memo: %w", err)
		}

	case memo.ChoiceApplyToAccount:
		// The memo is settled before the grant exists: a grant failure
		// reverts the memo to draft, so a retry can never mint twice
		if err := draft.Approve(choice, nil); err != nil {
			return nil, err
		}
		if err := s.memoRepo.SaveWithLock(ctx, draft); err != nil {
			return nil, fmt.Errorf("failed to save credit memo: %w", err)
		}

		grant, err := ledger.NewDiscrepancyCreditGrant(draft.CustomerID, draft.GetAmountMoney(), draft.Reason)
		if err == nil {
			err = s.grantRepo.Save(ctx, grant)
		}
		if err != nil {
			s.revertToDraft(ctx, draft)
			return nil, fmt.Errorf("failed to save credit grant: %w", err)
		}
		grantID := grant.ID
		result.GrantID = &grantID

	case memo.ChoiceRefund:
		if err := draft.Approve(choice, nil); err != nil {
			return nil, err
		}
		if err := s.memoRepo.SaveWithLock(ctx, draft); err != nil {
			return nil, fmt.Errorf("failed to save credit memo: %w", err)
		}
	}

	s.logger.Info("Credit memo approved",
		zap.String("memo_number", draft.MemoNumber),
		zap.String("choice", string(choice)),
		zap.String("status", string(draft.Status)))

	result.CreditMemo = memoView(draft)
	return result, nil
}

// revertToDraft undoes a settled memo whose disposition could not be
// persisted. Best effort: a failure here is logged and left for operators,
// the memo then reports a disposition that was never carried out.
func (s *ApprovalService) revertToDraft(ctx context.Context, m *memo.CreditMemo) {
	if err := m.RevertToDraft(); err != nil {
		s.logger.Error("Failed to revert credit memo", zap.String("memo_number", m.MemoNumber), zap.Error(err))
		return
	}
	if err := s.memoRepo.SaveWithLock(ctx, m); err != nil {
		s.logger.Error("Failed to save reverted credit memo", zap.String("memo_number", m.MemoNumber), zap.Error(err))
	}
}

func (s *ApprovalService) findMemo(ctx context.Context, ref string) (*memo.CreditMemo, error) {
	if ref == "" {
		return nil, shared.ErrCreditMemoNotFound
	}

	var found *memo.CreditMemo
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		found, err = s.memoRepo.FindByID(ctx, id)
	} else {
		found, err = s.memoRepo.FindByMemoNumber(ctx, ref)
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up credit memo: %w", err)
	}
	if found == nil {
		return nil, shared.NewDomainError(shared.CodeCreditMemoNotFound,
			fmt.Sprintf("Credit memo %q not found", ref))
	}
	return found, nil
}
