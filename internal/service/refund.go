package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/events"
	"uitvaartpay/internal/rail"
)

type RefundRepository interface {
	Create(ctx context.Context, ref *domain.RefundRequest) error
	Update(ctx context.Context, ref *domain.RefundRequest) error
	GetByID(ctx context.Context, id string) (*domain.RefundRequest, error)
	GetByRailRef(ctx context.Context, railRef string) (*domain.RefundRequest, error)
	ListByIntent(ctx context.Context, paymentIntentID string) ([]domain.RefundRequest, error)
	SumReserved(ctx context.Context, paymentIntentID string) (int64, error)
}

type CreateRefundRequest struct {
	PaymentIntentID string
	// Amount is nil for a full refund of the remaining balance.
	Amount        *domain.Money
	Reason        domain.RefundReason
	Description   string
	InitiatedBy   string
	CorrelationID string
}

// RefundService validates and routes refunds. Reasons that are
// operator-verifiable facts go to the rail immediately; subjective reasons
// wait in pending for an explicit approval. The remaining-balance check
// runs under a per-intent lock so a concurrent approval and automatic
// refund cannot both pass it.
type RefundService struct {
	intents IntentRepository
	refunds RefundRepository
	rails   *rail.Registry
	events  events.Sink
	locks   keyedMutex
}

func NewRefundService(intents IntentRepository, refunds RefundRepository, rails *rail.Registry, sink events.Sink) *RefundService {
	return &RefundService{intents: intents, refunds: refunds, rails: rails, events: sink}
}

func (s *RefundService) CreateRefund(ctx context.Context, req CreateRefundRequest) (*domain.RefundRequest, error) {
	if !req.Reason.Known() {
		return nil, domain.ErrInvalidRefundReason
	}
	if !req.Reason.Refundable() {
		return nil, domain.ErrNonRefundable
	}

	unlock := s.locks.lock(req.PaymentIntentID)
	defer unlock()

	intent, err := s.intents.GetByID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != domain.IntentCompleted && intent.Status != domain.IntentPartiallyRefunded {
		return nil, domain.ErrInvalidTransition
	}

	remaining, err := s.remainingBalance(ctx, intent, 0)
	if err != nil {
		return nil, err
	}

	amount := domain.NewMoney(remaining, intent.Amount.Currency)
	if req.Amount != nil {
		if req.Amount.Currency != intent.Amount.Currency {
			return nil, domain.ErrInvalidAmount
		}
		amount = *req.Amount
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if amount.Amount > remaining {
		return nil, domain.ErrRefundExceedsBalance
	}

	ref := &domain.RefundRequest{
		ID:              uuid.NewString(),
		PaymentIntentID: intent.ID,
		Amount:          amount,
		Reason:          req.Reason,
		Description:     req.Description,
		InitiatedBy:     req.InitiatedBy,
		Status:          domain.RefundPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.refunds.Create(ctx, ref); err != nil {
		return nil, err
	}

	if req.Reason.Automatic() {
		if err := s.submitToRail(ctx, intent, ref, req.CorrelationID); err != nil {
			// The record stays pending and keeps its balance reservation;
			// an operator can resubmit through the approval path.
			log.Printf("[refund] automatic refund %s not submitted, correlation_id=%s: %v", ref.ID, req.CorrelationID, err)
			return ref, err
		}
	}

	s.events.Emit(ctx, events.New(domain.EventRefundCreated, req.CorrelationID, ref))
	return ref, nil
}

// ApproveRefund releases a pending refund to the rail. The balance is
// re-checked under the intent lock: another refund may have landed between
// creation and approval.
func (s *RefundService) ApproveRefund(ctx context.Context, id, approvedBy, correlationID string) (*domain.RefundRequest, error) {
	ref, err := s.refunds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(ref.PaymentIntentID)
	defer unlock()

	// Re-read under the lock: a concurrent approval of the same refund may
	// have already submitted it while we waited.
	ref, err = s.refunds.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.Status != domain.RefundPending {
		return nil, domain.ErrInvalidTransition
	}

	intent, err := s.intents.GetByID(ctx, ref.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	// Exclude this refund's own reservation from the ceiling check.
	remaining, err := s.remainingBalance(ctx, intent, ref.Amount.Amount)
	if err != nil {
		return nil, err
	}
	if ref.Amount.Amount > remaining {
		return nil, domain.ErrRefundExceedsBalance
	}

	ref.ApprovedBy = &approvedBy
	if err := s.submitToRail(ctx, intent, ref, correlationID); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.New(domain.EventRefundApproved, correlationID, ref))
	return ref, nil
}

// HandleRailUpdate applies a rail's asynchronous verdict on a submitted
// refund, arriving through a webhook.
func (s *RefundService) HandleRailUpdate(ctx context.Context, refundRailRef string, status domain.RefundStatus) error {
	ref, err := s.refunds.GetByRailRef(ctx, refundRailRef)
	if err != nil {
		return err
	}
	if ref.Status == status || ref.Status == domain.RefundCompleted {
		return nil
	}

	ref.Status = status
	now := time.Now().UTC()
	ref.ProcessedAt = &now
	return s.refunds.Update(ctx, ref)
}

func (s *RefundService) GetRefund(ctx context.Context, id string) (*domain.RefundRequest, error) {
	return s.refunds.GetByID(ctx, id)
}

func (s *RefundService) ListRefunds(ctx context.Context, paymentIntentID string) ([]domain.RefundRequest, error) {
	return s.refunds.ListByIntent(ctx, paymentIntentID)
}

func (s *RefundService) remainingBalance(ctx context.Context, intent *domain.PaymentIntent, excluding int64) (int64, error) {
	reserved, err := s.refunds.SumReserved(ctx, intent.ID)
	if err != nil {
		return 0, err
	}
	return intent.Amount.Amount - reserved + excluding, nil
}

func (s *RefundService) submitToRail(ctx context.Context, intent *domain.PaymentIntent, ref *domain.RefundRequest, correlationID string) error {
	gateway, err := s.rails.Get(intent.Rail)
	if err != nil {
		return err
	}

	fullRefund := ref.Amount.Amount == intent.Amount.Amount
	sub := rail.RefundSubmission{
		RailRef:        intent.RailRef,
		Reason:         ref.Reason,
		IdempotencyKey: ref.ID,
	}
	if !fullRefund {
		amount := ref.Amount
		sub.Amount = &amount
	}

	result, err := gateway.CreateRefund(ctx, sub)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	ref.Status = result.Status
	ref.RailRef = &result.RailRef
	ref.ProcessedAt = &now
	if err := s.refunds.Update(ctx, ref); err != nil {
		return err
	}

	if ref.Status == domain.RefundFailed {
		log.Printf("[refund] rail rejected refund %s, correlation_id=%s", ref.ID, correlationID)
		return nil
	}

	// Exhausting the balance flips the intent to refunded, anything less
	// to partially_refunded.
	target := domain.IntentPartiallyRefunded
	remaining, err := s.remainingBalance(ctx, intent, 0)
	if err != nil {
		return err
	}
	if remaining == 0 {
		target = domain.IntentRefunded
	}
	if intent.Status.CanTransition(target) {
		if err := s.intents.UpdateStatus(ctx, intent.ID, target, intent.Version); err != nil {
			return err
		}
		intent.Status = target
		intent.Version++
	}

	return nil
}

// keyedMutex serializes refund writes per payment intent within this
// process; the repository's version check guards cross-process races.
// Entries are refcounted and dropped once the last holder unlocks, so the
// map does not grow with every intent ever refunded.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*lockEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &lockEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
