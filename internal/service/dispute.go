package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/events"
	"uitvaartpay/internal/rail"
)

type DisputeRepository interface {
	Create(ctx context.Context, d *domain.DisputeCase) error
	Update(ctx context.Context, d *domain.DisputeCase) error
	GetByID(ctx context.Context, id string) (*domain.DisputeCase, error)
	FindOpenByIntent(ctx context.Context, paymentIntentID string) (*domain.DisputeCase, error)
}

// ProviderNotifier informs a provider about a chargeback raised against
// one of their payments.
type ProviderNotifier interface {
	NotifyChargeback(ctx context.Context, providerID string, dispute domain.DisputeCase) error
}

type CreateDisputeRequest struct {
	PaymentIntentID string
	CustomerID      string
	ProviderID      string
	Reason          string
	Description     string
	Evidence        []string
	Priority        domain.DisputePriority
	CorrelationID   string
}

// DisputeService tracks dispute cases and ingests chargebacks from the
// rails. Refunds granted as part of a resolution flow through the refund
// service with the dispute_resolution reason.
type DisputeService struct {
	disputes DisputeRepository
	intents  IntentRepository
	refunds  *RefundService
	notifier ProviderNotifier
	events   events.Sink
}

func NewDisputeService(disputes DisputeRepository, intents IntentRepository, refunds *RefundService, notifier ProviderNotifier, sink events.Sink) *DisputeService {
	return &DisputeService{disputes: disputes, intents: intents, refunds: refunds, notifier: notifier, events: sink}
}

func (s *DisputeService) CreateDispute(ctx context.Context, req CreateDisputeRequest) (*domain.DisputeCase, error) {
	if _, err := s.intents.GetByID(ctx, req.PaymentIntentID); err != nil {
		return nil, err
	}

	open, err := s.disputes.FindOpenByIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, domain.ErrDisputeAlreadyOpen
	}

	priority := req.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.Valid() {
		return nil, domain.ErrInvalidSplitConfiguration
	}

	status := domain.DisputeSubmitted
	if priority == domain.PriorityUrgent {
		status = domain.DisputeEscalated
	}

	dispute := &domain.DisputeCase{
		ID:              uuid.NewString(),
		PaymentIntentID: req.PaymentIntentID,
		CustomerID:      req.CustomerID,
		ProviderID:      req.ProviderID,
		Reason:          req.Reason,
		Description:     req.Description,
		Evidence:        req.Evidence,
		Priority:        priority,
		Status:          status,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.New(domain.EventDisputeCreated, req.CorrelationID, dispute))
	return dispute, nil
}

// ResolveDispute closes the case. A refund amount, when given, triggers an
// automatic refund: the resolution itself is the human sign-off.
func (s *DisputeService) ResolveDispute(ctx context.Context, id, resolution, resolvedBy string, refundAmount *domain.Money, correlationID string) (*domain.DisputeCase, error) {
	dispute, err := s.disputes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !dispute.Status.CanTransition(domain.DisputeResolved) {
		return nil, domain.ErrInvalidTransition
	}

	if refundAmount != nil {
		if _, err := s.refunds.CreateRefund(ctx, CreateRefundRequest{
			PaymentIntentID: dispute.PaymentIntentID,
			Amount:          refundAmount,
			Reason:          domain.RefundDisputeResolution,
			Description:     "refund granted in dispute " + dispute.ID,
			InitiatedBy:     resolvedBy,
			CorrelationID:   correlationID,
		}); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	dispute.Status = domain.DisputeResolved
	dispute.Resolution = &resolution
	dispute.ResolvedBy = &resolvedBy
	dispute.ResolvedAt = &now
	if err := s.disputes.Update(ctx, dispute); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.New(domain.EventDisputeResolved, correlationID, dispute))
	return dispute, nil
}

func (s *DisputeService) GetDispute(ctx context.Context, id string) (*domain.DisputeCase, error) {
	return s.disputes.GetByID(ctx, id)
}

// Evidence we can produce ourselves the moment a chargeback lands.
var chargebackEvidence = []string{
	"payment_confirmation",
	"delivery_proof",
	"communication_log",
	"terms_acceptance",
}

// IngestChargeback turns a rail chargeback notification into a dispute
// case opened directly in under_review. The provider is notified before
// any further automatic action runs.
func (s *DisputeService) IngestChargeback(ctx context.Context, evt *rail.WebhookEvent, correlationID string) (*domain.DisputeCase, error) {
	intent, err := s.intents.GetByRailRef(ctx, evt.Rail, evt.RailRef)
	if err != nil {
		return nil, err
	}

	if open, err := s.disputes.FindOpenByIntent(ctx, intent.ID); err != nil {
		return nil, err
	} else if open != nil {
		// The rail retried or the customer already disputed; keep the
		// existing case.
		return open, nil
	}

	reason := evt.Reason
	if reason == "" {
		reason = "chargeback"
	}

	dispute := &domain.DisputeCase{
		ID:              uuid.NewString(),
		PaymentIntentID: intent.ID,
		CustomerID:      intent.CustomerID,
		ProviderID:      intent.ProviderID,
		Reason:          reason,
		Description:     "chargeback received from rail " + string(evt.Rail),
		Evidence:        append([]string(nil), chargebackEvidence...),
		Priority:        domain.PriorityHigh,
		Status:          domain.DisputeUnderReview,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.disputes.Create(ctx, dispute); err != nil {
		return nil, err
	}

	if err := s.notifier.NotifyChargeback(ctx, intent.ProviderID, *dispute); err != nil {
		log.Printf("[dispute] chargeback notification to provider %s failed, correlation_id=%s: %v",
			intent.ProviderID, correlationID, err)
	}

	s.events.Emit(ctx, events.New(domain.EventChargebackReceived, correlationID, dispute))
	return dispute, nil
}
