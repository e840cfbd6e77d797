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

type IntentRepository interface {
	Create(ctx context.Context, intent *domain.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*domain.PaymentIntent, error)
	GetByRailRef(ctx context.Context, railName domain.RailName, railRef string) (*domain.PaymentIntent, error)
	UpdateStatus(ctx context.Context, id string, status domain.PaymentIntentStatus, expectedVersion int) error
}

type CreatePaymentRequest struct {
	Amount             domain.Money
	Purpose            domain.PaymentPurpose
	Rail               domain.RailName
	CustomerID         string
	ProviderID         string
	Description        string
	ServiceCategory    string
	SubmittedDocuments []string
	FeeOverride        *FeeStructureOverride
	CorrelationID      string
}

// PaymentService drives the charge lifecycle against the rail gateway.
// Splits are computed up front for purposes that carry a provider payout
// and embedded in the stored intent.
type PaymentService struct {
	rails  *rail.Registry
	repo   IntentRepository
	splits *SplitService
	events events.Sink
}

func NewPaymentService(rails *rail.Registry, repo IntentRepository, splits *SplitService, sink events.Sink) *PaymentService {
	return &PaymentService{rails: rails, repo: repo, splits: splits, events: sink}
}

func (s *PaymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.PaymentIntent, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.Purpose.Valid() {
		return nil, domain.ErrInvalidSplitConfiguration
	}

	gateway, err := s.rails.Get(req.Rail)
	if err != nil {
		return nil, err
	}

	var splitResult *SplitResult
	if req.Purpose == domain.PurposeMunicipalBurial || req.Purpose == domain.PurposeRegularService {
		splitResult, err = s.splits.CalculateSplit(SplitCalculationRequest{
			BaseAmount:         req.Amount,
			Purpose:            req.Purpose,
			ProviderID:         req.ProviderID,
			ServiceCategory:    req.ServiceCategory,
			SubmittedDocuments: req.SubmittedDocuments,
			FeeOverride:        req.FeeOverride,
		})
		if err != nil {
			return nil, err
		}
	}

	intentID := uuid.NewString()
	charge, err := gateway.CreateCharge(ctx, rail.ChargeRequest{
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: intentID,
		Metadata: map[string]string{
			"payment_intent_id": intentID,
			"purpose":           string(req.Purpose),
			"provider_id":       req.ProviderID,
		},
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	intent := &domain.PaymentIntent{
		ID:          intentID,
		Rail:        req.Rail,
		RailRef:     charge.RailRef,
		Amount:      req.Amount,
		Purpose:     req.Purpose,
		CustomerID:  req.CustomerID,
		ProviderID:  req.ProviderID,
		Description: req.Description,
		Status:      domain.IntentPending,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if splitResult != nil {
		split := splitResult.Split
		intent.Split = &split
	}

	if err := s.repo.Create(ctx, intent); err != nil {
		return nil, err
	}

	// The rail may already report the charge past pending.
	if charge.Status != domain.IntentPending {
		if err := s.applyStatus(ctx, intent, charge.Status, req.CorrelationID); err != nil {
			return nil, err
		}
	}

	if splitResult != nil {
		s.events.Emit(ctx, events.New(domain.EventSplitComputed, req.CorrelationID, map[string]interface{}{
			"payment_intent_id": intent.ID,
			"split":             splitResult.Split,
			"breakdown":         splitResult.Breakdown,
			"eligibility":       splitResult.Eligibility,
		}))
	}

	return intent, nil
}

func (s *PaymentService) ConfirmPayment(ctx context.Context, id, methodToken, correlationID string) (*domain.PaymentIntent, error) {
	intent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	gateway, err := s.rails.Get(intent.Rail)
	if err != nil {
		return nil, err
	}

	result, err := gateway.ConfirmCharge(ctx, intent.RailRef, methodToken)
	if err != nil {
		log.Printf("[payment] confirm %s failed, correlation_id=%s: %v", id, correlationID, err)
		return nil, err
	}

	if err := s.applyStatus(ctx, intent, result.Status, correlationID); err != nil {
		return nil, err
	}
	return intent, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	return s.repo.GetByID(ctx, id)
}

// SyncStatus pulls the rail's view of the charge and applies the resulting
// transition, if any.
func (s *PaymentService) SyncStatus(ctx context.Context, id, correlationID string) (*domain.PaymentIntent, error) {
	intent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	gateway, err := s.rails.Get(intent.Rail)
	if err != nil {
		return nil, err
	}

	status, err := gateway.GetStatus(ctx, intent.RailRef)
	if err != nil {
		return nil, err
	}

	if err := s.applyStatus(ctx, intent, status, correlationID); err != nil {
		return nil, err
	}
	return intent, nil
}

// applyStatus walks the intent through intermediate states when the rail
// jumped ahead (pending straight to completed arrives as pending ->
// processing -> completed). Transitions the machine refuses are logged and
// skipped, never silently recorded.
func (s *PaymentService) applyStatus(ctx context.Context, intent *domain.PaymentIntent, target domain.PaymentIntentStatus, correlationID string) error {
	if intent.Status == target {
		return nil
	}

	path := []domain.PaymentIntentStatus{target}
	if intent.Status == domain.IntentPending && target == domain.IntentCompleted {
		path = []domain.PaymentIntentStatus{domain.IntentProcessing, domain.IntentCompleted}
	}

	for _, next := range path {
		if !intent.Status.CanTransition(next) {
			log.Printf("[payment] refusing transition %s -> %s for intent %s, correlation_id=%s",
				intent.Status, next, intent.ID, correlationID)
			return domain.ErrInvalidTransition
		}
		if err := s.repo.UpdateStatus(ctx, intent.ID, next, intent.Version); err != nil {
			return err
		}
		intent.Status = next
		intent.Version++
	}
	return nil
}
