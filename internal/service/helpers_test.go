package service

import (
	"context"
	"sync"
	"time"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/rail"
)

func testFeeStructure() domain.FeeStructure {
	return domain.FeeStructure{
		FamilyFee:                domain.NewMoney(2500, "EUR"),
		ProviderCommissionRate:   0.125,
		MunicipalBurialReduction: 0.30,
		PlatformFeeRate:          0.029,
	}
}

func testEligibilityPolicy() EligibilityPolicy {
	return EligibilityPolicy{
		AmountCeiling:     domain.NewMoney(500000, "EUR"),
		AllowedCategories: []string{"basic_burial", "basic_cremation", "direct_burial"},
		RequiredDocuments: []string{"income_statement", "municipal_approval", "death_certificate"},
	}
}

type memIntentRepo struct {
	mu      sync.Mutex
	intents map[string]*domain.PaymentIntent
}

func newMemIntentRepo() *memIntentRepo {
	return &memIntentRepo{intents: make(map[string]*domain.PaymentIntent)}
}

func (r *memIntentRepo) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *intent
	r.intents[intent.ID] = &cp
	return nil
}

func (r *memIntentRepo) GetByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *intent
	return &cp, nil
}

func (r *memIntentRepo) GetByRailRef(ctx context.Context, railName domain.RailName, railRef string) (*domain.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, intent := range r.intents {
		if intent.Rail == railName && intent.RailRef == railRef {
			cp := *intent
			return &cp, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *memIntentRepo) UpdateStatus(ctx context.Context, id string, status domain.PaymentIntentStatus, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	intent, ok := r.intents[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if intent.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	intent.Status = status
	intent.Version++
	return nil
}

type memRefundRepo struct {
	mu      sync.Mutex
	refunds map[string]*domain.RefundRequest
}

func newMemRefundRepo() *memRefundRepo {
	return &memRefundRepo{refunds: make(map[string]*domain.RefundRequest)}
}

func (r *memRefundRepo) Create(ctx context.Context, ref *domain.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ref
	r.refunds[ref.ID] = &cp
	return nil
}

func (r *memRefundRepo) Update(ctx context.Context, ref *domain.RefundRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.refunds[ref.ID]; !ok {
		return domain.ErrRefundNotFound
	}
	cp := *ref
	r.refunds[ref.ID] = &cp
	return nil
}

func (r *memRefundRepo) GetByID(ctx context.Context, id string) (*domain.RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.refunds[id]
	if !ok {
		return nil, domain.ErrRefundNotFound
	}
	cp := *ref
	return &cp, nil
}

func (r *memRefundRepo) GetByRailRef(ctx context.Context, railRef string) (*domain.RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ref := range r.refunds {
		if ref.RailRef != nil && *ref.RailRef == railRef {
			cp := *ref
			return &cp, nil
		}
	}
	return nil, domain.ErrRefundNotFound
}

func (r *memRefundRepo) ListByIntent(ctx context.Context, paymentIntentID string) ([]domain.RefundRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.RefundRequest
	for _, ref := range r.refunds {
		if ref.PaymentIntentID == paymentIntentID {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (r *memRefundRepo) SumReserved(ctx context.Context, paymentIntentID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, ref := range r.refunds {
		if ref.PaymentIntentID != paymentIntentID {
			continue
		}
		switch ref.Status {
		case domain.RefundPending, domain.RefundProcessing, domain.RefundCompleted:
			total += ref.Amount.Amount
		}
	}
	return total, nil
}

type memDisputeRepo struct {
	mu       sync.Mutex
	disputes map[string]*domain.DisputeCase
}

func newMemDisputeRepo() *memDisputeRepo {
	return &memDisputeRepo{disputes: make(map[string]*domain.DisputeCase)}
}

func (r *memDisputeRepo) Create(ctx context.Context, d *domain.DisputeCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.disputes[d.ID] = &cp
	return nil
}

func (r *memDisputeRepo) Update(ctx context.Context, d *domain.DisputeCase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.disputes[d.ID]; !ok {
		return domain.ErrDisputeNotFound
	}
	cp := *d
	r.disputes[d.ID] = &cp
	return nil
}

func (r *memDisputeRepo) GetByID(ctx context.Context, id string) (*domain.DisputeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, domain.ErrDisputeNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDisputeRepo) FindOpenByIntent(ctx context.Context, paymentIntentID string) (*domain.DisputeCase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.disputes {
		if d.PaymentIntentID == paymentIntentID && d.Status.Open() {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeGateway is a scriptable rail for service tests.
type fakeGateway struct {
	mu sync.Mutex

	name         domain.RailName
	chargeStatus domain.PaymentIntentStatus
	refundStatus domain.RefundStatus
	refundErr    error
	webhookEvt   *rail.WebhookEvent
	webhookErr   error

	charges []rail.ChargeRequest
	refunds []rail.RefundSubmission
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		name:         domain.RailStripe,
		chargeStatus: domain.IntentPending,
		refundStatus: domain.RefundCompleted,
	}
}

func (g *fakeGateway) Name() domain.RailName {
	return g.name
}

func (g *fakeGateway) CreateCharge(ctx context.Context, req rail.ChargeRequest) (*rail.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	return &rail.ChargeResult{RailRef: "pi_" + req.IdempotencyKey, Status: g.chargeStatus}, nil
}

func (g *fakeGateway) ConfirmCharge(ctx context.Context, railRef, methodToken string) (*rail.ChargeResult, error) {
	return &rail.ChargeResult{RailRef: railRef, Status: domain.IntentCompleted}, nil
}

func (g *fakeGateway) CreateRefund(ctx context.Context, sub rail.RefundSubmission) (*rail.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, sub)
	return &rail.RefundResult{RailRef: "re_" + sub.IdempotencyKey, Status: g.refundStatus}, nil
}

func (g *fakeGateway) GetStatus(ctx context.Context, railRef string) (domain.PaymentIntentStatus, error) {
	return g.chargeStatus, nil
}

func (g *fakeGateway) VerifyAndParseWebhook(payload []byte, signature string) (*rail.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.webhookEvt, nil
}

func (g *fakeGateway) refundCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunds)
}

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: make(map[string]bool)}
}

func (d *memDeduper) MarkOnce(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDeduper) Unmark(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

type noopNotifier struct {
	mu       sync.Mutex
	notified []string
}

func (n *noopNotifier) NotifyChargeback(ctx context.Context, providerID string, dispute domain.DisputeCase) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notified = append(n.notified, providerID)
	return nil
}

func completedIntent(id string, amount int64) *domain.PaymentIntent {
	now := time.Now().UTC()
	return &domain.PaymentIntent{
		ID:         id,
		Rail:       domain.RailStripe,
		RailRef:    "pi_" + id,
		Amount:     domain.NewMoney(amount, "EUR"),
		Purpose:    domain.PurposeRegularService,
		CustomerID: "cust-1",
		ProviderID: "prov-1",
		Status:     domain.IntentCompleted,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
