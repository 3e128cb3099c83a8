package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// StubProcessor is an in-process gateway for development and tests only; its
// webhooks are unsigned, so production refuses to start without Stripe.
// Charges start pending and succeed through SetChargeStatus or a webhook
// payload of the form {"id":..., "type":..., "chargeId":...}.
type StubProcessor struct {
	mu        sync.Mutex
	charges   map[string]*Charge
	transfers map[string]string
	refunds   map[string]*Refund

	// Injected failures.
	TransferErr error
	RefundErr   error
	GetErr      error
}

func NewStubProcessor() *StubProcessor {
	return &StubProcessor{
		charges:   make(map[string]*Charge),
		transfers: make(map[string]string),
		refunds:   make(map[string]*Refund),
	}
}

func (p *StubProcessor) CreateCharge(_ context.Context, req ChargeRequest) (*Charge, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if req.IdempotencyKey != "" {
		for _, c := range p.charges {
			if c.ClientSecret == req.IdempotencyKey+"_secret" {
				out := *c
				return &out, nil
			}
		}
	}
	id := "pi_" + uuid.New().String()
	c := &Charge{
		ID:           id,
		BookingID:    req.BookingID,
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       ChargePending,
		ClientSecret: req.IdempotencyKey + "_secret",
	}
	p.charges[id] = c
	out := *c
	return &out, nil
}

// SetChargeStatus settles a charge, creating it if the id is new.
func (p *StubProcessor) SetChargeStatus(chargeID string, status ChargeStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.charges[chargeID]
	if !ok {
		c = &Charge{ID: chargeID}
		p.charges[chargeID] = c
	}
	c.Status = status
}

func (p *StubProcessor) GetCharge(_ context.Context, chargeID string) (*Charge, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.GetErr != nil {
		return nil, p.GetErr
	}
	c, ok := p.charges[chargeID]
	if !ok {
		return nil, fmt.Errorf("stub: no such charge %s", chargeID)
	}
	out := *c
	return &out, nil
}

func (p *StubProcessor) Transfer(_ context.Context, req TransferRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.TransferErr != nil {
		return "", p.TransferErr
	}
	if id, ok := p.transfers[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return id, nil
	}
	id := "tr_" + uuid.New().String()
	key := req.IdempotencyKey
	if key == "" {
		key = id
	}
	p.transfers[key] = id
	return id, nil
}

// TransferCount reports how many distinct payouts were made.
func (p *StubProcessor) TransferCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transfers)
}

func (p *StubProcessor) RefundCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.refunds)
}

func (p *StubProcessor) Refund(_ context.Context, req RefundRequest) (*Refund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.RefundErr != nil {
		return nil, p.RefundErr
	}
	if r, ok := p.refunds[req.ChargeID]; ok {
		return r, nil
	}
	r := &Refund{ID: "re_" + uuid.New().String(), Amount: req.Amount, Status: "succeeded"}
	p.refunds[req.ChargeID] = r
	return r, nil
}

type stubEvent struct {
	ID       string    `json:"id"`
	Type     EventType `json:"type"`
	ChargeID string    `json:"chargeId"`
	Reason   string    `json:"reason"`
}

// ParseWebhook accepts unsigned JSON; the signature is ignored.
func (p *StubProcessor) ParseWebhook(payload []byte, _ string) (*Event, error) {
	var in stubEvent
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("stub: invalid webhook: %w", err)
	}
	if in.ID == "" {
		return nil, fmt.Errorf("stub: webhook without event id")
	}
	out := &Event{ID: in.ID, Type: in.Type}
	if in.ChargeID != "" {
		status := ChargePending
		switch in.Type {
		case EventChargeSucceeded:
			status = ChargeSucceeded
		case EventChargeFailed:
			status = ChargeFailed
		}
		p.SetChargeStatus(in.ChargeID, status)
		out.Charge = &Charge{ID: in.ChargeID, Status: status, FailureReason: in.Reason}
	}
	return out, nil
}
