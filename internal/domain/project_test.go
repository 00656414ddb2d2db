package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProject_Transition(t *testing.T) {
	tests := []struct {
		name        string
		from        EscrowState
		to          EscrowState
		expectError bool
	}{
		{"deposit verified", EscrowStateDepositPending, EscrowStateVerified, false},
		{"verified to active", EscrowStateVerified, EscrowStateActive, false},
		{"active to completed", EscrowStateActive, EscrowStateCompleted, false},
		{"verified refunded", EscrowStateVerified, EscrowStateRefunded, false},
		{"active refunded", EscrowStateActive, EscrowStateRefunded, false},
		{"skip straight to completed", EscrowStateDepositPending, EscrowStateCompleted, true},
		{"refund before verification", EscrowStateDepositPending, EscrowStateRefunded, true},
		{"completed is terminal", EscrowStateCompleted, EscrowStateRefunded, true},
		{"refunded is terminal", EscrowStateRefunded, EscrowStateActive, true},
		{"no going backwards", EscrowStateActive, EscrowStateVerified, true},
		{"re-verify", EscrowStateVerified, EscrowStateVerified, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Project{ID: "p1", State: tt.from}

			err := p.Transition(tt.to)

			if tt.expectError {
				if !errors.Is(err, ErrInvalidStateTransition) {
					t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
				}
				if p.State != tt.from {
					t.Errorf("rejected transition mutated state to %s", p.State)
				}
				return
			}

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if p.State != tt.to {
				t.Errorf("expected state %s, got %s", tt.to, p.State)
			}
		})
	}
}

func TestProject_Terminal(t *testing.T) {
	for _, tt := range []struct {
		state EscrowState
		want  bool
	}{
		{EscrowStateDepositPending, false},
		{EscrowStateVerified, false},
		{EscrowStateActive, false},
		{EscrowStateCompleted, true},
		{EscrowStateRefunded, true},
	} {
		p := &Project{State: tt.state}
		if p.Terminal() != tt.want {
			t.Errorf("state %s: expected terminal=%v", tt.state, tt.want)
		}
	}
}

func TestProject_Validate(t *testing.T) {
	p := &Project{TotalValue: decimal.NewFromInt(500000)}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	p.TotalValue = decimal.Zero
	if !errors.Is(p.Validate(), ErrInvalidAmount) {
		t.Error("expected ErrInvalidAmount for zero total value")
	}
}
