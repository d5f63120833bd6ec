package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported promo-code reduction strategies.
type Type string

const (
	// TypePercentage reduces the order total by Value percent.
	TypePercentage Type = "percentage"
	// TypeFixed reduces the order total by Value, capped at the total.
	TypeFixed Type = "fixed"
)

var (
	// ErrInvalidCode is returned when a promo code is not found or inactive.
	ErrInvalidCode = errors.New("invalid promo code")
	// ErrExpired is returned when a promo code is outside its validity window.
	ErrExpired = errors.New("promo code expired")
	// ErrExhausted is returned when a promo code has reached its usage limit.
	ErrExhausted = errors.New("promo code usage limit reached")
)

// Rule defines a promo code's reduction behaviour and eligibility limits.
type Rule struct {
	Code        string
	Type        Type
	Value       decimal.Decimal
	Description string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	MaxUses     int
	Uses        int
}

// Repository provides promo-code lookups. Usage counters are incremented
// inside the order-creation transaction, not here.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// Validator resolves a promo code into a validated Rule.
type Validator interface {
	Validate(ctx context.Context, code string) (*Rule, error)
}

// RepoValidator implements Validator by looking up rules from a Repository
// and checking temporal validity and usage limits.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the rule for the given code and checks that it is inside
// its validity window and under its usage limit.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Rule, error) {
	rule, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}

	now := v.now()

	if rule.ValidFrom != nil && now.Before(*rule.ValidFrom) {
		return nil, ErrExpired
	}
	if rule.ValidUntil != nil && now.After(*rule.ValidUntil) {
		return nil, ErrExpired
	}

	if rule.MaxUses > 0 && rule.Uses >= rule.MaxUses {
		return nil, ErrExhausted
	}

	return rule, nil
}

// Apply returns the reduction the rule grants on the given total, floored at
// zero and capped at the total itself, rounded to 2 decimal places.
func Apply(rule *Rule, total decimal.Decimal) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch rule.Type {
	case TypePercentage:
		amount = total.Mul(rule.Value).Div(decimal.NewFromInt(100))
	case TypeFixed:
		amount = rule.Value
	default:
		return decimal.Zero, errors.Errorf("unsupported promo type: %q", rule.Type)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	amount = decimal.Min(amount, total)
	return amount.Round(2), nil
}
