package ledger_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ChargeType string

const (
	ChargeWithdrawalFee ChargeType = "withdrawal_fee"
	ChargeSettlementFee ChargeType = "settlement_fee"
)

// ChargeConfiguration is a dated fee schedule. A nil bound means no clamp on that side,
// a nil EffectiveTo means open-ended.
type ChargeConfiguration struct {
	ID               uuid.UUID        `json:"id"`
	ChargeType       ChargeType       `json:"charge_type"`
	ChargePercentage decimal.Decimal  `json:"charge_percentage"`
	FixedCharge      decimal.Decimal  `json:"fixed_charge"`
	MinimumCharge    *decimal.Decimal `json:"minimum_charge,omitempty"`
	MaximumCharge    *decimal.Decimal `json:"maximum_charge,omitempty"`
	IsActive         bool             `json:"is_active"`
	EffectiveFrom    time.Time        `json:"effective_from"`
	EffectiveTo      *time.Time       `json:"effective_to,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// AppliesAt reports whether the configuration is in force at t.
func (c *ChargeConfiguration) AppliesAt(t time.Time) bool {
	if !c.IsActive || t.Before(c.EffectiveFrom) {
		return false
	}
	return c.EffectiveTo == nil || t.Before(*c.EffectiveTo)
}

// FeeBreakdown is the result of a fee resolution.
type FeeBreakdown struct {
	Amount        decimal.Decimal  `json:"amount"`
	PercentageFee decimal.Decimal  `json:"percentage_fee"`
	FixedCharge   decimal.Decimal  `json:"fixed_charge"`
	Fee           decimal.Decimal  `json:"fee"`
	NetAmount     decimal.Decimal  `json:"net_amount"`
	ConfigID      *uuid.UUID       `json:"config_id,omitempty"`
	MinimumCharge *decimal.Decimal `json:"minimum_charge,omitempty"`
	MaximumCharge *decimal.Decimal `json:"maximum_charge,omitempty"`
}

const SettingMinTopupAmount = "min_topup_amount"

// WalletSetting is a dated numeric setting looked up by key.
type WalletSetting struct {
	Key           string          `json:"key"`
	Value         decimal.Decimal `json:"value"`
	IsActive      bool            `json:"is_active"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
}

func (s *WalletSetting) AppliesAt(t time.Time) bool {
	if !s.IsActive || t.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || t.Before(*s.EffectiveTo)
}

// Validate checks a new schedule before it is stored.
func (c *ChargeConfiguration) Validate() error {
	if c.ChargeType != ChargeWithdrawalFee && c.ChargeType != ChargeSettlementFee {
		return invalid("unknown charge type %q", c.ChargeType)
	}
	if c.ChargePercentage.IsNegative() || c.ChargePercentage.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return invalid("charge percentage must be in [0, 100)")
	}
	if c.FixedCharge.IsNegative() {
		return invalid("fixed charge must not be negative")
	}
	if c.MinimumCharge != nil && c.MinimumCharge.IsNegative() {
		return invalid("minimum charge must not be negative")
	}
	if c.MaximumCharge != nil && c.MaximumCharge.IsNegative() {
		return invalid("maximum charge must not be negative")
	}
	if c.MinimumCharge != nil && c.MaximumCharge != nil && c.MaximumCharge.LessThan(*c.MinimumCharge) {
		return invalid("maximum charge is below minimum charge")
	}
	if c.EffectiveTo != nil && !c.EffectiveTo.After(c.EffectiveFrom) {
		return invalid("effective_to must be after effective_from")
	}
	return nil
}
