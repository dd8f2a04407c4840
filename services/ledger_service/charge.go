package ledger_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joy095/ledger/logger"
	"github.com/joy095/ledger/models/ledger_models"
	"github.com/joy095/ledger/repository"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ChargeResolver looks up the fee schedule in force for a charge type and prices an amount with it.
type ChargeResolver struct {
	store repository.Store
}

func NewChargeResolver(store repository.Store) *ChargeResolver {
	return &ChargeResolver{store: store}
}

// ResolveFee runs the lookup in its own read transaction.
func (r *ChargeResolver) ResolveFee(ctx context.Context, chargeType ledger_models.ChargeType, amount decimal.Decimal, asOf time.Time) (*ledger_models.FeeBreakdown, error) {
	if err := ledger_models.ValidateAmount("amount", amount); err != nil {
		return nil, err
	}
	var out *ledger_models.FeeBreakdown
	err := r.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		out, err = ResolveFeeTx(ctx, tx, chargeType, amount, asOf)
		return err
	})
	return out, err
}

// AddConfiguration publishes a new fee schedule. Existing schedules are kept so past
// fees stay reproducible; the newest one in force wins.
func (r *ChargeResolver) AddConfiguration(ctx context.Context, adminID uuid.UUID, cfg ledger_models.ChargeConfiguration) (*ledger_models.ChargeConfiguration, error) {
	if cfg.EffectiveFrom.IsZero() {
		cfg.EffectiveFrom = time.Now().UTC()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate charge configuration id: %w", err)
	}
	cfg.ID = id
	cfg.IsActive = true
	cfg.CreatedAt = time.Now().UTC()

	err = r.store.WithTx(ctx, func(tx repository.Tx) error {
		if err := tx.InsertChargeConfig(ctx, &cfg); err != nil {
			return err
		}
		return audit(ctx, tx, adminID, "charge_configuration_added", "charge_configuration", cfg.ID, nil, nil, string(cfg.ChargeType))
	})
	if err != nil {
		return nil, err
	}
	logger.InfoLogger.Infof("Charge configuration %s (%s) effective from %s", cfg.ID, cfg.ChargeType, cfg.EffectiveFrom.Format(time.RFC3339))
	return &cfg, nil
}

// ResolveFeeTx prices amount against the configuration in force at asOf, reading through tx
// so the fee and the mutation it feeds see the same snapshot.
func ResolveFeeTx(ctx context.Context, tx repository.ChargeTx, chargeType ledger_models.ChargeType, amount decimal.Decimal, asOf time.Time) (*ledger_models.FeeBreakdown, error) {
	configs, err := tx.ChargeConfigs(ctx, chargeType)
	if err != nil {
		return nil, fmt.Errorf("load %s configuration: %w", chargeType, err)
	}
	return ComputeFee(selectConfig(configs, asOf), amount)
}

// selectConfig picks the in-force configuration with the latest start.
func selectConfig(configs []*ledger_models.ChargeConfiguration, asOf time.Time) *ledger_models.ChargeConfiguration {
	var best *ledger_models.ChargeConfiguration
	for _, c := range configs {
		if !c.AppliesAt(asOf) {
			continue
		}
		if best == nil || c.EffectiveFrom.After(best.EffectiveFrom) {
			best = c
		}
	}
	return best
}

// ComputeFee applies cfg to amount. A nil cfg means no fee; a fee that would be negative or
// swallow the whole amount is ErrChargeConfigInvalid.
func ComputeFee(cfg *ledger_models.ChargeConfiguration, amount decimal.Decimal) (*ledger_models.FeeBreakdown, error) {
	out := &ledger_models.FeeBreakdown{
		Amount:        amount,
		PercentageFee: decimal.Zero,
		FixedCharge:   decimal.Zero,
		Fee:           decimal.Zero,
		NetAmount:     amount,
	}
	if cfg == nil {
		return out, nil
	}

	id := cfg.ID
	out.ConfigID = &id
	out.MinimumCharge = cfg.MinimumCharge
	out.MaximumCharge = cfg.MaximumCharge
	out.PercentageFee = amount.Mul(cfg.ChargePercentage).Div(hundred)
	out.FixedCharge = cfg.FixedCharge

	fee := decimal.Max(out.PercentageFee, cfg.FixedCharge)
	if cfg.MinimumCharge != nil && fee.LessThan(*cfg.MinimumCharge) {
		fee = *cfg.MinimumCharge
	}
	if cfg.MaximumCharge != nil && fee.GreaterThan(*cfg.MaximumCharge) {
		fee = *cfg.MaximumCharge
	}
	fee = ledger_models.RoundMoney(fee)

	if fee.IsNegative() {
		return nil, fmt.Errorf("%w: negative fee %s", ledger_models.ErrChargeConfigInvalid, fee.StringFixed(2))
	}
	if fee.GreaterThanOrEqual(amount) {
		return nil, fmt.Errorf("%w: fee %s on amount %s", ledger_models.ErrChargeConfigInvalid,
			fee.StringFixed(2), amount.StringFixed(2))
	}
	out.PercentageFee = ledger_models.RoundMoney(out.PercentageFee)
	out.Fee = fee
	out.NetAmount = amount.Sub(fee)
	return out, nil
}
