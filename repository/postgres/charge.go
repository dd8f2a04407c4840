package postgres

import (
	"context"
	"fmt"

	"github.com/joy095/ledger/models/ledger_models"
)

func (t *tx) ChargeConfigs(ctx context.Context, chargeType ledger_models.ChargeType) ([]*ledger_models.ChargeConfiguration, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, charge_type, charge_percentage, fixed_charge, minimum_charge, maximum_charge,
		        is_active, effective_from, effective_to, created_at
		 FROM charge_configurations
		 WHERE charge_type = $1
		 ORDER BY effective_from DESC, created_at DESC`,
		chargeType)
	if err != nil {
		return nil, fmt.Errorf("list charge configurations: %w", err)
	}
	defer rows.Close()

	var out []*ledger_models.ChargeConfiguration
	for rows.Next() {
		c := &ledger_models.ChargeConfiguration{}
		if err := rows.Scan(&c.ID, &c.ChargeType, &c.ChargePercentage, &c.FixedCharge, &c.MinimumCharge,
			&c.MaximumCharge, &c.IsActive, &c.EffectiveFrom, &c.EffectiveTo, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan charge configuration: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *tx) InsertChargeConfig(ctx context.Context, c *ledger_models.ChargeConfiguration) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO charge_configurations (
			id, charge_type, charge_percentage, fixed_charge, minimum_charge, maximum_charge,
			is_active, effective_from, effective_to, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.ChargeType, c.ChargePercentage, c.FixedCharge, c.MinimumCharge, c.MaximumCharge,
		c.IsActive, c.EffectiveFrom, c.EffectiveTo, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert charge configuration: %w", err)
	}
	return nil
}

func (t *tx) WalletSettings(ctx context.Context, key string) ([]*ledger_models.WalletSetting, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT key, value, is_active, effective_from, effective_to
		 FROM wallet_settings WHERE key = $1
		 ORDER BY effective_from DESC`,
		key)
	if err != nil {
		return nil, fmt.Errorf("list wallet settings %q: %w", key, err)
	}
	defer rows.Close()

	var out []*ledger_models.WalletSetting
	for rows.Next() {
		s := &ledger_models.WalletSetting{}
		if err := rows.Scan(&s.Key, &s.Value, &s.IsActive, &s.EffectiveFrom, &s.EffectiveTo); err != nil {
			return nil, fmt.Errorf("scan wallet setting: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
