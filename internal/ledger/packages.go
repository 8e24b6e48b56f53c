package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andreguimel/salesloop-kit-sub001/pkg/models"
)

// ErrPackageNotFound is returned when a package id does not resolve to
// an active package.
var ErrPackageNotFound = errors.New("credit package not found")

// ListPackages returns the active packages in display order
func (l *Ledger) ListPackages(ctx context.Context) ([]models.CreditPackage, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, name, price_cents, credits, bonus_credits, sort_order, is_active
		FROM credit_packages
		WHERE is_active = TRUE
		ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []models.CreditPackage
	for rows.Next() {
		var p models.CreditPackage
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Credits, &p.BonusCredits, &p.SortOrder, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}

	return packages, rows.Err()
}

// GetPackage loads one active package by id
func (l *Ledger) GetPackage(ctx context.Context, packageID string) (*models.CreditPackage, error) {
	var p models.CreditPackage
	err := l.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents, credits, bonus_credits, sort_order, is_active
		FROM credit_packages
		WHERE id = $1 AND is_active = TRUE`,
		packageID).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Credits, &p.BonusCredits, &p.SortOrder, &p.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load package: %w", err)
	}
	return &p, nil
}
