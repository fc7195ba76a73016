package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
)

const cropColumns = `id, crop_name, category, quantity, unit, price_per_unit, description, location, status, seller, created_at`

// SeedCrops stores the demo listings when the crops table is empty.
func (a *Adapter) SeedCrops(ctx context.Context, crops []domain.Crop) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM crops").Scan(&n); err != nil {
		return fmt.Errorf("failed to count crops: %w", err)
	}
	if n > 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crops (crop_name, category, quantity, unit, price_per_unit, description, location, status, seller, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range crops {
		if err := c.Validate(); err != nil {
			return err
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx, c.Name, c.Category, c.Quantity.String(), c.Unit, c.PricePerUnit.String(),
			c.Description, c.Location, string(c.Status), c.Seller, createdAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to seed crop %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}

// ListCrops returns available listings matching filter in listing order.
func (a *Adapter) ListCrops(ctx context.Context, filter domain.CropFilter) ([]domain.Crop, error) {
	query := `SELECT ` + cropColumns + ` FROM crops WHERE status = ?`
	args := []any{string(domain.CropAvailable)}
	if category := strings.ToLower(strings.TrimSpace(filter.Category)); category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		query += ` AND location = ?`
		args = append(args, location)
	}
	query += ` ORDER BY id`

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load crops: %w", err)
	}
	defer rows.Close()

	crops := []domain.Crop{}
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, err
		}
		crops = append(crops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crops: %w", err)
	}
	return crops, nil
}

// GetCrop returns one listing in any status.
func (a *Adapter) GetCrop(ctx context.Context, id int64) (domain.Crop, error) {
	row := a.db.QueryRowContext(ctx, `SELECT `+cropColumns+` FROM crops WHERE id = ?`, id)
	c, err := scanCrop(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Crop{}, fmt.Errorf("crop %d: %w", id, domain.ErrNotFound)
	}
	return c, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrop(s scanner) (domain.Crop, error) {
	var (
		c                      domain.Crop
		quantity, pricePerUnit string
		status                 string
		createdAt              int64
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Category, &quantity, &c.Unit, &pricePerUnit,
		&c.Description, &c.Location, &status, &c.Seller, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Crop{}, err
		}
		return domain.Crop{}, fmt.Errorf("failed to scan crop: %w", err)
	}

	var err error
	if c.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return domain.Crop{}, fmt.Errorf("failed to parse quantity for crop %d: %w", c.ID, err)
	}
	if c.PricePerUnit, err = decimal.NewFromString(pricePerUnit); err != nil {
		return domain.Crop{}, fmt.Errorf("failed to parse price for crop %d: %w", c.ID, err)
	}
	c.Status = domain.CropStatus(status)
	c.CreatedAt = time.UnixMilli(createdAt).UTC()
	return c, nil
}
