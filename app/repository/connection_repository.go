package repository

import (
	"context"
	"strings"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type connectionRepository struct {
	db *gorm.DB
}

// UpsertConnection creates the connection or refreshes the Stripe account of
// an existing one. Email, burn and verification columns are left untouched.
func (r *connectionRepository) UpsertConnection(ctx context.Context, conn *models.Connection) error {
	if conn.Status == "" {
		conn.Status = models.ConnectionStatusConnected
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_account_id",
			"connected_at",
			"status",
			"updated_at",
		}),
	}).Create(conn).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("company_id = ?", conn.CompanyID).First(conn).Error
}

func (r *connectionRepository) GetConnection(ctx context.Context, companyID string) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) UpdateConnectionEmail(ctx context.Context, companyID, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return r.updateConnection(ctx, companyID, map[string]interface{}{"email": normalized})
}

func (r *connectionRepository) UpdateConnectionBurn(ctx context.Context, companyID string, burn float64) error {
	return r.updateConnection(ctx, companyID, map[string]interface{}{"monthly_burn": burn})
}

func (r *connectionRepository) MarkConnectionVerified(ctx context.Context, companyID, chargeID string, at time.Time) error {
	return r.updateConnection(ctx, companyID, map[string]interface{}{
		"verification_charge_id": chargeID,
		"verified_at":            at,
	})
}

func (r *connectionRepository) TouchConnection(ctx context.Context, companyID string, at time.Time) error {
	return r.updateConnection(ctx, companyID, map[string]interface{}{"last_seen_at": at})
}

func (r *connectionRepository) ListConnectionsWithoutBurn(ctx context.Context, connectedBefore time.Time) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.WithContext(ctx).
		Where("connected_at < ? AND monthly_burn IS NULL", connectedBefore).
		Order("company_id").
		Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) updateConnection(ctx context.Context, companyID string, updates map[string]interface{}) error {
	tx := r.db.WithContext(ctx).Model(&models.Connection{}).Where("company_id = ?", companyID).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
