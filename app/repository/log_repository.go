package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// logRepository writes the append-only tables.
type logRepository struct {
	db *gorm.DB
}

func (r *logRepository) AppendSnapshot(ctx context.Context, snap *models.Snapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

func (r *logRepository) LatestSnapshot(ctx context.Context, companyID string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("computed_at DESC").Order("id DESC").
		First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *logRepository) AppendEmailSent(ctx context.Context, sent *models.EmailSent) error {
	return r.db.WithContext(ctx).Create(sent).Error
}

func (r *logRepository) LatestEmailSent(ctx context.Context, companyID string) (*models.EmailSent, error) {
	var sent models.EmailSent
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("sent_at DESC").Order("id DESC").
		First(&sent).Error
	if err != nil {
		return nil, err
	}
	return &sent, nil
}

func (r *logRepository) AppendChurnLog(ctx context.Context, entry *models.ChurnLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

type webhookEventRepository struct {
	db *gorm.DB
}

func (r *webhookEventRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.WithContext(ctx).Where("provider_event_id = ?", event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *webhookEventRepository) MarkWebhookProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
