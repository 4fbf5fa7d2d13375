package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type trialRepository struct {
	db *gorm.DB
}

// UpsertTrial (re)opens the trial of a company. trial_started_at and
// last_warning_at are not part of the update set, so a restarted trial keeps
// its original start.
func (r *trialRepository) UpsertTrial(ctx context.Context, trial *models.Trial) error {
	if trial.Status == "" {
		trial.Status = models.TrialStatusActive
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"started_at",
			"next_email_at",
			"status",
			"emails_sent",
			"updated_at",
		}),
	}).Create(trial).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("company_id = ?", trial.CompanyID).First(trial).Error
}

func (r *trialRepository) GetTrial(ctx context.Context, companyID string) (*models.Trial, error) {
	var trial models.Trial
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&trial).Error; err != nil {
		return nil, err
	}
	return &trial, nil
}

func (r *trialRepository) ListTrialsByStatus(ctx context.Context, status models.TrialStatus) ([]models.Trial, error) {
	var trials []models.Trial
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("company_id").Find(&trials).Error
	return trials, err
}

func (r *trialRepository) ListActiveTrialsStartedBefore(ctx context.Context, before time.Time) ([]models.Trial, error) {
	var trials []models.Trial
	err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", models.TrialStatusActive, before).
		Order("company_id").
		Find(&trials).Error
	return trials, err
}

func (r *trialRepository) ListActiveTrialsWithEmailsSent(ctx context.Context, min int) ([]models.Trial, error) {
	var trials []models.Trial
	err := r.db.WithContext(ctx).
		Where("status = ? AND emails_sent >= ?", models.TrialStatusActive, min).
		Order("company_id").
		Find(&trials).Error
	return trials, err
}

// MarkTrialStarted sets trial_started_at only while it is still NULL and
// reports whether this call was the one that set it.
func (r *trialRepository) MarkTrialStarted(ctx context.Context, companyID string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Trial{}).
		Where("company_id = ? AND trial_started_at IS NULL", companyID).
		Update("trial_started_at", at)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *trialRepository) IncrementEmailsSent(ctx context.Context, companyID string) error {
	return r.updateTrial(ctx, companyID, map[string]interface{}{
		"emails_sent": gorm.Expr("emails_sent + ?", 1),
	})
}

func (r *trialRepository) SetNextEmailAt(ctx context.Context, companyID string, at time.Time) error {
	return r.updateTrial(ctx, companyID, map[string]interface{}{"next_email_at": at})
}

func (r *trialRepository) SetTrialStatus(ctx context.Context, companyID string, status models.TrialStatus) error {
	return r.updateTrial(ctx, companyID, map[string]interface{}{"status": status})
}

func (r *trialRepository) SetLastWarningAt(ctx context.Context, companyID string, at time.Time) error {
	return r.updateTrial(ctx, companyID, map[string]interface{}{"last_warning_at": at})
}

func (r *trialRepository) updateTrial(ctx context.Context, companyID string, updates map[string]interface{}) error {
	tx := r.db.WithContext(ctx).Model(&models.Trial{}).Where("company_id = ?", companyID).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
