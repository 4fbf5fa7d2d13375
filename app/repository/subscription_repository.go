package repository

import (
	"context"
	"time"

	"github.com/ManuelReschke/Candor/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db *gorm.DB
}

func (r *subscriptionRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "company_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_subscription_id",
			"stripe_customer_id",
			"status",
			"plan",
			"activated_at",
			"cancelled_at",
			"current_period_end",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("company_id = ?", sub.CompanyID).First(sub).Error
}

func (r *subscriptionRepository) GetSubscription(ctx context.Context, companyID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) CancelSubscription(ctx context.Context, companyID string, at time.Time) error {
	return r.updateSubscription(ctx, companyID, map[string]interface{}{
		"status":       models.SubscriptionStatusCancelled,
		"cancelled_at": at,
	})
}

func (r *subscriptionRepository) SetSubscriptionStatus(ctx context.Context, companyID string, status models.SubscriptionStatus) error {
	return r.updateSubscription(ctx, companyID, map[string]interface{}{"status": status})
}

func (r *subscriptionRepository) updateSubscription(ctx context.Context, companyID string, updates map[string]interface{}) error {
	tx := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("company_id = ?", companyID).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
