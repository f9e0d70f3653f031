package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-service/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *model.PushSubscription) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256_dh", "auth"}),
	}).Create(sub).Error
}

func (r *SubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	return r.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&model.PushSubscription{}).Error
}

func (r *SubscriptionRepository) All(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := r.db.WithContext(ctx).Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
