package repositories

import (
	"context"

	"gorm.io/gorm"

	"documind/internal/models"
)

type SummaryRepository struct {
	DB *gorm.DB
}

func (r *SummaryRepository) Create(ctx context.Context, summary *models.Summary) error {
	return r.DB.WithContext(ctx).Create(summary).Error
}

func (r *SummaryRepository) ListByDocument(ctx context.Context, documentID uint) ([]models.Summary, error) {
	var summaries []models.Summary
	err := r.DB.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&summaries).Error
	return summaries, err
}
