package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"documind/internal/models"
)

type ShareRepository struct {
	DB *gorm.DB
}

// FindByDocumentAndUserOrEmail returns the share record matching either the
// user id or the email for a document, or nil when none exists.
func (r *ShareRepository) FindByDocumentAndUserOrEmail(ctx context.Context, documentID, userID uint, email string) (*models.DocumentShare, error) {
	var share models.DocumentShare
	err := r.DB.WithContext(ctx).
		Where("document_id = ?", documentID).
		Where("user_id = ? OR email = ?", userID, email).
		First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

// Upsert creates a share for (document, email) or updates the access level
// of an existing one.
func (r *ShareRepository) Upsert(ctx context.Context, share *models.DocumentShare) error {
	var existing models.DocumentShare
	err := r.DB.WithContext(ctx).
		Where("document_id = ? AND email = ?", share.DocumentID, share.Email).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.WithContext(ctx).Create(share).Error
	}
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Model(&existing).
		Updates(map[string]interface{}{"access_level": share.AccessLevel, "user_id": share.UserID}).Error
}

func (r *ShareRepository) ListByDocument(ctx context.Context, documentID uint) ([]models.DocumentShare, error) {
	var shares []models.DocumentShare
	err := r.DB.WithContext(ctx).Where("document_id = ?", documentID).Find(&shares).Error
	return shares, err
}
