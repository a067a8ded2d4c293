package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"documind/internal/models"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepository struct {
	DB *gorm.DB
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.DB.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.DB.WithContext(ctx).First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	return &doc, err
}

// UpdateContent writes the document body and records who edited it last.
// This is the row also written by the HTTP update endpoint; both sides are
// plain last-write-wins.
func (r *DocumentRepository) UpdateContent(ctx context.Context, id uint, content string, editorID uint) error {
	result := r.DB.WithContext(ctx).Model(&models.Document{}).Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "last_edited_by_id": editorID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.Document, error) {
	var doc models.Document
	if err := r.DB.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&doc).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(&models.Document{}, id)
	if result.RowsAffected == 0 {
		return ErrDocumentNotFound
	}
	return result.Error
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Document, error) {
	var docs []models.Document
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) ListPublic(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	err := r.DB.WithContext(ctx).
		Where("is_public = ?", true).
		Order("updated_at DESC").
		Find(&docs).Error
	return docs, err
}

// ListSharedWith returns documents shared with the user by id or email,
// excluding the user's own documents.
func (r *DocumentRepository) ListSharedWith(ctx context.Context, userID uint, email string) ([]models.Document, error) {
	var docs []models.Document
	err := r.DB.WithContext(ctx).
		Joins("JOIN document_shares ON document_shares.document_id = documents.id AND document_shares.deleted_at IS NULL").
		Where("(document_shares.user_id = ? OR document_shares.email = ?)", userID, email).
		Where("documents.user_id <> ?", userID).
		Order("documents.updated_at DESC").
		Find(&docs).Error
	return docs, err
}
