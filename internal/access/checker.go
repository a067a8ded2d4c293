package access

import (
	"context"

	"documind/internal/models"
)

// Level is the effective access a user holds on a document.
type Level string

const (
	LevelEdit Level = "edit"
	LevelView Level = "view"
	LevelNone Level = ""
)

// ShareFinder looks up a share record for a document matching either the
// user id or the email.
type ShareFinder interface {
	FindByDocumentAndUserOrEmail(ctx context.Context, documentID, userID uint, email string) (*models.DocumentShare, error)
}

// Checker decides what a user may do with a document. Rules, in precedence
// order: owner, then public visibility, then share records.
type Checker struct {
	Shares ShareFinder
}

func NewChecker(shares ShareFinder) *Checker {
	return &Checker{Shares: shares}
}

// HasAccess reports whether the user may open the document for collaborative
// editing: owner, public document, or an edit-level share.
func (c *Checker) HasAccess(ctx context.Context, doc *models.Document, userID uint, email string) (bool, error) {
	if doc.UserID == userID {
		return true, nil
	}
	if doc.IsPublic {
		return true, nil
	}
	share, err := c.Shares.FindByDocumentAndUserOrEmail(ctx, doc.ID, userID, email)
	if err != nil {
		return false, err
	}
	return share != nil && share.AccessLevel == models.AccessEdit, nil
}

// EffectiveLevel distinguishes edit from view access: owners and edit shares
// get edit, view shares and public-but-unshared documents get view. Used by
// the HTTP access endpoint so clients can lock the editor read-only.
func (c *Checker) EffectiveLevel(ctx context.Context, doc *models.Document, userID uint, email string) (Level, error) {
	if doc.UserID == userID {
		return LevelEdit, nil
	}
	share, err := c.Shares.FindByDocumentAndUserOrEmail(ctx, doc.ID, userID, email)
	if err != nil {
		return LevelNone, err
	}
	if share != nil {
		if share.AccessLevel == models.AccessEdit {
			return LevelEdit, nil
		}
		return LevelView, nil
	}
	if doc.IsPublic {
		return LevelView, nil
	}
	return LevelNone, nil
}
