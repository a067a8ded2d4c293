package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"documind/internal/access"
	"documind/internal/models"
	"documind/internal/repositories"
	"documind/internal/utils"
)

const defaultTitle = "Untitled document"

type createDocumentRequest struct {
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

type updateDocumentRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPublic *bool   `json:"isPublic"`
}

type shareDocumentRequest struct {
	Email       string             `json:"email"`
	AccessLevel models.AccessLevel `json:"accessLevel"`
}

// CreateDocument creates a document, titling it with the AI pipeline when
// content is provided, and announces it to all connected collaborators.
func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	user := currentUser(r)

	title := defaultTitle
	if req.Content != "" && h.pipeline != nil {
		generated, err := h.pipeline.GenerateTitle(r.Context(), req.Content)
		if err != nil {
			h.logger.Warn("title generation failed", zap.Error(err))
		} else {
			title = generated
		}
	}

	doc := models.Document{
		UserID:         user.ID,
		LastEditedByID: &user.ID,
		Title:          title,
		Content:        req.Content,
		IsPublic:       req.IsPublic,
	}
	if err := h.docs.Create(r.Context(), &doc); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to create document")
		return
	}

	h.hub.BroadcastAll(models.EventNewDocument, models.NewDocumentPayload{
		ID:       doc.ID,
		Title:    doc.Title,
		UserID:   doc.UserID,
		IsPublic: doc.IsPublic,
	})

	utils.JSON(w, http.StatusCreated, map[string]any{
		"message":  "Document created successfully",
		"document": doc,
	})
}

func (h *Handlers) ListMyDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.ListByOwner(r.Context(), currentUser(r).ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	utils.JSON(w, http.StatusOK, docs)
}

func (h *Handlers) ListPublicDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.ListPublic(r.Context())
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	utils.JSON(w, http.StatusOK, docs)
}

func (h *Handlers) ListSharedDocuments(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	docs, err := h.docs.ListSharedWith(r.Context(), user.ID, user.Email)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	utils.JSON(w, http.StatusOK, docs)
}

func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	level, err := h.checker.EffectiveLevel(r.Context(), doc, user.ID, user.Email)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if level == access.LevelNone {
		utils.JSONError(w, http.StatusForbidden, "Access denied")
		return
	}
	utils.JSON(w, http.StatusOK, doc)
}

// CheckDocumentAccess reports the caller's effective access level, so the
// client can lock the editor read-only for view access.
func (h *Handlers) CheckDocumentAccess(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	level, err := h.checker.EffectiveLevel(r.Context(), doc, user.ID, user.Email)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]any{
		"hasAccess":   level != access.LevelNone,
		"accessLevel": level,
	})
}

// ShareDocument grants another user access by email. Only the owner may
// share.
func (h *Handlers) ShareDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	if doc.UserID != currentUser(r).ID {
		utils.JSONError(w, http.StatusForbidden, "Only the owner can share a document")
		return
	}

	var req shareDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		utils.JSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.AccessLevel == "" {
		req.AccessLevel = models.AccessEdit
	}
	if req.AccessLevel != models.AccessEdit && req.AccessLevel != models.AccessView {
		utils.JSONError(w, http.StatusBadRequest, "accessLevel must be view or edit")
		return
	}

	share := models.DocumentShare{
		DocumentID:  doc.ID,
		Email:       req.Email,
		AccessLevel: req.AccessLevel,
	}
	// Link the share to the account when the invitee is already registered.
	if invitee, err := h.users.FindByEmail(r.Context(), req.Email); err == nil {
		share.UserID = &invitee.ID
	}

	if err := h.shares.Upsert(r.Context(), &share); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to share document")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Document shared successfully"})
}

// UpdateDocument is the HTTP write path. It mutates the same row as the
// debounced socket saver; both are last-write-wins with no reconciliation
// beyond overwrite order.
func (h *Handlers) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	user := currentUser(r)

	allowed, err := h.checker.HasAccess(r.Context(), doc, user.ID, user.Email)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if !allowed {
		utils.JSONError(w, http.StatusForbidden, "Access denied")
		return
	}

	var req updateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	updates := map[string]interface{}{"last_edited_by_id": user.ID}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	updated, err := h.docs.Update(r.Context(), doc.ID, updates)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to update document")
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	if doc.UserID != currentUser(r).ID {
		utils.JSONError(w, http.StatusForbidden, "Only the owner can delete a document")
		return
	}
	if err := h.docs.Delete(r.Context(), doc.ID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}

/*** Summaries ***/

type createSummaryRequest struct {
	DocumentID uint   `json:"documentId"`
	Content    string `json:"content"`
}

func (h *Handlers) CreateSummary(w http.ResponseWriter, r *http.Request) {
	var req createSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		utils.JSONError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	doc, err := h.docs.FindByID(r.Context(), req.DocumentID)
	if err != nil {
		h.respondDocumentError(w, err)
		return
	}
	user := currentUser(r)
	level, err := h.checker.EffectiveLevel(r.Context(), doc, user.ID, user.Email)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if level == access.LevelNone {
		utils.JSONError(w, http.StatusForbidden, "Access denied")
		return
	}

	summary := models.Summary{DocumentID: doc.ID, Content: req.Content}
	if err := h.summaries.Create(r.Context(), &summary); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to save summary")
		return
	}
	utils.JSON(w, http.StatusCreated, summary)
}

func (h *Handlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.loadDocument(w, r)
	if !ok {
		return
	}
	user := currentUser(r)
	level, err := h.checker.EffectiveLevel(r.Context(), doc, user.ID, user.Email)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to check access")
		return
	}
	if level == access.LevelNone {
		utils.JSONError(w, http.StatusForbidden, "Access denied")
		return
	}

	summaries, err := h.summaries.ListByDocument(r.Context(), doc.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to list summaries")
		return
	}
	utils.JSON(w, http.StatusOK, summaries)
}

func (h *Handlers) loadDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "Invalid document id")
		return nil, false
	}
	doc, err := h.docs.FindByID(r.Context(), uint(id))
	if err != nil {
		h.respondDocumentError(w, err)
		return nil, false
	}
	return doc, true
}

func (h *Handlers) respondDocumentError(w http.ResponseWriter, err error) {
	if errors.Is(err, repositories.ErrDocumentNotFound) {
		utils.JSONError(w, http.StatusNotFound, "Document not found")
		return
	}
	utils.JSONError(w, http.StatusInternalServerError, "Failed to load document")
}
