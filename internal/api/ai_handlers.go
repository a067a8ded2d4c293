package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"documind/internal/utils"
)

type generateTitleRequest struct {
	Content string `json:"content"`
}

type processRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateTitle names a document from a content snippet without creating
// anything.
func (h *Handlers) GenerateTitle(w http.ResponseWriter, r *http.Request) {
	var req generateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		utils.JSONError(w, http.StatusBadRequest, "content is required")
		return
	}

	title, err := h.pipeline.GenerateTitle(r.Context(), req.Content)
	if err != nil {
		h.logger.Error("title generation failed", zap.Error(err))
		utils.JSONError(w, http.StatusBadGateway, "Failed to generate title")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"title": title})
}

// ProcessPrompt runs a free-form prompt through the configured provider.
func (h *Handlers) ProcessPrompt(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		utils.JSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	result, err := h.pipeline.Process(r.Context(), req.Prompt)
	if err != nil {
		h.logger.Error("prompt processing failed", zap.Error(err))
		utils.JSONError(w, http.StatusBadGateway, "Failed to process prompt")
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"result": result})
}
