package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rizkywidodo/TugasAkhir/internal/middleware"
	"github.com/rizkywidodo/TugasAkhir/internal/models"
	"github.com/rizkywidodo/TugasAkhir/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type HistoryHandler interface {
	GetHistory(c *gin.Context)
	GetHistoryDetail(c *gin.Context)
	UpdatePredictions(c *gin.Context)
	DeleteHistoryItem(c *gin.Context)
	ClearHistory(c *gin.Context)
}

type historyHandler struct {
	repo repository.HistoryRepository
	log  *logrus.Logger
}

func NewHistoryHandler(repo repository.HistoryRepository, log *logrus.Logger) HistoryHandler {
	return &historyHandler{repo: repo, log: log}
}

// historyResponse shapes one entry the way clients consume it: the raw
// serialized payload plus the decoded results list.
func historyResponse(h *models.ClassificationHistory) gin.H {
	return gin.H{
		"id":             h.ID,
		"user_id":        h.UserID,
		"timestamp":      h.Timestamp,
		"model_name":     h.ModelName,
		"model_type":     h.ModelType,
		"source_type":    h.SourceType,
		"issue_url":      h.IssueURL,
		"issue_title":    h.IssueTitle,
		"issue_number":   h.IssueNumber,
		"result_count":   h.ResultCount,
		"results_json":   h.ResultsJSON,
		"results":        h.Results(),
		"status":         h.Status,
		"total_comments": h.ResultCount,
	}
}

// GetHistory handles GET /api/history with pagination and conjunctive
// filters over model_name, model_type and status.
func (h *historyHandler) GetHistory(c *gin.Context) {
	userID := middleware.UserID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	filter := repository.HistoryFilter{
		ModelName: c.Query("model_name"),
		ModelType: c.Query("model_type"),
		Status:    c.Query("status"),
		Page:      page,
		PerPage:   perPage,
	}

	result, err := h.repo.ListByUser(userID, filter)
	if err != nil {
		h.log.Errorf("Failed to get history for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get history"})
		return
	}

	items := make([]gin.H, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, historyResponse(item))
	}

	c.JSON(http.StatusOK, gin.H{
		"history": items,
		"pagination": gin.H{
			"page":     result.Page,
			"pages":    result.Pages,
			"per_page": result.PerPage,
			"total":    result.Total,
			"has_next": result.HasNext,
			"has_prev": result.HasPrev,
		},
		"user_id": userID,
		"filters_applied": gin.H{
			"model_name": filter.ModelName,
			"model_type": filter.ModelType,
			"status":     filter.Status,
		},
	})
}

func (h *historyHandler) GetHistoryDetail(c *gin.Context) {
	userID := middleware.UserID(c)
	historyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	item, err := h.repo.GetByID(userID, historyID)
	if err != nil {
		if errors.Is(err, repository.ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "History item not found"})
			return
		}
		h.log.Errorf("Failed to get history detail %d: %v", historyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get history detail"})
		return
	}

	c.JSON(http.StatusOK, historyResponse(item))
}

type UpdatePredictionsRequest struct {
	Predictions []models.PredictionResult `json:"predictions"`
}

// UpdatePredictions replaces an entry's results wholesale and recomputes the
// stored count.
func (h *historyHandler) UpdatePredictions(c *gin.Context) {
	userID := middleware.UserID(c)
	historyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	var req UpdatePredictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Predictions == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Predictions data required"})
		return
	}

	predictionsJSON, err := json.Marshal(req.Predictions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize predictions"})
		return
	}

	if err := h.repo.UpdateResults(userID, historyID, string(predictionsJSON), len(req.Predictions)); err != nil {
		if errors.Is(err, repository.ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "History item not found"})
			return
		}
		h.log.Errorf("Failed to update predictions for history %d: %v", historyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update predictions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":             "Predictions updated successfully",
		"history_id":          historyID,
		"updated_predictions": len(req.Predictions),
	})
}

func (h *historyHandler) DeleteHistoryItem(c *gin.Context) {
	userID := middleware.UserID(c)
	historyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	if err := h.repo.DeleteByID(userID, historyID); err != nil {
		if errors.Is(err, repository.ErrHistoryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "History item not found"})
			return
		}
		h.log.Errorf("Failed to delete history %d: %v", historyID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "History item deleted successfully"})
}

func (h *historyHandler) ClearHistory(c *gin.Context) {
	userID := middleware.UserID(c)

	deleted, err := h.repo.ClearByUser(userID)
	if err != nil {
		h.log.Errorf("Failed to clear history for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "History cleared successfully",
		"deleted_count": deleted,
		"user_id":       userID,
	})
}
