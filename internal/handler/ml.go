package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rizkywidodo/TugasAkhir/internal/classifier"
	"github.com/rizkywidodo/TugasAkhir/internal/github_client"
	"github.com/rizkywidodo/TugasAkhir/internal/middleware"
	"github.com/rizkywidodo/TugasAkhir/internal/models"
	"github.com/rizkywidodo/TugasAkhir/internal/repository"
	"github.com/rizkywidodo/TugasAkhir/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// predictTimeout bounds one classification run end to end: issue fetch, model
// load and per-comment scoring. A slow or unavailable model must not stall
// the worker indefinitely.
const predictTimeout = 120 * time.Second

type MLHandler interface {
	AvailableModels(c *gin.Context)
	Predict(c *gin.Context)
	SaveHistory(c *gin.Context)
	MyHistory(c *gin.Context)
}

type mlHandler struct {
	registry    service.RegistryService
	engine      *classifier.Engine
	github      *github_client.Client
	historyRepo repository.HistoryRepository
	logger      *zap.Logger
}

func NewMLHandler(registry service.RegistryService, engine *classifier.Engine, github *github_client.Client, historyRepo repository.HistoryRepository, logger *zap.Logger) MLHandler {
	return &mlHandler{
		registry:    registry,
		engine:      engine,
		github:      github,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func (h *mlHandler) AvailableModels(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.AvailableModels())
}

type PredictRequest struct {
	ModelName string `json:"model_name" binding:"required"`
	IssueURL  string `json:"issue_url" binding:"required"`
}

func (h *mlHandler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue_url and model_name required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), predictTimeout)
	defer cancel()

	issue, err := h.github.FetchIssue(ctx, req.IssueURL)
	if err != nil {
		switch {
		case errors.Is(err, github_client.ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid GitHub issue URL. Expected: https://github.com/owner/repo/issues/number"})
		case errors.Is(err, github_client.ErrIssueNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Issue not found. Please check if the URL is correct"})
		default:
			h.logger.Error("Failed to fetch issue", zap.String("url", req.IssueURL), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch issue from GitHub"})
		}
		return
	}

	if len(issue.Comments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No comments found in this issue"})
		return
	}

	results, err := h.engine.ClassifyComments(ctx, req.ModelName, issue.Comments)
	if err != nil {
		if errors.Is(err, classifier.ErrModelLoad) {
			h.logger.Error("Model load failed", zap.String("model", req.ModelName), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load model: " + req.ModelName})
			return
		}
		h.logger.Error("Classification failed", zap.String("model", req.ModelName), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Classification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":         results,
		"issue_title":    issue.Title,
		"issue_number":   issue.Number,
		"total_comments": len(results),
	})
}

type SaveHistoryRequest struct {
	ModelName   string          `json:"model_name" binding:"required"`
	IssueURL    string          `json:"issue_url" binding:"required"`
	IssueTitle  string          `json:"issue_title"`
	IssueNumber string          `json:"issue_number"`
	ResultJSON  json.RawMessage `json:"result_json" binding:"required"`
	SourceType  string          `json:"source_type"`
}

func (h *mlHandler) SaveHistory(c *gin.Context) {
	var req SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_name, issue_url and result_json required"})
		return
	}

	var results []models.PredictionResult
	if err := json.Unmarshal(req.ResultJSON, &results); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "result_json must be a list of prediction results"})
		return
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to serialize results"})
		return
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = "github"
	}

	userID := middleware.UserID(c)
	history := &models.ClassificationHistory{
		UserID:      &userID,
		Timestamp:   time.Now().UTC(),
		ModelName:   req.ModelName,
		ModelType:   models.ModelTypeSystem,
		SourceType:  sourceType,
		IssueURL:    req.IssueURL,
		IssueTitle:  req.IssueTitle,
		IssueNumber: req.IssueNumber,
		ResultCount: len(results),
		ResultsJSON: string(resultsJSON),
		Status:      models.StatusCompleted,
	}

	if err := h.historyRepo.CreateHistory(history); err != nil {
		h.logger.Error("Failed to save history", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "History saved",
		"history_id": history.ID,
	})
}

func (h *mlHandler) MyHistory(c *gin.Context) {
	userID := middleware.UserID(c)

	histories, err := h.historyRepo.ListAllByUser(userID)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Int64("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get history"})
		return
	}

	items := make([]gin.H, 0, len(histories))
	for _, h := range histories {
		items = append(items, historyResponse(h))
	}

	c.JSON(http.StatusOK, gin.H{
		"histories": items,
		"total":     len(items),
	})
}
