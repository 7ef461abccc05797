package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rizkywidodo/TugasAkhir/internal/middleware"
	"github.com/rizkywidodo/TugasAkhir/internal/models"
	"github.com/rizkywidodo/TugasAkhir/internal/repository"
	"github.com/rizkywidodo/TugasAkhir/internal/service"
	"github.com/rizkywidodo/TugasAkhir/internal/telegram_bot"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// addModelTimeout bounds the loadability check performed before a model is
// registered.
const addModelTimeout = 120 * time.Second

type AdminHandler interface {
	GetModels(c *gin.Context)
	AddModel(c *gin.Context)
	DeleteModel(c *gin.Context)
	GetUsers(c *gin.Context)
	UpdateUser(c *gin.Context)
	DeleteUser(c *gin.Context)
}

type adminHandler struct {
	registry service.RegistryService
	userRepo repository.UserRepository
	notifier *telegram_bot.Notifier
	logger   *zap.Logger
}

func NewAdminHandler(registry service.RegistryService, userRepo repository.UserRepository, notifier *telegram_bot.Notifier, logger *zap.Logger) AdminHandler {
	return &adminHandler{
		registry: registry,
		userRepo: userRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// currentUserName resolves the display name of the authenticated admin, used
// for uploader attribution.
func (h *adminHandler) currentUserName(c *gin.Context) string {
	user, err := h.userRepo.GetUserByID(middleware.UserID(c))
	if err != nil {
		return "admin"
	}
	return user.Name
}

func (h *adminHandler) GetModels(c *gin.Context) {
	list, err := h.registry.ListModels()
	if err != nil {
		h.logger.Error("Failed to list models", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list models"})
		return
	}

	formatted := make([]gin.H, 0)
	if len(list) == 0 {
		// Empty registry still presents the built-in default models.
		uploader := h.currentUserName(c)
		now := time.Now().UTC()
		for _, name := range h.registry.DefaultModels() {
			formatted = append(formatted, gin.H{
				"id":             name,
				"name":           name,
				"huggingfaceUrl": name,
				"uploadedBy":     uploader,
				"uploadedAt":     now,
			})
		}
	} else {
		for _, m := range list {
			formatted = append(formatted, gin.H{
				"id":             strconv.FormatInt(m.ID, 10),
				"name":           m.Name,
				"huggingfaceUrl": m.HuggingfaceURL,
				"uploadedBy":     m.UploadedBy,
				"uploadedAt":     m.UploadedAt,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"models": formatted,
		"count":  len(formatted),
	})
}

type AddModelRequest struct {
	ModelName string `json:"model_name" binding:"required"`
}

func (h *adminHandler) AddModel(c *gin.Context) {
	var req AddModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_name is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), addModelTimeout)
	defer cancel()

	uploader := h.currentUserName(c)
	model, err := h.registry.AddModel(ctx, req.ModelName, uploader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrModelExists):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Model already exists"})
		case errors.Is(err, service.ErrModelNotLoadable):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "Model could not be loaded, not registered"})
		default:
			h.logger.Error("Failed to add model", zap.String("model", req.ModelName), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add model"})
		}
		return
	}

	h.notifier.NotifyModelAdded(model.HuggingfaceURL, uploader)

	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"message":    "Model added successfully",
		"model_name": model.HuggingfaceURL,
	})
}

// DeleteModel handles DELETE /api/admin/models/*name. The identifier may
// contain slashes (owner/model), hence the catch-all parameter.
func (h *adminHandler) DeleteModel(c *gin.Context) {
	modelName := strings.TrimPrefix(c.Param("name"), "/")
	if modelName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model name is required"})
		return
	}

	if err := h.registry.RemoveModel(modelName); err != nil {
		if errors.Is(err, service.ErrModelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Model not found"})
			return
		}
		h.logger.Error("Failed to delete model", zap.String("model", modelName), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete model"})
		return
	}

	h.notifier.NotifyModelRemoved(modelName, h.currentUserName(c))

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Model deleted successfully",
	})
}

func (h *adminHandler) GetUsers(c *gin.Context) {
	users, err := h.userRepo.ListUsers()
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":    strconv.FormatInt(u.ID, 10),
			"name":  u.Name,
			"email": u.Email,
			"role":  u.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"users":  out,
		"count":  len(out),
	})
}

type UpdateUserRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *adminHandler) UpdateUser(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}

	// An admin may not demote themselves.
	if targetID == middleware.UserID(c) && req.Role != "" && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own admin role"})
		return
	}

	user, err := h.userRepo.GetUserByID(targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role == models.RoleAdmin || req.Role == models.RoleResearcher {
		user.Role = req.Role
	}

	if err := h.userRepo.UpdateUser(user); err != nil {
		h.logger.Error("Failed to update user", zap.Int64("user_id", targetID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "User updated successfully",
		"user": gin.H{
			"id":    strconv.FormatInt(user.ID, 10),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

func (h *adminHandler) DeleteUser(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	// Self-deletion is forbidden.
	if targetID == middleware.UserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	user, err := h.userRepo.GetUserByID(targetID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	deleted, err := h.userRepo.DeleteUser(targetID)
	if err != nil {
		h.logger.Error("Failed to delete user", zap.Int64("user_id", targetID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "User deleted successfully",
		"deleted_user": gin.H{
			"id":    strconv.FormatInt(user.ID, 10),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
