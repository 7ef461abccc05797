package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rizkywidodo/TugasAkhir/internal/ml_client"
	"github.com/rizkywidodo/TugasAkhir/internal/models"
	"github.com/rizkywidodo/TugasAkhir/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrModelExists      = errors.New("model already exists")
	ErrModelNotFound    = errors.New("model not found")
	ErrModelNotLoadable = errors.New("model could not be loaded")
)

// defaultModels keeps the classification UI usable when the registry is
// empty: the built-in fine-tuned checkpoints of the research project.
var defaultModels = []string{
	"mrizkywidodo/distilbert-base-uncased-rizkywidodo",
	"mrizkywidodo/bert-base-rizkywidodo",
	"mrizkywidodo/roberta-base-rizkywidodo",
}

// ModelVerifier checks that a model identifier actually resolves into a
// loadable model with its tokenizer before the descriptor is persisted.
type ModelVerifier interface {
	LoadModel(ctx context.Context, modelName string) (*ml_client.ModelInfo, error)
}

// RegistryService manages the set of model identifiers available for
// selection. It makes no assumption about caller authorization; mutation is
// gated at the API surface.
type RegistryService interface {
	AvailableModels() []string
	ListModels() ([]*models.AIModel, error)
	DefaultModels() []string
	AddModel(ctx context.Context, modelName, uploadedBy string) (*models.AIModel, error)
	RemoveModel(modelName string) error
}

type registryService struct {
	repo     repository.ModelRepository
	verifier ModelVerifier
	logger   *zap.Logger
}

func NewRegistryService(repo repository.ModelRepository, verifier ModelVerifier, logger *zap.Logger) RegistryService {
	return &registryService{repo: repo, verifier: verifier, logger: logger}
}

// AvailableModels returns the registered model identifiers, falling back to
// the built-in defaults when the registry is empty or unreadable.
func (s *registryService) AvailableModels() []string {
	list, err := s.repo.ListModels()
	if err != nil {
		s.logger.Error("Failed to load models from registry, using defaults", zap.Error(err))
		return append([]string(nil), defaultModels...)
	}
	if len(list) == 0 {
		return append([]string(nil), defaultModels...)
	}

	names := make([]string, 0, len(list))
	for _, m := range list {
		names = append(names, m.HuggingfaceURL)
	}
	return names
}

func (s *registryService) ListModels() ([]*models.AIModel, error) {
	return s.repo.ListModels()
}

func (s *registryService) DefaultModels() []string {
	return append([]string(nil), defaultModels...)
}

// AddModel registers a new model descriptor. The identifier must not already
// exist, and the model must verifiably load before anything is persisted, so
// an unresolvable name is never registered.
func (s *registryService) AddModel(ctx context.Context, modelName, uploadedBy string) (*models.AIModel, error) {
	_, err := s.repo.GetModelByURL(modelName)
	if err == nil {
		return nil, ErrModelExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing model: %w", err)
	}

	if _, err := s.verifier.LoadModel(ctx, modelName); err != nil {
		s.logger.Warn("Rejecting unloadable model", zap.String("model", modelName), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoadable, err)
	}

	parts := strings.Split(modelName, "/")
	model := &models.AIModel{
		Name:           parts[len(parts)-1],
		HuggingfaceURL: modelName,
		UploadedBy:     uploadedBy,
		UploadedAt:     time.Now().UTC(),
	}

	if err := s.repo.CreateModel(model); err != nil {
		return nil, fmt.Errorf("failed to persist model: %w", err)
	}

	s.logger.Info("Model registered", zap.String("model", modelName), zap.String("by", uploadedBy))
	return model, nil
}

func (s *registryService) RemoveModel(modelName string) error {
	deleted, err := s.repo.DeleteModel(modelName)
	if err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}
	if !deleted {
		return ErrModelNotFound
	}

	s.logger.Info("Model removed", zap.String("model", modelName))
	return nil
}
