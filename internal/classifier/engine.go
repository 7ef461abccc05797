package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/rizkywidodo/TugasAkhir/internal/ml_client"
	"github.com/rizkywidodo/TugasAkhir/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrModelLoad means the model identifier could not be resolved into a usable
// model (unknown reference, service failure, incompatible architecture).
var ErrModelLoad = errors.New("failed to load model")

const (
	// maxSeqLength is the tokenizer truncation/padding length.
	maxSeqLength = 512
	// classifySeed pins every source of scoring nondeterminism so that
	// repeated runs over identical inputs are reproducible from history.
	classifySeed = 42
)

// Engine runs issue comments through a named sequence-classification model
// and normalizes the predictions into the canonical taxonomy. Loaded model
// descriptors are cached by identifier; concurrent loads of the same
// identifier are collapsed into a single request.
type Engine struct {
	ml     *ml_client.Client
	logger *zap.Logger

	mu     sync.Mutex
	loaded map[string]*ml_client.ModelInfo
	group  singleflight.Group
}

func NewEngine(ml *ml_client.Client, logger *zap.Logger) *Engine {
	return &Engine{
		ml:     ml,
		logger: logger,
		loaded: make(map[string]*ml_client.ModelInfo),
	}
}

// LoadModel resolves a model identifier, verifying the model and its
// tokenizer actually load. The descriptor is cached for later runs.
func (e *Engine) LoadModel(ctx context.Context, modelName string) (*ml_client.ModelInfo, error) {
	e.mu.Lock()
	if info, ok := e.loaded[modelName]; ok {
		e.mu.Unlock()
		return info, nil
	}
	e.mu.Unlock()

	v, err, _ := e.group.Do(modelName, func() (interface{}, error) {
		info, err := e.ml.GetModelInfo(ctx, modelName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, modelName, err)
		}

		e.mu.Lock()
		e.loaded[modelName] = info
		e.mu.Unlock()

		e.logger.Info("Model loaded",
			zap.String("model", modelName),
			zap.Int("num_labels", info.NumLabels))
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ml_client.ModelInfo), nil
}

// ClassifyComments scores each comment independently and in order, producing
// a same-length result list. A load failure or any per-comment scoring
// failure aborts the whole batch; comments are never silently dropped.
func (e *Engine) ClassifyComments(ctx context.Context, modelName string, comments []models.Comment) ([]models.PredictionResult, error) {
	info, err := e.LoadModel(ctx, modelName)
	if err != nil {
		return nil, err
	}

	results := make([]models.PredictionResult, 0, len(comments))
	for i, comment := range comments {
		resp, err := e.ml.Classify(ctx, modelName, ml_client.ClassifyRequest{
			Text:      comment.Text,
			MaxLength: maxSeqLength,
			Seed:      classifySeed,
		})
		if err != nil {
			return nil, fmt.Errorf("scoring comment %d: %w", i, err)
		}
		if len(resp.Logits) == 0 {
			return nil, fmt.Errorf("scoring comment %d: empty logits", i)
		}

		classIdx, confidence := argmaxConfidence(resp.Logits)
		rawLabel := resolveLabel(info.ID2Label, classIdx)
		prediction := NormalizeLabel(rawLabel)

		results = append(results, models.PredictionResult{
			Author:      comment.Author,
			Comment:     comment.Text,
			Prediction:  prediction,
			Confidence:  confidence,
			IssueNumber: comment.IssueNumber,
		})
	}

	e.logger.Info("Classified comments",
		zap.String("model", modelName),
		zap.Int("count", len(results)))
	return results, nil
}

// argmaxConfidence returns the arg-max class index and the softmax-normalized
// maximum probability rounded to 3 decimal places.
func argmaxConfidence(logits []float64) (int, float64) {
	maxIdx := 0
	for i, l := range logits {
		if l > logits[maxIdx] {
			maxIdx = i
		}
	}

	// Numerically stable softmax.
	var sum float64
	for _, l := range logits {
		sum += math.Exp(l - logits[maxIdx])
	}
	confidence := 1.0 / sum

	return maxIdx, math.Round(confidence*1000) / 1000
}

// resolveLabel looks the class index up in the model's own label map, falling
// back to the stringified index when the map is missing or incomplete.
func resolveLabel(id2label map[string]string, classIdx int) string {
	key := strconv.Itoa(classIdx)
	if label, ok := id2label[key]; ok {
		return label
	}
	return key
}
