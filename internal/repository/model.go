package repository

import (
	"github.com/rizkywidodo/TugasAkhir/internal/models"

	"github.com/jmoiron/sqlx"
)

// ModelRepository handles database operations for the ai_models table.
type ModelRepository interface {
	ListModels() ([]*models.AIModel, error)
	GetModelByURL(huggingfaceURL string) (*models.AIModel, error)
	CreateModel(model *models.AIModel) error
	DeleteModel(huggingfaceURL string) (bool, error)
}

type modelRepository struct {
	db *sqlx.DB
}

// NewModelRepository creates a new AI model repository.
func NewModelRepository(db *sqlx.DB) ModelRepository {
	return &modelRepository{db: db}
}

func (r *modelRepository) ListModels() ([]*models.AIModel, error) {
	var list []*models.AIModel
	query := `SELECT id, name, huggingface_url, uploaded_by, uploaded_at FROM ai_models ORDER BY uploaded_at DESC`
	err := r.db.Select(&list, query)
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *modelRepository) GetModelByURL(huggingfaceURL string) (*models.AIModel, error) {
	var model models.AIModel
	query := `SELECT id, name, huggingface_url, uploaded_by, uploaded_at FROM ai_models WHERE huggingface_url = $1`
	err := r.db.Get(&model, query, huggingfaceURL)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *modelRepository) CreateModel(model *models.AIModel) error {
	query := `INSERT INTO ai_models (name, huggingface_url, uploaded_by, uploaded_at) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowx(query, model.Name, model.HuggingfaceURL, model.UploadedBy, model.UploadedAt).Scan(&model.ID)
}

func (r *modelRepository) DeleteModel(huggingfaceURL string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM ai_models WHERE huggingface_url = $1`, huggingfaceURL)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
