package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rizkywidodo/TugasAkhir/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrHistoryNotFound is returned when an entry does not exist or belongs to a
// different user. Ownership misses are deliberately indistinguishable from
// missing ids so the store never leaks the existence of other users' entries.
var ErrHistoryNotFound = errors.New("history entry not found")

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// HistoryFilter narrows a listing. Empty fields are ignored; set fields
// combine conjunctively.
type HistoryFilter struct {
	ModelName string
	ModelType string
	Status    string
	Page      int
	PerPage   int
}

// HistoryPage is one page of history entries, newest first.
type HistoryPage struct {
	Items   []*models.ClassificationHistory
	Page    int
	Pages   int
	PerPage int
	Total   int
	HasNext bool
	HasPrev bool
}

type HistoryRepository interface {
	CreateHistory(h *models.ClassificationHistory) error
	ListByUser(userID int64, filter HistoryFilter) (*HistoryPage, error)
	ListAllByUser(userID int64) ([]*models.ClassificationHistory, error)
	GetByID(userID, historyID int64) (*models.ClassificationHistory, error)
	UpdateResults(userID, historyID int64, resultsJSON string, resultCount int) error
	DeleteByID(userID, historyID int64) error
	ClearByUser(userID int64) (int64, error)
}

type historyRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewHistoryRepository(db *sqlx.DB, logger *zap.Logger) HistoryRepository {
	return &historyRepository{db: db, logger: logger}
}

const historyColumns = `id, user_id, timestamp, model_name, model_type, source_type, issue_url, issue_title, issue_number, result_count, results_json, status`

func (r *historyRepository) CreateHistory(h *models.ClassificationHistory) error {
	query := `INSERT INTO classification_history
	          (user_id, timestamp, model_name, model_type, source_type, issue_url, issue_title, issue_number, result_count, results_json, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	return r.db.QueryRowx(query, h.UserID, h.Timestamp, h.ModelName, h.ModelType, h.SourceType,
		h.IssueURL, h.IssueTitle, h.IssueNumber, h.ResultCount, h.ResultsJSON, h.Status).Scan(&h.ID)
}

// buildFilter renders the conjunctive WHERE clause shared by the count and
// page queries. Placeholders are numbered in order of appearance.
func buildFilter(userID int64, filter HistoryFilter) (string, []interface{}) {
	clauses := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.ModelName != "" {
		args = append(args, filter.ModelName)
		clauses = append(clauses, fmt.Sprintf("model_name = $%d", len(args)))
	}
	if filter.ModelType != "" {
		args = append(args, filter.ModelType)
		clauses = append(clauses, fmt.Sprintf("model_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func (r *historyRepository) ListByUser(userID int64, filter HistoryFilter) (*HistoryPage, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	where, args := buildFilter(userID, filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM classification_history WHERE %s`, where)
	if err := r.db.Get(&total, countQuery, args...); err != nil {
		return nil, err
	}

	pages := (total + perPage - 1) / perPage

	listQuery := fmt.Sprintf(`SELECT %s FROM classification_history WHERE %s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		historyColumns, where, len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	items := []*models.ClassificationHistory{}
	if err := r.db.Select(&items, listQuery, args...); err != nil {
		return nil, err
	}

	return &HistoryPage{
		Items:   items,
		Page:    page,
		Pages:   pages,
		PerPage: perPage,
		Total:   total,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}, nil
}

func (r *historyRepository) ListAllByUser(userID int64) ([]*models.ClassificationHistory, error) {
	items := []*models.ClassificationHistory{}
	query := fmt.Sprintf(`SELECT %s FROM classification_history WHERE user_id = $1 ORDER BY timestamp DESC`, historyColumns)
	if err := r.db.Select(&items, query, userID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *historyRepository) GetByID(userID, historyID int64) (*models.ClassificationHistory, error) {
	var h models.ClassificationHistory
	query := fmt.Sprintf(`SELECT %s FROM classification_history WHERE id = $1 AND user_id = $2`, historyColumns)
	err := r.db.Get(&h, query, historyID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// UpdateResults replaces the results payload wholesale and recomputes the
// stored count inside a transaction, so a failed write leaves the entry in
// its prior state.
func (r *historyRepository) UpdateResults(userID, historyID int64, resultsJSON string, resultCount int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE classification_history SET results_json = $1, result_count = $2 WHERE id = $3 AND user_id = $4`,
		resultsJSON, resultCount, historyID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHistoryNotFound
	}

	return tx.Commit()
}

func (r *historyRepository) DeleteByID(userID, historyID int64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM classification_history WHERE id = $1 AND user_id = $2`, historyID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrHistoryNotFound
	}

	return tx.Commit()
}

func (r *historyRepository) ClearByUser(userID int64) (int64, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM classification_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	r.logger.Info("Cleared classification history", zap.Int64("user_id", userID), zap.Int64("deleted", deleted))
	return deleted, nil
}
