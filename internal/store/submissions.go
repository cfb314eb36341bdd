// internal/store/submissions.go
package store

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// SubmissionStore is the append-only record of submitted applications.
// Records enter through Append and only their status may change later,
// through review.
type SubmissionStore interface {
	Append(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByUser(ctx context.Context, userID string) ([]models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// PostgresSubmissionStore persists submissions in PostgreSQL.
type PostgresSubmissionStore struct {
	db *sql.DB
}

func NewPostgresSubmissionStore(db *sql.DB) *PostgresSubmissionStore {
	return &PostgresSubmissionStore{db: db}
}

const insertSubmissionQuery = `
	INSERT INTO submissions (id, user_id, opportunity_id, project, amount, start_date, end_date, status, submission_date)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const selectSubmissionColumns = `
	SELECT id, user_id, opportunity_id, project, amount, start_date, end_date, status, submission_date
	FROM submissions`

func (s *PostgresSubmissionStore) Append(ctx context.Context, sub *models.Submission) error {
	_, err := s.db.ExecContext(ctx, insertSubmissionQuery,
		sub.ID, sub.UserID, sub.OpportunityID, sub.Project, sub.Amount,
		sub.StartDate, sub.EndDate, sub.Status, sub.SubmissionDate,
	)
	if err != nil {
		return stderrors.NewSubmissionStoreFailedError(err)
	}
	return nil
}

func (s *PostgresSubmissionStore) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.QueryRowContext(ctx,
		selectSubmissionColumns+` WHERE id = $1`, id,
	).Scan(
		&sub.ID, &sub.UserID, &sub.OpportunityID, &sub.Project, &sub.Amount,
		&sub.StartDate, &sub.EndDate, &sub.Status, &sub.SubmissionDate,
	)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewSubmissionNotFoundError(id)
	}
	if err != nil {
		return nil, stderrors.NewSubmissionStoreFailedError(err)
	}
	return &sub, nil
}

func (s *PostgresSubmissionStore) ListByUser(ctx context.Context, userID string) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		selectSubmissionColumns+` WHERE user_id = $1 ORDER BY submission_date DESC`, userID)
	if err != nil {
		return nil, stderrors.NewSubmissionStoreFailedError(err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *PostgresSubmissionStore) ListAll(ctx context.Context) ([]models.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		selectSubmissionColumns+` ORDER BY submission_date DESC`)
	if err != nil {
		return nil, stderrors.NewSubmissionStoreFailedError(err)
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *PostgresSubmissionStore) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return stderrors.NewSubmissionStoreFailedError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewSubmissionStoreFailedError(err)
	}
	if affected == 0 {
		return stderrors.NewSubmissionNotFoundError(id)
	}
	return nil
}

func scanSubmissions(rows *sql.Rows) ([]models.Submission, error) {
	out := []models.Submission{}
	for rows.Next() {
		var sub models.Submission
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.OpportunityID, &sub.Project, &sub.Amount,
			&sub.StartDate, &sub.EndDate, &sub.Status, &sub.SubmissionDate,
		); err != nil {
			return nil, stderrors.NewSubmissionStoreFailedError(err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewSubmissionStoreFailedError(err)
	}
	return out, nil
}

// MemorySubmissionStore is the in-process variant used by tests and
// single-binary runs.
type MemorySubmissionStore struct {
	mu      sync.RWMutex
	records []models.Submission
}

func NewMemorySubmissionStore() *MemorySubmissionStore {
	return &MemorySubmissionStore{}
}

func (s *MemorySubmissionStore) Append(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *sub)
	return nil
}

func (s *MemorySubmissionStore) FindByID(_ context.Context, id string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].ID == id {
			sub := s.records[i]
			return &sub, nil
		}
	}
	return nil, stderrors.NewSubmissionNotFoundError(id)
}

func (s *MemorySubmissionStore) ListByUser(_ context.Context, userID string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Submission{}
	for _, sub := range s.records {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *MemorySubmissionStore) ListAll(_ context.Context) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Submission, len(s.records))
	copy(out, s.records)
	sortByDateDesc(out)
	return out, nil
}

func (s *MemorySubmissionStore) UpdateStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Status = status
			return nil
		}
	}
	return stderrors.NewSubmissionNotFoundError(id)
}

func sortByDateDesc(subs []models.Submission) {
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].SubmissionDate.After(subs[j].SubmissionDate)
	})
}
