// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"sync"

	stderrors "grantflow/internal/common/errors"
	"grantflow/internal/models"
)

// UserStore is the user directory consumed by the admin surface.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
}

// PostgresUserStore serves the directory from PostgreSQL.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, role FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role)
	if err == sql.ErrNoRows {
		return nil, stderrors.NewUserNotFoundError(id)
	}
	if err != nil {
		return nil, stderrors.NewDatabaseConnectionFailedError(err)
	}
	return &u, nil
}

func (s *PostgresUserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, role FROM users ORDER BY name`)
	if err != nil {
		return nil, stderrors.NewDatabaseConnectionFailedError(err)
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role); err != nil {
			return nil, stderrors.NewDatabaseConnectionFailedError(err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewDatabaseConnectionFailedError(err)
	}
	return out, nil
}

func (s *PostgresUserStore) UpdateRole(ctx context.Context, id string, role models.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return stderrors.NewDatabaseConnectionFailedError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return stderrors.NewDatabaseConnectionFailedError(err)
	}
	if affected == 0 {
		return stderrors.NewUserNotFoundError(id)
	}
	return nil
}

// MemoryUserStore is the in-process variant used by tests and
// single-binary runs.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	order []string
}

func NewMemoryUserStore(seed ...models.User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[string]models.User)}
	for _, u := range seed {
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
	return s
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, stderrors.NewUserNotFoundError(id)
}

func (s *MemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *MemoryUserStore) UpdateRole(_ context.Context, id string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return stderrors.NewUserNotFoundError(id)
	}
	u.Role = role
	s.users[id] = u
	return nil
}
