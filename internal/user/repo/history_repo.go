package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-directory/internal/user/entity"
)

// HistoryRepo appends login/logout audit entries.
type HistoryRepo struct {
	db *sqlx.DB
}

func NewHistoryRepo(db *sqlx.DB) *HistoryRepo { return &HistoryRepo{db: db} }

// Append records action for userID and returns the stored entry.
func (r *HistoryRepo) Append(ctx context.Context, userID int64, action string) (*entity.LoginHistoryEntry, error) {
	const q = `INSERT INTO login_history (user_id, action) VALUES ($1, $2) RETURNING id, user_id, action, created_at`
	var e entity.LoginHistoryEntry
	if err := r.db.GetContext(ctx, &e, q, userID, action); err != nil {
		return nil, fmt.Errorf("append login history: %w", err)
	}
	return &e, nil
}

// DeleteByUser removes every entry of userID. Only the test routes use it.
func (r *HistoryRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM login_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete login history: %w", err)
	}
	return res.RowsAffected()
}
