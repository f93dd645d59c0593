package repo

import (
	"context"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-directory/internal/language/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

const requestColumns = `id, request_code, iso_code, name, requested_by, status, notes, created_at, updated_at`

// CreateRequest inserts a language request. in.Code must already be set.
func (r *LanguageRepo) CreateRequest(ctx context.Context, in entity.NewLanguageRequest) (*entity.LanguageRequest, error) {
	q := `INSERT INTO language_requests (request_code, iso_code, name, requested_by, notes)
		  VALUES ($1, $2, $3, $4, $5) RETURNING ` + requestColumns
	var out entity.LanguageRequest
	if err := r.db.GetContext(ctx, &out, q, in.Code, entity.LanguageCode(in.IsoCode), in.Name, in.RequestedBy, in.Notes); err != nil {
		return nil, fmt.Errorf("insert language request: %w", err)
	}
	return &out, nil
}

// UpdateRequestByID applies a partial update to a language request.
func (r *LanguageRepo) UpdateRequestByID(ctx context.Context, id int64, p entity.LanguageRequestPatch) (database.MutationResult, error) {
	const q = `WITH target AS (
		SELECT id FROM language_requests WHERE id = $1
	), changed AS (
		UPDATE language_requests lr SET
			iso_code = COALESCE($2, lr.iso_code),
			name = COALESCE($3, lr.name),
			status = COALESCE($4, lr.status),
			notes = COALESCE($5, lr.notes),
			updated_at = NOW()
		FROM target
		WHERE lr.id = target.id
		  AND (lr.iso_code, lr.name, lr.status, lr.notes) IS DISTINCT FROM
		      (COALESCE($2, lr.iso_code), COALESCE($3, lr.name), COALESCE($4, lr.status), COALESCE($5, lr.notes))
		RETURNING lr.id
	)
	SELECT (SELECT COUNT(*) FROM target) AS affected, (SELECT COUNT(*) FROM changed) AS changed`

	var iso *string
	if p.IsoCode != nil {
		v := entity.LanguageCode(*p.IsoCode)
		iso = &v
	}
	var res database.MutationResult
	if err := r.db.GetContext(ctx, &res, q, id, iso, p.Name, p.Status, p.Notes); err != nil {
		return database.MutationResult{}, fmt.Errorf("update language request: %w", err)
	}
	return res, nil
}
