package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-directory/internal/language/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

// LanguageRepo provides data access for languages, language requests and
// the country/language association using sqlx.
type LanguageRepo struct {
	db *sqlx.DB
}

func NewLanguageRepo(db *sqlx.DB) *LanguageRepo { return &LanguageRepo{db: db} }

const languageColumns = `id, iso_code, name, native_name, created_at, updated_at`

// Create inserts a language and returns the stored row.
func (r *LanguageRepo) Create(ctx context.Context, in entity.NewLanguage) (*entity.Language, error) {
	q := `INSERT INTO languages (iso_code, name, native_name)
		  VALUES (:iso_code, :name, :native_name) RETURNING ` + languageColumns
	params := map[string]any{
		"iso_code":    entity.LanguageCode(in.IsoCode),
		"name":        in.Name,
		"native_name": in.NativeName,
	}
	rows, err := r.db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, fmt.Errorf("insert language: %w", err)
	}
	defer rows.Close()
	var out entity.Language
	if rows.Next() {
		if err := rows.StructScan(&out); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		return &out, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("insert language: %w", err)
	}
	return nil, fmt.Errorf("insert language: no row returned")
}

// List returns every language ordered by id.
func (r *LanguageRepo) List(ctx context.Context) (database.ReadResult[entity.Language], error) {
	var out []entity.Language
	if err := r.db.SelectContext(ctx, &out, `SELECT `+languageColumns+` FROM languages ORDER BY id`); err != nil {
		return database.ReadResult[entity.Language]{}, fmt.Errorf("list languages: %w", err)
	}
	return database.Rows(out), nil
}

// GetByID looks a language up by primary key.
func (r *LanguageRepo) GetByID(ctx context.Context, id int64) (database.ReadResult[entity.Language], error) {
	return r.getBy(ctx, "id", id)
}

// GetByISO looks a language up by its iso code.
func (r *LanguageRepo) GetByISO(ctx context.Context, iso string) (database.ReadResult[entity.Language], error) {
	return r.getBy(ctx, "iso_code", entity.LanguageCode(iso))
}

func (r *LanguageRepo) getBy(ctx context.Context, column string, v any) (database.ReadResult[entity.Language], error) {
	var out []entity.Language
	q := `SELECT ` + languageColumns + ` FROM languages WHERE ` + column + ` = $1`
	if err := r.db.SelectContext(ctx, &out, q, v); err != nil {
		return database.ReadResult[entity.Language]{}, fmt.Errorf("get language by %s: %w", column, err)
	}
	return database.Rows(out), nil
}

// UpdateByID applies a partial update to the language with the given id.
func (r *LanguageRepo) UpdateByID(ctx context.Context, id int64, p entity.LanguagePatch) (database.MutationResult, error) {
	return r.updateBy(ctx, "id", id, p)
}

// UpdateByISO applies a partial update to the language with the given iso code.
func (r *LanguageRepo) UpdateByISO(ctx context.Context, iso string, p entity.LanguagePatch) (database.MutationResult, error) {
	return r.updateBy(ctx, "iso_code", entity.LanguageCode(iso), p)
}

// updateBy reports how many rows matched the key and how many actually
// changed in one round trip: the UPDATE only touches a matched row whose
// values differ from the merged payload.
func (r *LanguageRepo) updateBy(ctx context.Context, column string, key any, p entity.LanguagePatch) (database.MutationResult, error) {
	q := `WITH target AS (
		SELECT id FROM languages WHERE ` + column + ` = $1
	), changed AS (
		UPDATE languages l SET
			iso_code = COALESCE($2, l.iso_code),
			name = COALESCE($3, l.name),
			native_name = COALESCE($4, l.native_name),
			updated_at = NOW()
		FROM target
		WHERE l.id = target.id
		  AND (l.iso_code, l.name, l.native_name) IS DISTINCT FROM
		      (COALESCE($2, l.iso_code), COALESCE($3, l.name), COALESCE($4, l.native_name))
		RETURNING l.id
	)
	SELECT (SELECT COUNT(*) FROM target) AS affected, (SELECT COUNT(*) FROM changed) AS changed`

	var iso *string
	if p.IsoCode != nil {
		v := entity.LanguageCode(*p.IsoCode)
		iso = &v
	}
	var res database.MutationResult
	if err := r.db.GetContext(ctx, &res, q, key, iso, p.Name, p.NativeName); err != nil {
		return database.MutationResult{}, fmt.Errorf("update language by %s: %w", column, err)
	}
	return res, nil
}

// DeleteByID removes a language by id.
func (r *LanguageRepo) DeleteByID(ctx context.Context, id int64) (database.MutationResult, error) {
	return r.deleteBy(ctx, "id", id)
}

// DeleteByISO removes a language by iso code.
func (r *LanguageRepo) DeleteByISO(ctx context.Context, iso string) (database.MutationResult, error) {
	return r.deleteBy(ctx, "iso_code", entity.LanguageCode(iso))
}

func (r *LanguageRepo) deleteBy(ctx context.Context, column string, key any) (database.MutationResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM languages WHERE `+column+` = $1`, key)
	if err != nil {
		return database.MutationResult{}, fmt.Errorf("delete language by %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.MutationResult{}, fmt.Errorf("delete language rows affected: %w", err)
	}
	return database.Deleted(n), nil
}
