package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-directory/internal/language/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

func newMockRepo(t *testing.T) (*LanguageRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewLanguageRepo(sqlx.NewDb(db, "postgres")), mock
}

var languageCols = []string{"id", "iso_code", "name", "native_name", "created_at", "updated_at"}

func TestLanguageRepo_Create(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO languages`).
		WithArgs("el", "Greek", "Ελληνικά").
		WillReturnRows(sqlmock.NewRows(languageCols).AddRow(3, "el", "Greek", "Ελληνικά", now, now))

	got, err := r.Create(context.Background(), entity.NewLanguage{IsoCode: "EL", Name: "Greek", NativeName: "Ελληνικά"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.ID)
	assert.Equal(t, "el", got.IsoCode)
}

func TestLanguageRepo_CreateDuplicate(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`INSERT INTO languages`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "languages_iso_code_key"})

	_, err := r.Create(context.Background(), entity.NewLanguage{IsoCode: "en", Name: "English"})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestLanguageRepo_List(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM languages ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(languageCols).
			AddRow(1, "en", "English", "English", now, now).
			AddRow(2, "fr", "French", "Français", now, now))

	res, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, "fr", res.Rows[1].IsoCode)
}

func TestLanguageRepo_GetByISO(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM languages WHERE iso_code = \$1`).
		WithArgs("de").
		WillReturnRows(sqlmock.NewRows(languageCols))

	res, err := r.GetByISO(context.Background(), "DE")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestLanguageRepo_GetByIDError(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`FROM languages WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(errors.New("connection reset"))

	_, err := r.GetByID(context.Background(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get language by id")
}

func TestLanguageRepo_UpdateByID(t *testing.T) {
	tests := []struct {
		name   string
		counts [2]int64
		want   database.MutationResult
	}{
		{"missing", [2]int64{0, 0}, database.MutationResult{}},
		{"unchanged", [2]int64{1, 0}, database.MutationResult{Affected: 1}},
		{"changed", [2]int64{1, 1}, database.MutationResult{Affected: 1, Changed: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := newMockRepo(t)
			name := "Modern Greek"
			mock.ExpectQuery(`WITH target AS \(\s*SELECT id FROM languages WHERE id = \$1`).
				WithArgs(int64(3), nil, "Modern Greek", nil).
				WillReturnRows(sqlmock.NewRows([]string{"affected", "changed"}).AddRow(tt.counts[0], tt.counts[1]))

			res, err := r.UpdateByID(context.Background(), 3, entity.LanguagePatch{Name: &name})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestLanguageRepo_UpdateByISONormalizesCodes(t *testing.T) {
	r, mock := newMockRepo(t)
	iso := "ELL"
	mock.ExpectQuery(`WHERE iso_code = \$1`).
		WithArgs("el", "ell", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"affected", "changed"}).AddRow(1, 1))

	res, err := r.UpdateByISO(context.Background(), "EL", entity.LanguagePatch{IsoCode: &iso})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Changed)
}

func TestLanguageRepo_Delete(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM languages WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM languages WHERE iso_code = \$1`).
		WithArgs("xx").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := r.DeleteByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, database.MutationResult{Affected: 1, Changed: 1}, res)

	res, err = r.DeleteByISO(context.Background(), "XX")
	require.NoError(t, err)
	assert.Equal(t, database.MutationResult{}, res)
}

func TestLanguageRepo_CountriesForLanguage(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`JOIN languages l ON l.id = cl.language_id\s+WHERE l.iso_code = \$1`).
		WithArgs("fr").
		WillReturnRows(sqlmock.NewRows([]string{"id", "iso_code", "name", "official"}).
			AddRow(1, "FR", "France", true).
			AddRow(2, "BE", "Belgium", true))

	res, err := r.CountriesForLanguage(context.Background(), 0, "FR")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "BE", res.Rows[1].IsoCode)
	assert.True(t, res.Rows[1].Official)
}

func TestLanguageRepo_LanguagesForCountry(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectQuery(`WHERE c.id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(append(languageCols, "official")).
			AddRow(1, "de", "German", "Deutsch", now, now, true).
			AddRow(2, "fr", "French", "Français", now, now, true))

	res, err := r.LanguagesForCountry(context.Background(), 5, "")
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Deutsch", res.Rows[0].NativeName)
}

func TestLanguageRepo_LanguagesForCountryByCode(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectQuery(`WHERE c.iso_code = \$1`).
		WithArgs("CH").
		WillReturnRows(sqlmock.NewRows(append(languageCols, "official")))

	res, err := r.LanguagesForCountry(context.Background(), 0, "ch")
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestLanguageRepo_CreateRequest(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO language_requests`).
		WithArgs("REQ1", "gsw", "Swiss German", nil, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_code", "iso_code", "name", "requested_by", "status", "notes", "created_at", "updated_at"}).
			AddRow(1, "REQ1", "gsw", "Swiss German", nil, "pending", "", now, now))

	got, err := r.CreateRequest(context.Background(), entity.NewLanguageRequest{Code: "REQ1", IsoCode: "GSW", Name: "Swiss German"})
	require.NoError(t, err)
	assert.Equal(t, "pending", got.Status)
	assert.Nil(t, got.RequestedBy)
}

func TestLanguageRepo_UpdateRequestByID(t *testing.T) {
	r, mock := newMockRepo(t)
	status := "approved"
	mock.ExpectQuery(`UPDATE language_requests`).
		WithArgs(int64(1), nil, nil, "approved", nil).
		WillReturnRows(sqlmock.NewRows([]string{"affected", "changed"}).AddRow(1, 1))

	res, err := r.UpdateRequestByID(context.Background(), 1, entity.LanguageRequestPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, database.MutationResult{Affected: 1, Changed: 1}, res)
}
