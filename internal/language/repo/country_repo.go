package repo

import (
	"context"
	"fmt"

	"github.com/ovaphlow/pitchfork/service-directory/internal/language/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

// CountriesForLanguage lists the countries where a language is spoken. The
// language is addressed by id (when id > 0) or by iso code.
func (r *LanguageRepo) CountriesForLanguage(ctx context.Context, id int64, iso string) (database.ReadResult[entity.Country], error) {
	q := `SELECT c.id, c.iso_code, c.name, cl.official
		  FROM countries c
		  JOIN country_languages cl ON cl.country_id = c.id
		  JOIN languages l ON l.id = cl.language_id
		  WHERE `
	var arg any
	if id > 0 {
		q += `l.id = $1`
		arg = id
	} else {
		q += `l.iso_code = $1`
		arg = entity.LanguageCode(iso)
	}
	var out []entity.Country
	if err := r.db.SelectContext(ctx, &out, q, arg); err != nil {
		return database.ReadResult[entity.Country]{}, fmt.Errorf("countries for language: %w", err)
	}
	return database.Rows(out), nil
}

// LanguagesForCountry lists the languages spoken in a country, addressed by
// id (when id > 0) or by country iso code.
func (r *LanguageRepo) LanguagesForCountry(ctx context.Context, id int64, iso string) (database.ReadResult[entity.SpokenLanguage], error) {
	q := `SELECT l.id, l.iso_code, l.name, l.native_name, l.created_at, l.updated_at, cl.official
		  FROM languages l
		  JOIN country_languages cl ON cl.language_id = l.id
		  JOIN countries c ON c.id = cl.country_id
		  WHERE `
	var arg any
	if id > 0 {
		q += `c.id = $1`
		arg = id
	} else {
		q += `c.iso_code = $1`
		arg = entity.CountryCode(iso)
	}
	var out []entity.SpokenLanguage
	if err := r.db.SelectContext(ctx, &out, q, arg); err != nil {
		return database.ReadResult[entity.SpokenLanguage]{}, fmt.Errorf("languages for country: %w", err)
	}
	return database.Rows(out), nil
}
