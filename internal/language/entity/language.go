package entity

import (
	"strings"
	"time"
)

// Language is a row of the languages table. IsoCode is unique.
type Language struct {
	ID         int64     `db:"id" json:"id"`
	IsoCode    string    `db:"iso_code" json:"isoCode"`
	Name       string    `db:"name" json:"name"`
	NativeName string    `db:"native_name" json:"nativeName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// NewLanguage is the create payload.
type NewLanguage struct {
	IsoCode    string `json:"isoCode" validate:"required,alpha,min=2,max=8"`
	Name       string `json:"name" validate:"required"`
	NativeName string `json:"nativeName"`
}

// LanguagePatch is a partial update; nil fields keep their stored value.
type LanguagePatch struct {
	IsoCode    *string `json:"isoCode" validate:"omitempty,alpha,min=2,max=8"`
	Name       *string `json:"name" validate:"omitempty,min=1"`
	NativeName *string `json:"nativeName"`
}

// LanguageRequest is a pending change request referencing a language by code.
type LanguageRequest struct {
	ID          int64     `db:"id" json:"id"`
	Code        string    `db:"request_code" json:"langReqId"`
	IsoCode     string    `db:"iso_code" json:"isoCode"`
	Name        string    `db:"name" json:"name"`
	RequestedBy *int64    `db:"requested_by" json:"requestedBy,omitempty"`
	Status      string    `db:"status" json:"status"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// NewLanguageRequest is the create payload. A blank Code is generated.
type NewLanguageRequest struct {
	Code        string `json:"langReqId" validate:"max=32"`
	IsoCode     string `json:"isoCode" validate:"required,alpha,min=2,max=8"`
	Name        string `json:"name"`
	RequestedBy *int64 `json:"requestedBy"`
	Notes       string `json:"notes"`
}

// LanguageRequestPatch is a partial update of a request.
type LanguageRequestPatch struct {
	IsoCode *string `json:"isoCode" validate:"omitempty,alpha,min=2,max=8"`
	Name    *string `json:"name"`
	Status  *string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Notes   *string `json:"notes"`
}

// Country is a row of the countries table. Official is filled only when the
// row comes from the country/language association.
type Country struct {
	ID       int64  `db:"id" json:"id"`
	IsoCode  string `db:"iso_code" json:"isoCode"`
	Name     string `db:"name" json:"name"`
	Official bool   `db:"official" json:"official"`
}

// SpokenLanguage is a language as listed for one country.
type SpokenLanguage struct {
	Language
	Official bool `db:"official" json:"official"`
}

// LanguageCode normalizes a language iso code (stored lower case).
func LanguageCode(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// CountryCode normalizes a country iso code (stored upper case).
func CountryCode(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
