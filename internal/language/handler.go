package language

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-directory/internal/language/entity"
	"github.com/ovaphlow/pitchfork/service-directory/internal/reply"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/utilities"
)

// Store is the persistence the language handlers need. *repo.LanguageRepo implements it.
type Store interface {
	Create(ctx context.Context, in entity.NewLanguage) (*entity.Language, error)
	List(ctx context.Context) (database.ReadResult[entity.Language], error)
	GetByID(ctx context.Context, id int64) (database.ReadResult[entity.Language], error)
	GetByISO(ctx context.Context, iso string) (database.ReadResult[entity.Language], error)
	UpdateByID(ctx context.Context, id int64, p entity.LanguagePatch) (database.MutationResult, error)
	UpdateByISO(ctx context.Context, iso string, p entity.LanguagePatch) (database.MutationResult, error)
	DeleteByID(ctx context.Context, id int64) (database.MutationResult, error)
	DeleteByISO(ctx context.Context, iso string) (database.MutationResult, error)
	CountriesForLanguage(ctx context.Context, id int64, iso string) (database.ReadResult[entity.Country], error)
	LanguagesForCountry(ctx context.Context, id int64, iso string) (database.ReadResult[entity.SpokenLanguage], error)
	CreateRequest(ctx context.Context, in entity.NewLanguageRequest) (*entity.LanguageRequest, error)
	UpdateRequestByID(ctx context.Context, id int64, p entity.LanguageRequestPatch) (database.MutationResult, error)
}

// Handler exposes HTTP endpoints for languages, language requests and
// country/language lookups.
type Handler struct {
	store  Store
	logger *zap.SugaredLogger
	// newCode generates request codes when the client sends none.
	newCode func() string
}

func NewHandler(store Store, logger *zap.SugaredLogger) *Handler {
	return &Handler{store: store, logger: logger, newCode: utilities.NewSnowflakeID}
}

const (
	entityLanguage  = "language"
	entityRequest   = "request"
	entityCountries = "countries"
	entityLanguages = "languages"
)

// Create handles POST /api/languages/.
func (h *Handler) Create(r *http.Request) reply.Reply {
	var in entity.NewLanguage
	if err := reply.Bind(r, &in); err != nil {
		h.logger.Debugw("invalid language payload", "err", err)
		return reply.Invalid(err)
	}
	lang, err := h.store.Create(r.Context(), in)
	if err != nil {
		h.logger.Errorw("create language failed", "iso_code", in.IsoCode, "constraint", database.Constraint(err), "err", err)
	} else {
		h.logger.Infow("new language created", "id", lang.ID, "iso_code", lang.IsoCode)
	}
	return createReply(in, lang, err)
}

func createReply(in entity.NewLanguage, lang *entity.Language, err error) reply.Reply {
	if err != nil {
		return reply.FromError(err, fmt.Sprintf("Language with isoCode %s already exists", in.IsoCode))
	}
	return reply.OK(lang)
}

// CreateRequest handles POST /api/languages/requests/.
func (h *Handler) CreateRequest(r *http.Request) reply.Reply {
	var in entity.NewLanguageRequest
	if err := reply.Bind(r, &in); err != nil {
		h.logger.Debugw("invalid language request payload", "err", err)
		return reply.Invalid(err)
	}
	if in.Code == "" {
		in.Code = h.newCode()
	}
	req, err := h.store.CreateRequest(r.Context(), in)
	if err != nil {
		h.logger.Errorw("create language request failed", "lang_req_id", in.Code, "constraint", database.Constraint(err), "err", err)
	} else {
		h.logger.Infow("new language request created", "id", req.ID, "lang_req_id", req.Code)
	}
	return createRequestReply(in, req, err)
}

func createRequestReply(in entity.NewLanguageRequest, req *entity.LanguageRequest, err error) reply.Reply {
	if database.IsForeignKeyViolation(err) && in.RequestedBy != nil {
		return reply.BadRequest(fmt.Sprintf("Requesting user %d does not exist", *in.RequestedBy))
	}
	if err != nil {
		return reply.FromError(err, fmt.Sprintf("Language request with code %s already exists", in.Code))
	}
	return reply.OK(req)
}

// Update handles PATCH /api/languages/{id}; a numeric segment updates by id,
// an alphabetic one by iso code.
func (h *Handler) Update(r *http.Request) reply.Reply {
	key, ok := languageKey(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest("Invalid language id")
	}
	var p entity.LanguagePatch
	if err := reply.Bind(r, &p); err != nil {
		h.logger.Debugw("invalid language patch", "key", key.String(), "err", err)
		return reply.Invalid(err)
	}
	var (
		res database.MutationResult
		err error
	)
	if key.IsID() {
		res, err = h.store.UpdateByID(r.Context(), key.ID, p)
	} else {
		res, err = h.store.UpdateByISO(r.Context(), key.Code, p)
	}
	h.logMutation("language updated", key, res, err)
	return updateReply(p, res, err)
}

func updateReply(p entity.LanguagePatch, res database.MutationResult, err error) reply.Reply {
	if err != nil {
		dup := ""
		if p.IsoCode != nil {
			dup = fmt.Sprintf("Language with isoCode %s already exists", *p.IsoCode)
		}
		return reply.FromError(err, dup)
	}
	return reply.FromMutation(res, entityLanguage, res)
}

// UpdateRequest handles PATCH /api/languages/requests/{id}.
func (h *Handler) UpdateRequest(r *http.Request) reply.Reply {
	id, ok := reply.ParseID(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest("Invalid request id")
	}
	var p entity.LanguageRequestPatch
	if err := reply.Bind(r, &p); err != nil {
		h.logger.Debugw("invalid language request patch", "id", id, "err", err)
		return reply.Invalid(err)
	}
	res, err := h.store.UpdateRequestByID(r.Context(), id, p)
	h.logMutation("language request updated", reply.Key{ID: id}, res, err)
	if err != nil {
		return reply.FromError(err, "")
	}
	return reply.FromMutation(res, entityRequest, res)
}

// List handles GET /api/languages/. An empty table is an empty list.
func (h *Handler) List(r *http.Request) reply.Reply {
	res, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Errorw("list languages failed", "err", err)
		return reply.Internal()
	}
	h.logger.Infow("languages found", "count", len(res.Rows))
	if res.Rows == nil {
		return reply.OK([]entity.Language{})
	}
	return reply.OK(res.Rows)
}

// Get handles GET /api/languages/{id} by id or iso code.
func (h *Handler) Get(r *http.Request) reply.Reply {
	key, ok := languageKey(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest("Invalid language id")
	}
	var (
		res database.ReadResult[entity.Language]
		err error
	)
	if key.IsID() {
		res, err = h.store.GetByID(r.Context(), key.ID)
	} else {
		res, err = h.store.GetByISO(r.Context(), key.Code)
	}
	if err != nil {
		h.logger.Errorw("get language failed", "key", key.String(), "err", err)
		return reply.Internal()
	}
	if res.Empty() {
		h.logger.Warnw("could not find language", "key", key.String())
	} else {
		h.logger.Infow("language found", "key", key.String())
	}
	return reply.FromReadOne(res, entityLanguage)
}

// CountriesForLanguage handles GET /api/languages/{id}/countries.
func (h *Handler) CountriesForLanguage(r *http.Request) reply.Reply {
	key, ok := languageKey(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest("Invalid language id")
	}
	res, err := h.store.CountriesForLanguage(r.Context(), key.ID, key.Code)
	if err != nil {
		h.logger.Errorw("countries for language failed", "language", key.String(), "err", err)
		return reply.Internal()
	}
	h.logger.Infow("countries found for language", "language", key.String(), "count", len(res.Rows))
	return reply.FromRead(res, entityCountries)
}

// LanguagesForCountry handles GET /api/countries/{country}/languages.
func (h *Handler) LanguagesForCountry(r *http.Request) reply.Reply {
	key, ok := languageKey(chi.URLParam(r, "country"))
	if !ok {
		return reply.BadRequest("Invalid country id")
	}
	res, err := h.store.LanguagesForCountry(r.Context(), key.ID, key.Code)
	if err != nil {
		h.logger.Errorw("languages for country failed", "country", key.String(), "err", err)
		return reply.Internal()
	}
	h.logger.Infow("languages found for country", "country", key.String(), "count", len(res.Rows))
	return reply.FromRead(res, entityLanguages)
}

// Delete handles DELETE /api/languages/{id} by id or iso code.
func (h *Handler) Delete(r *http.Request) reply.Reply {
	key, ok := languageKey(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest("Invalid language id")
	}
	var (
		res database.MutationResult
		err error
	)
	if key.IsID() {
		res, err = h.store.DeleteByID(r.Context(), key.ID)
	} else {
		res, err = h.store.DeleteByISO(r.Context(), key.Code)
	}
	h.logMutation("language deleted", key, res, err)
	if err != nil {
		return reply.FromError(err, "")
	}
	return reply.FromMutation(res, entityLanguage, res)
}

func (h *Handler) logMutation(msg string, key reply.Key, res database.MutationResult, err error) {
	switch {
	case err != nil:
		h.logger.Errorw(msg+" failed", "key", key.String(), "err", err)
	case res.Affected == 0:
		h.logger.Warnw("could not find record", "key", key.String())
	case res.Changed == 0:
		h.logger.Infow("no content has been changed", "key", key.String())
	default:
		h.logger.Infow(msg, "key", key.String())
	}
}

// languageKey accepts a numeric id or an alphabetic code.
func languageKey(seg string) (reply.Key, bool) {
	key, ok := reply.ParseKey(seg)
	if !ok {
		return reply.Key{}, false
	}
	if !key.IsID() && !reply.IsAlpha(key.Code) {
		return reply.Key{}, false
	}
	return key, true
}
