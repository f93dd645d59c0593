package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-directory/internal/reply"
	"github.com/ovaphlow/pitchfork/service-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

// Service is the behaviour the handlers need; *UserService implements it.
type Service interface {
	Create(ctx context.Context, in entity.NewUser) (*entity.User, error)
	List(ctx context.Context) (database.ReadResult[entity.User], error)
	Get(ctx context.Context, id int64, email string) (database.ReadResult[entity.User], error)
	Update(ctx context.Context, id int64, p entity.UserPatch) (*entity.User, database.MutationResult, error)
	Delete(ctx context.Context, id int64) (database.MutationResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, userID int64) error
	ClearHistory(ctx context.Context, userID int64) (int64, error)
}

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(success bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordLogin(bool) {}

// Handler exposes HTTP endpoints for user operations.
type Handler struct {
	svc    Service
	logins LoginRecorder
	logger *zap.SugaredLogger
}

// NewHandler builds a Handler; logins may be nil.
func NewHandler(svc Service, logins LoginRecorder, logger *zap.SugaredLogger) *Handler {
	if logins == nil {
		logins = noopRecorder{}
	}
	return &Handler{svc: svc, logins: logins, logger: logger}
}

const (
	entityUser       = "user"
	msgInvalidLogin  = "Invalid email or password"
	msgLogoutOK      = "logout successful!"
	msgHistoryClear  = "deleted"
	msgInvalidUserID = "Invalid user id"
)

// Create handles POST /api/users/.
func (h *Handler) Create(r *http.Request) reply.Reply {
	var in entity.NewUser
	if err := reply.Bind(r, &in); err != nil {
		h.logger.Debugw("invalid signup payload", "err", err)
		return reply.Invalid(err)
	}
	u, err := h.svc.Create(r.Context(), in)
	switch {
	case errors.Is(err, ErrEmailTaken):
		h.logger.Warnw("email already in database", "email", in.Email, "err", err)
	case err != nil:
		h.logger.Errorw("create user failed", "email", in.Email, "err", err)
	default:
		h.logger.Infow("new user created", "user_id", u.UserID, "email", u.Email)
	}
	return createReply(in, u, err)
}

func createReply(in entity.NewUser, u *entity.User, err error) reply.Reply {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return reply.BadRequest("User with this email is already registered: " + in.Email)
	case err != nil:
		return reply.Internal()
	}
	return reply.OK(u)
}

// Update handles PATCH /api/users/{id}.
func (h *Handler) Update(r *http.Request) reply.Reply {
	id, ok := reply.ParseID(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest(msgInvalidUserID)
	}
	var p entity.UserPatch
	if err := reply.Bind(r, &p); err != nil {
		h.logger.Debugw("invalid user patch", "user_id", id, "err", err)
		return reply.Invalid(err)
	}
	u, res, err := h.svc.Update(r.Context(), id, p)
	switch {
	case errors.Is(err, ErrUserNotFound):
		h.logger.Warnw("could not find user", "user_id", id)
	case err != nil:
		h.logger.Errorw("update user failed", "user_id", id, "err", err)
	case res.Affected == 0:
		h.logger.Warnw("user vanished before update", "user_id", id)
	case res.Changed == 0:
		h.logger.Infow("no content has been changed", "user_id", id)
	default:
		h.logger.Infow("user updated", "user_id", id)
	}
	return updateReply(p, u, res, err)
}

func updateReply(p entity.UserPatch, u *entity.User, res database.MutationResult, err error) reply.Reply {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return reply.NotFound(entityUser)
	case errors.Is(err, ErrEmailTaken):
		email := ""
		if p.Email != nil {
			email = *p.Email
		}
		return reply.BadRequest("User with this email is already registered: " + email)
	case err != nil:
		return reply.Internal()
	}
	return reply.FromMutation(res, entityUser, u)
}

// List handles GET /api/users/.
func (h *Handler) List(r *http.Request) reply.Reply {
	res, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Errorw("list users failed", "err", err)
		return reply.Internal()
	}
	h.logger.Infow("users found", "count", len(res.Rows))
	if res.Rows == nil {
		return reply.OK([]entity.User{})
	}
	return reply.OK(res.Rows)
}

// Get handles GET /api/users/{id}; a numeric segment is an id, anything else an email.
func (h *Handler) Get(r *http.Request) reply.Reply {
	seg, err := reply.PathParam(r, "id")
	if err != nil {
		h.logger.Debugw("malformed user key", "raw", chi.URLParam(r, "id"), "err", err)
		return reply.BadRequest(msgInvalidUserID)
	}
	key, ok := reply.ParseKey(seg)
	if !ok {
		return reply.BadRequest(msgInvalidUserID)
	}
	res, err := h.svc.Get(r.Context(), key.ID, key.Code)
	if err != nil {
		h.logger.Errorw("get user failed", "key", key.String(), "err", err)
		return reply.Internal()
	}
	if res.Empty() {
		h.logger.Warnw("could not find user", "key", key.String())
	} else {
		h.logger.Infow("user found", "key", key.String())
	}
	return reply.FromReadOne(res, entityUser)
}

// Delete handles DELETE /api/users/{id}.
func (h *Handler) Delete(r *http.Request) reply.Reply {
	id, ok := reply.ParseID(chi.URLParam(r, "id"))
	if !ok {
		return reply.BadRequest(msgInvalidUserID)
	}
	res, err := h.svc.Delete(r.Context(), id)
	switch {
	case err != nil:
		h.logger.Errorw("delete user failed", "user_id", id, "err", err)
		return reply.Internal()
	case res.Affected == 0:
		h.logger.Warnw("could not find user", "user_id", id)
	default:
		h.logger.Infow("user deleted", "user_id", id)
	}
	return reply.FromMutation(res, entityUser, res)
}

// Login handles POST /api/users/login/.
func (h *Handler) Login(r *http.Request) reply.Reply {
	var in entity.LoginRequest
	if err := reply.Bind(r, &in); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		return reply.Invalid(err)
	}
	out, err := h.svc.Login(r.Context(), in.Email, in.Password)
	h.logins.RecordLogin(err == nil)
	switch {
	case errors.Is(err, ErrBadCredentials):
		h.logger.Warnw("login failed", "email", in.Email)
	case err != nil:
		h.logger.Errorw("login failed", "email", in.Email, "err", err)
	default:
		h.logger.Infow("login successful", "user_id", out.UserID)
	}
	return loginReply(out, err)
}

func loginReply(out *LoginResult, err error) reply.Reply {
	switch {
	case errors.Is(err, ErrBadCredentials):
		return reply.Text(http.StatusNotFound, msgInvalidLogin)
	case err != nil:
		return reply.Internal()
	}
	return reply.OK(out)
}

// Logout handles POST /api/users/logout/{user_id}.
func (h *Handler) Logout(r *http.Request) reply.Reply {
	id, ok := reply.ParseID(chi.URLParam(r, "user_id"))
	if !ok {
		return reply.BadRequest(msgInvalidUserID)
	}
	if err := h.svc.Logout(r.Context(), id); err != nil {
		h.logger.Errorw("logout failed", "user_id", id, "err", err)
		return reply.Internal()
	}
	h.logger.Infow("logout successful", "user_id", id)
	return reply.OK(msgLogoutOK)
}

// ClearHistory handles DELETE /api/users/testing/{user_id}.
func (h *Handler) ClearHistory(r *http.Request) reply.Reply {
	id, ok := reply.ParseID(chi.URLParam(r, "user_id"))
	if !ok {
		return reply.BadRequest(msgInvalidUserID)
	}
	n, err := h.svc.ClearHistory(r.Context(), id)
	if err != nil {
		h.logger.Errorw("clear login history failed", "user_id", id, "err", err)
		return reply.Internal()
	}
	h.logger.Infow("login history cleared", "user_id", id, "rows", n)
	return reply.OK(msgHistoryClear)
}
