package handler

import (
	"net/http"

	"pcshop/internal/httpx"
	"pcshop/internal/middleware"
	"pcshop/internal/user"
	"pcshop/internal/utils"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in user.RegisterInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := h.Users.Register(r.Context(), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Created(w, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	res, err := h.Users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, res)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	var in verifyRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.Users.Verify(r.Context(), in.Email, in.Code); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "account verified")
}

func (h *Handler) resendCode(w http.ResponseWriter, r *http.Request) {
	var in emailRequest
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.Users.ResendCode(r.Context(), in.Email); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "verification code sent")
}

func currentUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.Error(w, r, middleware.ErrMissingToken)
	}
	return id, ok
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	u, err := h.Users.Me(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, u)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in user.UpdateProfileParams
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := h.Users.UpdateMe(r.Context(), id, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, u)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	opts := user.ListOptions{
		Search:   httpx.QueryString(r, "search"),
		IsActive: httpx.QueryBool(r, "isActive"),
		Page:     httpx.QueryInt(r, "page", 1),
		Limit:    httpx.QueryInt(r, "limit", 20),
	}
	if v := httpx.QueryString(r, "role"); v != nil {
		role := user.Role(*v)
		opts.Role = &role
	}

	users, total, err := h.Users.List(r.Context(), opts)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, pageOf(r, users, total))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseUintID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := h.Users.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, u)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseUintID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	var in user.AdminUpdateParams
	if err := httpx.Decode(r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	u, err := h.Users.AdminUpdate(r.Context(), id, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.OK(w, u)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.ParseUintID(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	if err := h.Users.Delete(r.Context(), id); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "user deleted")
}
