package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stamply/internal/identity"
	identityservice "stamply/internal/identity/service"
	"stamply/pkg/platform/sentinel"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

// userResponse is the public projection: no password hash, no credential.
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Created  string `json:"created"`
}

func toUserResponse(ident identity.Identity) userResponse {
	return userResponse{
		ID:       ident.ID.String(),
		Username: ident.Username,
		Email:    ident.Email,
		Age:      ident.Age,
		Gender:   ident.Gender,
		Created:  ident.CreatedAt.Format(time.RFC3339),
	}
}

// HandleRegister creates a provisional identity. The response reports success
// for the primary write only; credential activation happens asynchronously
// and the caller cannot observe it here.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ident, err := h.identities.Register(r.Context(), identityservice.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
		Gender:   req.Gender,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": ident.ID.String()})
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	idents, err := h.identities.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]userResponse, 0, len(idents))
	for _, ident := range idents {
		out = append(out, toUserResponse(ident))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	ident, err := h.identities.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(ident))
}

// HandleMe returns the authenticated identity's own record.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, sentinel.ErrUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(ident))
}

type updateMeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
}

// HandleUpdateMe lets the authenticated identity change its mutable fields.
// Username and credential are not updatable here.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, sentinel.ErrUnauthorized)
		return
	}
	var req updateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.identities.UpdateProfile(r.Context(), ident.ID, identityservice.UpdateParams{
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
		Gender:   req.Gender,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleToken exchanges a username/password pair for the active credential.
// Identities still awaiting activation get a 403 rather than a credential
// that the access gate would reject anyway.
func (h *Handler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	credential, err := h.identities.Credential(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": credential})
}

// HandleReissue republishes the identity-created event for an identity whose
// activation never happened, typically because the original publish was lost.
func (h *Handler) HandleReissue(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.identities.Reissue(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "event republished"})
}
