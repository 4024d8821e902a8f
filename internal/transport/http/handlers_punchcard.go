package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stamply/internal/punchcard"
	"stamply/pkg/platform/sentinel"
)

type punchcardResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
	Created   string `json:"created"`
}

func toPunchcardResponse(card punchcard.Punchcard) punchcardResponse {
	return punchcardResponse{
		ID:        card.ID.String(),
		CompanyID: card.CompanyID.String(),
		UserID:    card.UserID.String(),
		Created:   card.CreatedAt.Format(time.RFC3339),
	}
}

// HandleIssuePunchcard runs the window gate for the authenticated user
// against the company in the path.
func (h *Handler) HandleIssuePunchcard(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, sentinel.ErrUnauthorized)
		return
	}

	companyID, err := uuid.Parse(chi.URLParam(r, "company_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company id"})
		return
	}
	issuer, err := h.companies.Get(r.Context(), companyID)
	if err != nil {
		writeError(w, err)
		return
	}

	card, err := h.punchcards.TryIssue(r.Context(), issuer, ident.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": card.ID.String()})
}

func (h *Handler) HandleGetPunchcard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid punchcard id"})
		return
	}
	card, err := h.punchcards.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPunchcardResponse(card))
}

func (h *Handler) HandleListPunchcards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.punchcards.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]punchcardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toPunchcardResponse(card))
	}
	writeJSON(w, http.StatusOK, out)
}
