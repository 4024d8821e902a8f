package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	companyservice "stamply/internal/company/service"
	"stamply/internal/company/search"
)

type companyRequest struct {
	Title                 string `json:"title"`
	URL                   string `json:"url"`
	Description           string `json:"description"`
	PunchcardLifetimeDays *int   `json:"punchcard_lifetime"`
}

type companyResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description"`
}

func fromDocument(doc search.Document) companyResponse {
	return companyResponse{ID: doc.ID, Title: doc.Title, URL: doc.URL, Description: doc.Description}
}

func (h *Handler) HandleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lifetime := 0
	if req.PunchcardLifetimeDays != nil {
		lifetime = *req.PunchcardLifetimeDays
	}
	c, err := h.companies.Create(r.Context(), companyservice.CreateParams{
		Title:                 req.Title,
		URL:                   req.URL,
		Description:           req.Description,
		PunchcardLifetimeDays: lifetime,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": c.ID.String()})
}

func (h *Handler) HandleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	var req companyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.companies.Update(r.Context(), id, companyservice.UpdateParams{
		Title:                 req.Title,
		URL:                   req.URL,
		Description:           req.Description,
		PunchcardLifetimeDays: req.PunchcardLifetimeDays,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": c.ID.String()})
}

func (h *Handler) HandleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	if err := h.companies.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleGetCompany reads the primary row; the public projection hides the
// punch-card lifetime, which is issuer configuration rather than directory
// data.
func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := companyID(w, r)
	if !ok {
		return
	}
	c, err := h.companies.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, companyResponse{
		ID:          c.ID.String(),
		Title:       c.Title,
		URL:         c.URL,
		Description: c.Description,
	})
}

// HandleListCompanies pages the directory out of the search index, so the
// listing reflects whatever propagation has reached it.
func (h *Handler) HandleListCompanies(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("max"))
	docs, err := h.companies.List(r.Context(), page, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponses(docs))
}

type searchCompaniesRequest struct {
	Search string `json:"search"`
}

func (h *Handler) HandleSearchCompanies(w http.ResponseWriter, r *http.Request) {
	var req searchCompaniesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	docs, err := h.companies.Search(r.Context(), req.Search)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyResponses(docs))
}

func toCompanyResponses(docs []search.Document) []companyResponse {
	out := make([]companyResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out
}

func companyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid company id"})
		return uuid.Nil, false
	}
	return id, true
}
