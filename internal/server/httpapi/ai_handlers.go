package httpapi

import "net/http"

type prioritizeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type summarizeRequest struct {
	Description string `json:"description"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

func (h *Handler) prioritize(w http.ResponseWriter, r *http.Request) {
	var req prioritizeRequest
	if _, err := readValidated(r, prioritizeSchema, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	suggestion, err := h.ai.Prioritize(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

func (h *Handler) summarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if _, err := readValidated(r, summarizeSchema, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	summary, err := h.ai.Summarize(r.Context(), req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}
