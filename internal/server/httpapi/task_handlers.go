package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// callerID returns the id of the authenticated user. Routes using it sit
// behind requireAuth, so a miss means a wiring bug.
func callerID(r *http.Request) (string, error) {
	user, ok := userFrom(r.Context())
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return user.ID, nil
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tasks, err := h.tasks.List(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req createTaskRequest
	if _, err := readValidated(r, taskCreateSchema, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	nt, err := req.toModel()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), uid, nt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	patch, err := readTaskPatch(r)
	if err != nil {
		// A missing or foreign task outranks a malformed body.
		if _, gerr := h.tasks.Get(r.Context(), uid, id); gerr != nil {
			err = gerr
		}
		h.writeError(w, r, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), uid, id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	uid, err := callerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readTaskPatch(r *http.Request) (models.TaskPatch, error) {
	body, err := readValidated(r, taskUpdateSchema, nil)
	if err != nil {
		return models.TaskPatch{}, err
	}
	return decodeTaskPatch(body)
}
