package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/services"
)

type SavedJobHandler struct {
	svc services.SavedJobService
}

func NewSavedJobHandler(svc services.SavedJobService) *SavedJobHandler {
	return &SavedJobHandler{svc: svc}
}

func (h *SavedJobHandler) List(c *gin.Context) {
	const op = "SavedJobHandler.List"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := queryUint(c, op, "user_id")
	if !ok {
		return
	}
	expand, ok := parseExpand(c, op, savedJobExpand)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, op)
	if !ok {
		return
	}
	rows, total, err := h.svc.List(c.Request.Context(), actorID, userID, page, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, rows, total)
}

type saveJobRequest struct {
	UserID *uint `json:"user_id"`
	JobID  uint  `json:"job_id"`
}

// Create answers 201 for a new bookmark and 200 when it already existed.
func (h *SavedJobHandler) Create(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req saveJobRequest
	if !bindJSON(c, "SavedJobHandler.Create", &req) {
		return
	}
	row, created, err := h.svc.Save(c.Request.Context(), actorID, req.UserID, req.JobID)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, row)
}

func (h *SavedJobHandler) Delete(c *gin.Context) {
	const op = "SavedJobHandler.Delete"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, op, "job_id")
	if !ok {
		return
	}
	userID, ok := queryUint(c, op, "user_id")
	if !ok {
		return
	}
	if err := h.svc.Unsave(c.Request.Context(), actorID, userID, jobID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
