package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
)

type ApplicationHandler struct {
	applications services.ApplicationService
	resumes      services.ResumeService
}

func NewApplicationHandler(applications services.ApplicationService, resumes services.ResumeService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, resumes: resumes}
}

func (h *ApplicationHandler) List(c *gin.Context) {
	const op = "ApplicationHandler.List"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	userID, ok := queryUint(c, op, "user_id")
	if !ok {
		return
	}
	jobID, ok := queryUint(c, op, "job_id")
	if !ok {
		return
	}
	expand, ok := parseExpand(c, op, applicationExpand)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, op)
	if !ok {
		return
	}

	rows, total, err := h.applications.List(c.Request.Context(), actorID, services.ApplicationQuery{
		UserID: userID,
		JobID:  jobID,
		Status: c.Query("status"),
	}, page, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, rows, total)
}

func (h *ApplicationHandler) Create(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	var in services.ApplyInput
	if !bindJSON(c, "ApplicationHandler.Create", &in) {
		return
	}
	app, err := h.applications.Apply(c.Request.Context(), actorID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	const op = "ApplicationHandler.Get"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	expand, ok := parseExpand(c, op, applicationExpand)
	if !ok {
		return
	}
	app, err := h.applications.Get(c.Request.Context(), actorID, id, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	const op = "ApplicationHandler.UpdateStatus"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindStrict(c, op, &req) {
		return
	}
	app, err := h.applications.UpdateStatus(c.Request.Context(), actorID, id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Events(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "ApplicationHandler.Events", "id")
	if !ok {
		return
	}
	rows, err := h.applications.Events(c.Request.Context(), actorID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// UploadResume accepts multipart field "file" and returns the stored URL to
// pass as resume_url when applying.
func (h *ApplicationHandler) UploadResume(c *gin.Context) {
	const op = "ApplicationHandler.UploadResume"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxResumeBytes+(1<<20))
	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "multipart field file is required", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "cannot read upload", err))
		return
	}
	defer f.Close()

	res, err := h.resumes.Upload(c.Request.Context(), actorID, fh.Filename, fh.Size, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
