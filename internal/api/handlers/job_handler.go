package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
)

type JobHandler struct {
	jobs         services.JobService
	applications services.ApplicationService
}

func NewJobHandler(jobs services.JobService, applications services.ApplicationService) *JobHandler {
	return &JobHandler{jobs: jobs, applications: applications}
}

func (h *JobHandler) List(c *gin.Context) {
	const op = "JobHandler.List"

	companyID, ok := queryUint(c, op, "company_id")
	if !ok {
		return
	}
	recruiterID, ok := queryUint(c, op, "recruiter_id")
	if !ok {
		return
	}
	isActive, ok := queryBool(c, op, "is_active")
	if !ok {
		return
	}
	expand, ok := parseExpand(c, op, jobExpand)
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, op)
	if !ok {
		return
	}

	rows, total, err := h.jobs.List(c.Request.Context(), pgrepo.JobFilter{
		Title:       c.Query("title"),
		Location:    c.Query("location"),
		JobType:     c.Query("job_type"),
		CompanyID:   companyID,
		RecruiterID: recruiterID,
		IsActive:    isActive,
	}, page, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, rows, total)
}

func (h *JobHandler) Create(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	var in services.JobInput
	if !bindJSON(c, "JobHandler.Create", &in) {
		return
	}
	j, err := h.jobs.Create(c.Request.Context(), actorID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, j)
}

func (h *JobHandler) Get(c *gin.Context) {
	const op = "JobHandler.Get"

	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	expand, ok := parseExpand(c, op, jobExpand)
	if !ok {
		return
	}
	j, err := h.jobs.Get(c.Request.Context(), id, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Update(c *gin.Context) {
	const op = "JobHandler.Update"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	var in services.JobUpdate
	if !bindStrict(c, op, &in) {
		return
	}
	j, err := h.jobs.Update(c.Request.Context(), actorID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, j)
}

func (h *JobHandler) Delete(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "JobHandler.Delete", "id")
	if !ok {
		return
	}
	if err := h.jobs.Delete(c.Request.Context(), actorID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type applyRequest struct {
	ResumeURL   string `json:"resume_url"`
	CoverLetter string `json:"cover_letter_text"`
}

// Apply submits an application for the job in the path as the caller.
func (h *JobHandler) Apply(c *gin.Context) {
	const op = "JobHandler.Apply"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	var req applyRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, op, &req) {
		return
	}
	app, err := h.applications.Apply(c.Request.Context(), actorID, services.ApplyInput{
		JobID:       id,
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}
