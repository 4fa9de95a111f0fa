package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
)

type CompanyHandler struct {
	svc services.CompanyService
}

func NewCompanyHandler(svc services.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

func (h *CompanyHandler) List(c *gin.Context) {
	const op = "CompanyHandler.List"

	ownerID, ok := queryUint(c, op, "owner_id")
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, op)
	if !ok {
		return
	}
	rows, total, err := h.svc.List(c.Request.Context(), pgrepo.CompanyFilter{
		Name:     c.Query("name"),
		Industry: c.Query("industry"),
		Location: c.Query("location"),
		OwnerID:  ownerID,
	}, page)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, rows, total)
}

func (h *CompanyHandler) Create(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	var in services.CompanyInput
	if !bindJSON(c, "CompanyHandler.Create", &in) {
		return
	}
	co, err := h.svc.Create(c.Request.Context(), actorID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, co)
}

func (h *CompanyHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "CompanyHandler.Get", "id")
	if !ok {
		return
	}
	co, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) Update(c *gin.Context) {
	const op = "CompanyHandler.Update"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	var in services.CompanyUpdate
	if !bindStrict(c, op, &in) {
		return
	}
	co, err := h.svc.Update(c.Request.Context(), actorID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, co)
}

func (h *CompanyHandler) Delete(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "CompanyHandler.Delete", "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actorID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addRecruiterRequest struct {
	UserID uint `json:"user_id"`
}

// AddRecruiter attaches an existing recruiter to the company; owner only.
func (h *CompanyHandler) AddRecruiter(c *gin.Context) {
	const op = "CompanyHandler.AddRecruiter"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	var req addRecruiterRequest
	if !bindStrict(c, op, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil))
		return
	}
	u, err := h.svc.AddRecruiter(c.Request.Context(), actorID, id, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *CompanyHandler) RemoveRecruiter(c *gin.Context) {
	const op = "CompanyHandler.RemoveRecruiter"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, op, "user_id")
	if !ok {
		return
	}
	if err := h.svc.RemoveRecruiter(c.Request.Context(), actorID, id, userID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
