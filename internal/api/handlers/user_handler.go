package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
)

type UserHandler struct {
	users        services.UserService
	auth         services.AuthService
	applications services.ApplicationService
}

func NewUserHandler(users services.UserService, auth services.AuthService, applications services.ApplicationService) *UserHandler {
	return &UserHandler{users: users, auth: auth, applications: applications}
}

func (h *UserHandler) List(c *gin.Context) {
	const op = "UserHandler.List"

	isRecruiter, ok := queryBool(c, op, "is_recruiter")
	if !ok {
		return
	}
	companyID, ok := queryUint(c, op, "company_id")
	if !ok {
		return
	}
	page, ok := pageFromQuery(c, op)
	if !ok {
		return
	}

	rows, total, err := h.users.List(c.Request.Context(), pgrepo.UserFilter{
		Username:    c.Query("username"),
		Email:       c.Query("email"),
		IsRecruiter: isRecruiter,
		CompanyID:   companyID,
	}, page)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, rows, total)
}

// Create registers a user without logging them in.
func (h *UserHandler) Create(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, "UserHandler.Create", &in) {
		return
	}
	u, err := h.auth.CreateUser(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Get(c *gin.Context) {
	const op = "UserHandler.Get"

	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	expand, ok := parseExpand(c, op, userExpand)
	if !ok {
		return
	}
	u, err := h.users.Get(c.Request.Context(), id, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Update(c *gin.Context) {
	const op = "UserHandler.Update"

	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, op, "id")
	if !ok {
		return
	}
	var in services.UserUpdate
	if !bindStrict(c, op, &in) {
		return
	}
	u, err := h.users.Update(c.Request.Context(), actorID, id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "UserHandler.Delete", "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), actorID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Applications lists the applications submitted by the user in the path.
func (h *UserHandler) Applications(c *gin.Context) {
	const op = "UserHandler.Applications"

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
	page, ok := pageFromQuery(c, op)
	if !ok {
		return
	}
	rows, total, err := h.applications.List(c.Request.Context(), actorID, services.ApplicationQuery{
		UserID: &id,
		Status: c.Query("status"),
	}, page, expand...)
	if err != nil {
		writeError(c, err)
		return
	}
	writeList(c, rows, total)
}
