package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/utils"
)

type AuthHandler struct {
	svc              services.AuthService
	exposeResetToken bool
}

// NewAuthHandler: exposeResetToken returns the reset token in the
// forgot-password response, for development setups without mail delivery.
func NewAuthHandler(svc services.AuthService, exposeResetToken bool) *AuthHandler {
	return &AuthHandler{svc: svc, exposeResetToken: exposeResetToken}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bindJSON(c, "AuthHandler.Register", &in) {
		return
	}
	res, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type loginRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, "AuthHandler.Login", &req) {
		return
	}
	id := req.Identifier
	if req.Email != "" {
		id = req.Email
	} else if req.Username != "" {
		id = req.Username
	}

	res, err := h.svc.Login(c.Request.Context(), id, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, "AuthHandler.Refresh", &req) {
		return
	}
	if req.RefreshToken == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "AuthHandler.Refresh", "refresh_token is required", nil))
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout revokes the presented access token and, if given, the refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	v, _ := c.Get("claims")
	claims, _ := v.(*auth.Claims)

	var req refreshRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, "AuthHandler.Logout", &req) {
		return
	}
	if err := h.svc.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	u, err := h.svc.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, "AuthHandler.ForgotPassword", &req) {
		return
	}
	token, err := h.svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"message": "if the email is registered, a reset link has been sent"}
	if h.exposeResetToken && token != "" {
		body["reset_token"] = token
	}
	c.JSON(http.StatusOK, body)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, "AuthHandler.ResetPassword", &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
