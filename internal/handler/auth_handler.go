package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroread/neuroread-api/internal/models"
	"github.com/neuroread/neuroread-api/internal/service"
	appErrors "github.com/neuroread/neuroread-api/pkg/errors"
	"github.com/neuroread/neuroread-api/pkg/response"
)

// AuthHandler wires the login/signup/session endpoints to the auth service.
type AuthHandler struct {
	service      *service.AuthService
	cookieName   string
	secureCookie bool
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, cookieName: cookieName, secureCookie: secureCookie}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by email and password, sets the session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, res.Token)
	response.JSON(c, http.StatusOK, res)
}

// Signup godoc
// @Summary Register a new account
// @Description Create an account and establish a session
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, res.Token)
	response.Created(c, res)
}

// Cookies godoc
// @Summary Probe the session
// @Description Returns the session user, or null when unauthenticated
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/cookies [get]
func (h *AuthHandler) Cookies(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.JSON(c, http.StatusOK, gin.H{"user": nil})
		return
	}

	info, err := h.service.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		response.JSON(c, http.StatusOK, gin.H{"user": nil})
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"user": info})
}

// Logout godoc
// @Summary Clear the session
// @Description Deletes the session cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/cookies [delete]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.secureCookie, true)
	response.JSON(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.service.SessionTTL().Seconds()), "/", "", h.secureCookie, true)
}
