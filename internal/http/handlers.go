package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/account-service/internal/auth"
	"github.com/tazhibayda/account-service/internal/session"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Auth    *auth.Service
	Session *session.Issuer
	Store   Pinger
}

func NewHandler(svc *auth.Service, iss *session.Issuer, store Pinger) *Handler {
	return &Handler{Auth: svc, Session: iss, Store: store}
}

// envelope is the body of every auth response.
type envelope struct {
	Payload any    `json:"payload"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, payload any, message string) {
	c.JSON(status, envelope{Payload: payload, Message: message})
}

func statusFor(k auth.Kind) int {
	switch k {
	case auth.KindInvalidInput, auth.KindConflict, auth.KindInvalidCredentials, auth.KindAlreadyAuthenticated:
		return http.StatusBadRequest
	case auth.KindNotFound, auth.KindMissingEmail:
		return http.StatusNotFound
	case auth.KindGone:
		return http.StatusGone
	case auth.KindProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail renders a flow error. Causes stay in the logs; clients only see Message.
func fail(c *gin.Context, err error) {
	msg := "Internal server error"
	var ae *auth.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	_ = c.Error(err)
	respond(c, statusFor(auth.KindOf(err)), nil, msg)
}

func badBody(c *gin.Context) {
	respond(c, http.StatusBadRequest, nil, "Invalid request body")
}

type signupReq struct {
	Name       string `json:"name"       form:"name"`
	Email      string `json:"email"      form:"email"`
	Password   string `json:"password"   form:"password"`
	RePassword string `json:"repassword" form:"repassword"`
}

// Signup godoc
// @Summary Create a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signupReq true "signup"
// @Success 201 {object} envelope
// @Failure 400 {object} envelope
// @Router /api/auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var in signupReq
	if err := c.ShouldBind(&in); err != nil {
		badBody(c)
		return
	}
	u, err := h.Auth.Signup(c.Request.Context(), auth.SignupInput{
		Name: in.Name, Email: in.Email, Password: in.Password, ConfirmPassword: in.RePassword,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, u, "User created successfully")
}

type loginReq struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

// Login godoc
// @Summary Login with email and password
// @Description Sets the session cookie and returns the token in the payload.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginReq true "login"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in loginReq
	if err := c.ShouldBind(&in); err != nil {
		badBody(c)
		return
	}
	existing, _ := c.Cookie(h.Session.CookieName())
	res, err := h.Auth.Login(c.Request.Context(), c.Writer, auth.LoginInput{
		Email: in.Email, Password: in.Password, HasSession: existing != "",
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res, "Login successfully")
}

// GoogleStart godoc
// @Summary Start Google sign-in
// @Tags auth
// @Success 302
// @Router /api/auth/google [get]
func (h *Handler) GoogleStart(c *gin.Context) {
	c.Redirect(http.StatusFound, h.Auth.GoogleLoginURL())
}

// GoogleCallback godoc
// @Summary Google redirect target
// @Description Redirects to <client>/callback-google?token=... on success.
// @Tags auth
// @Param code query string true "authorization code"
// @Success 302
// @Failure 400 {object} envelope
// @Failure 502 {object} envelope
// @Router /api/auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	target, err := h.Auth.GoogleCallback(c.Request.Context(), c.Writer, c.Query("code"), c.GetHeader("Referer"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} envelope
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	h.Session.Clear(c.Writer)
	respond(c, http.StatusOK, nil, "Logout successfully")
}

type forgotReq struct {
	Email string `json:"email" form:"email"`
}

// ForgotPassword godoc
// @Summary Request a password reset link
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body forgotReq true "email"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/auth/forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotReq
	if err := c.ShouldBind(&in); err != nil {
		badBody(c)
		return
	}
	res, err := h.Auth.ForgotPassword(c.Request.Context(), in.Email)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res, "Reset link has been sent to your email")
}

type resetReq struct {
	Password   string `json:"password"   form:"password"`
	RePassword string `json:"rePassword" form:"rePassword"`
}

// ResetPassword godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "reset token"
// @Param payload body resetReq true "new password"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 404 {object} envelope
// @Failure 410 {object} envelope
// @Router /api/auth/reset-password/{token} [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	var in resetReq
	if err := c.ShouldBind(&in); err != nil {
		badBody(c)
		return
	}
	u, err := h.Auth.ResetPassword(c.Request.Context(), auth.ResetInput{
		Token: c.Param("token"), Password: in.Password, ConfirmPassword: in.RePassword,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, u, "Password has been reset successfully")
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	u, err := h.Auth.CurrentUser(c.Request.Context(), c.GetString(uidKey))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, u, "OK")
}

func (h *Handler) JWKS(c *gin.Context) {
	set, err := h.Session.JWKS()
	if errors.Is(err, session.ErrNoKeys) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no signing keys published"})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *Handler) Healthz(c *gin.Context) {
	if err := h.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Root(c *gin.Context) {
	c.String(http.StatusOK, "account-service is running")
}
