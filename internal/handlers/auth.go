package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/craftkart/identity/internal/config"
	"github.com/craftkart/identity/internal/middleware"
	"github.com/craftkart/identity/internal/models"
	"github.com/craftkart/identity/internal/observability"
	"github.com/craftkart/identity/internal/services"
	"github.com/craftkart/identity/internal/utils"
)

// parseChannelAndMode extracts the {channel} path segment and the action
// query parameter, writing a 400 itself when either is malformed.
func parseChannelAndMode(c *gin.Context) (models.Channel, models.Mode, bool) {
	channel, err := models.ParseChannel(c.Param("channel"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return "", "", false
	}
	mode, err := models.ParseMode(c.Query("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return "", "", false
	}
	return channel, mode, true
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		config.AppConfig.CookieName,
		token,
		int(config.AppConfig.SessionTTL.Seconds()),
		"/",
		config.AppConfig.CookieDomain,
		config.AppConfig.CookieSecure,
		true,
	)
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		config.AppConfig.CookieName,
		"",
		-1,
		"/",
		config.AppConfig.CookieDomain,
		config.AppConfig.CookieSecure,
		true,
	)
}

// SendCode godoc
// @Summary Send a verification code
// @Description Sends a one-time code to the addressed email or phone number. The action decides the precondition: signup requires an unregistered identifier, login a registered one.
// @Tags auth
// @Accept json
// @Produce json
// @Param channel path string true "Delivery channel" Enums(email, phone)
// @Param action query string true "Flow action" Enums(login, signup, verify)
// @Param data body models.SendCodeRequest true "Identifier"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /auth/{channel}/send-code [post]
func SendCode(c *gin.Context) {
	channel, mode, ok := parseChannelAndMode(c)
	if !ok {
		return
	}

	var req models.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}

	identifier, err := utils.NormalizeIdentifier(channel, req.Identifier(channel))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	actor := actorFrom(c)
	ctx := c.Request.Context()

	// Mode preconditions against the account store
	_, err = services.Users.FindByIdentifier(ctx, channel, identifier)
	switch mode {
	case models.ModeSignup:
		if err == nil {
			c.JSON(http.StatusConflict, ErrorResponse{Message: "an account with this identifier already exists"})
			return
		}
		if !errors.Is(err, models.ErrAccountNotFound) {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to check identifier"})
			return
		}
	case models.ModeLogin:
		if errors.Is(err, models.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "no account found for this identifier"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to check identifier"})
			return
		}
	}

	if allowed, reason := services.SendLimiter.Allow(ctx, channel, identifier); !allowed {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Message: reason})
		return
	}

	code, err := services.Codes.Issue(ctx, actor, channel, mode, identifier)
	if err != nil {
		observability.Logger().Error("failed to issue verification code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to issue verification code"})
		return
	}

	if err := utils.SendVerificationCode(ctx, channel, identifier, code); err != nil {
		observability.Logger().Error("failed to deliver verification code", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: "failed to deliver verification code"})
		return
	}

	auditCtx := utils.GetAuditContextFromGin(c, string(actor), identifier)
	utils.LogAuthEvent(auditCtx, utils.AuditActionCodeSent, map[string]string{
		"channel": string(channel),
		"action":  string(mode),
	})

	c.JSON(http.StatusOK, SuccessResponse{})
}

// VerifyCode godoc
// @Summary Verify a one-time code
// @Description Checks the submitted code. In login mode a match establishes a session and returns the user; otherwise the identifier is marked verified for the registration step.
// @Tags auth
// @Accept json
// @Produce json
// @Param channel path string true "Delivery channel" Enums(email, phone)
// @Param action query string true "Flow action" Enums(login, signup, verify)
// @Param data body models.VerifyCodeRequest true "Identifier and code"
// @Success 200 {object} UserEnvelope
// @Failure 400 {object} ErrorResponse
// @Failure 410 {object} ErrorResponse
// @Router /auth/{channel}/verify-code [post]
func VerifyCode(c *gin.Context) {
	channel, mode, ok := parseChannelAndMode(c)
	if !ok {
		return
	}

	var req models.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}

	identifier, err := utils.NormalizeIdentifier(channel, req.Identifier(channel))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	actor := actorFrom(c)
	ctx := c.Request.Context()
	auditCtx := utils.GetAuditContextFromGin(c, string(actor), identifier)

	if err := services.Codes.Verify(ctx, actor, channel, mode, identifier, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrCodeExpired):
			c.JSON(http.StatusGone, ErrorResponse{Message: "verification code expired, request a new one"})
		case errors.Is(err, models.ErrInvalidCode):
			utils.LogAuthEvent(auditCtx, utils.AuditActionCodeRejected, nil)
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid verification code"})
		default:
			observability.Logger().Error("failed to verify code", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to verify code"})
		}
		return
	}

	utils.LogAuthEvent(auditCtx, utils.AuditActionCodeVerified, map[string]string{
		"channel": string(channel),
		"action":  string(mode),
	})

	if mode != models.ModeLogin {
		c.JSON(http.StatusOK, SuccessResponse{})
		return
	}

	// OTP login: a confirmed code is the credential, establish the session
	user, err := services.Users.FindByIdentifier(ctx, channel, identifier)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			observability.Logins.WithLabelValues("otp", "failure").Inc()
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "no account found for this identifier"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load account"})
		return
	}

	token, err := services.IssueSessionToken(user, identifier)
	if err != nil {
		observability.Logger().Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to establish session"})
		return
	}
	setSessionCookie(c, token)

	observability.Logins.WithLabelValues("otp", "success").Inc()
	utils.LogAuthEvent(auditCtx, utils.AuditActionLogin, map[string]string{"method": "otp"})

	c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// Register godoc
// @Summary Complete a signup
// @Description Creates the account for a previously verified identifier. The verified marker is consumed; registering twice requires a new verification.
// @Tags auth
// @Accept json
// @Produce json
// @Param channel path string true "Delivery channel" Enums(email, phone)
// @Param data body models.RegisterRequest true "Profile"
// @Success 201 {object} UserEnvelope
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/{channel}/register [post]
func Register(c *gin.Context) {
	channel, err := models.ParseChannel(c.Param("channel"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}

	identifier, err := utils.NormalizeIdentifier(channel, req.Identifier(channel))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	actor := actorFrom(c)
	ctx := c.Request.Context()

	verified, err := services.Codes.ConsumeVerified(ctx, actor, channel, identifier)
	if err != nil {
		observability.Logger().Error("failed to check verified marker", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to complete registration"})
		return
	}
	if !verified {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "identifier has not been verified"})
		return
	}

	user, err := services.Users.Create(ctx, actor, channel, identifier, &req)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyRegistered) {
			observability.Signups.WithLabelValues(string(channel), "conflict").Inc()
			c.JSON(http.StatusConflict, ErrorResponse{Message: "an account with this identifier already exists"})
			return
		}
		observability.Signups.WithLabelValues(string(channel), "failure").Inc()
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to create account"})
		return
	}

	token, err := services.IssueSessionToken(user, identifier)
	if err != nil {
		observability.Logger().Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to establish session"})
		return
	}
	setSessionCookie(c, token)

	observability.Signups.WithLabelValues(string(channel), "success").Inc()
	auditCtx := utils.GetAuditContextFromGin(c, string(actor), identifier)
	utils.LogAuthEvent(auditCtx, utils.AuditActionSignup, map[string]string{"channel": string(channel)})

	c.JSON(http.StatusCreated, UserEnvelope{User: user})
}

// PasswordLogin godoc
// @Summary Password login
// @Description Authenticates with email and password and establishes a session.
// @Tags auth
// @Accept json
// @Produce json
// @Param data body models.LoginRequest true "Credentials"
// @Success 200 {object} UserEnvelope
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /login [post]
func PasswordLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}

	email, err := utils.NormalizeEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	actor := actorFrom(c)
	ctx := c.Request.Context()

	user, err := services.Users.FindByIdentifier(ctx, models.ChannelEmail, email)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			observability.Logins.WithLabelValues("password", "failure").Inc()
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "no account found for this email"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load account"})
		return
	}

	if err := services.Users.VerifyPassword(user, req.Password); err != nil {
		observability.Logins.WithLabelValues("password", "failure").Inc()
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "incorrect email or password"})
		return
	}

	token, err := services.IssueSessionToken(user, email)
	if err != nil {
		observability.Logger().Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to establish session"})
		return
	}
	setSessionCookie(c, token)

	observability.Logins.WithLabelValues("password", "success").Inc()
	auditCtx := utils.GetAuditContextFromGin(c, string(actor), email)
	utils.LogAuthEvent(auditCtx, utils.AuditActionLogin, map[string]string{"method": "password"})

	c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// Me godoc
// @Summary Current session
// @Description Returns the account bound to the session cookie. Front ends call this once on bootstrap to populate their session store.
// @Tags auth
// @Produce json
// @Success 200 {object} UserEnvelope
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func Me(c *gin.Context) {
	claims, err := middleware.SessionClaimsFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "not authenticated"})
		return
	}

	user, err := services.Users.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			clearSessionCookie(c)
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "account no longer exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "failed to load account"})
		return
	}

	c.JSON(http.StatusOK, UserEnvelope{User: user})
}

// Logout godoc
// @Summary End the session
// @Tags auth
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /auth/logout [post]
func Logout(c *gin.Context) {
	if claims, err := middleware.SessionClaimsFromContext(c); err == nil {
		auditCtx := utils.GetAuditContextFromGin(c, string(actorFrom(c)), claims.Identifier)
		utils.LogAuthEvent(auditCtx, utils.AuditActionLogout, nil)
	}
	clearSessionCookie(c)
	c.JSON(http.StatusOK, SuccessResponse{})
}
