package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"kalyana/internal/models"
	"kalyana/internal/utils"
)

type AuthHandler struct {
	auth AuthFlows
}

func NewAuthHandler(auth AuthFlows) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type otpVerifyRequest struct {
	OTPToken string `json:"otp_token" binding:"required"`
	OTP      string `json:"otp"`
}

type otpResendRequest struct {
	OTPToken string `json:"otp_token" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	ResetToken      string `json:"reset_token" binding:"required"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// @Summary      Register
// @Description  Validates the signup form and emails a one-time code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Signup form"
// @Success      202   {object}  services.OTPStart
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		logger.Infof("[auth][register] rejected email=%q: %v", utils.MaskEmail(req.Email), err)
		respondError(c, "[auth][register]", err)
		return
	}
	c.JSON(http.StatusAccepted, start)
}

// @Summary      Verify registration code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpVerifyRequest  true  "Flow token and code"
// @Success      201   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      410   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /register/verify [post]
func (h *AuthHandler) VerifyRegistration(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.auth.VerifyRegistration(c.Request.Context(), req.OTPToken, req.OTP)
	if err != nil {
		respondError(c, "[auth][register][verify]", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration complete. Please log in.", "user": user})
}

// @Summary      Resend registration code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpResendRequest  true  "Flow token"
// @Success      200   {object}  services.OTPStart
// @Router       /register/resend [post]
func (h *AuthHandler) ResendRegistration(c *gin.Context) {
	h.resend(c, models.OTPPurposeRegister)
}

// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	token, user, err := h.auth.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		logger.Infof("[auth][login] failed email=%q: %v", utils.MaskEmail(email), err)
		respondError(c, "[auth][login]", err)
		return
	}
	logger.Infof("[auth][login] success user_id=%d role=%s", user.ID, user.Role)
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "Bearer", "user": user})
}

// @Summary      Start password reset
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      202   {object}  services.OTPStart
// @Failure      404   {object}  map[string]string
// @Router       /forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, "[auth][forgot]", err)
		return
	}
	c.JSON(http.StatusAccepted, start)
}

// @Summary      Verify password reset code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpVerifyRequest  true  "Flow token and code"
// @Success      200   {object}  map[string]string
// @Router       /forgot-password/verify [post]
func (h *AuthHandler) VerifyPasswordReset(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ticket, err := h.auth.VerifyPasswordReset(c.Request.Context(), req.OTPToken, req.OTP)
	if err != nil {
		respondError(c, "[auth][forgot][verify]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset_token": ticket})
}

// @Summary      Resend password reset code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      otpResendRequest  true  "Flow token"
// @Success      200   {object}  services.OTPStart
// @Router       /forgot-password/resend [post]
func (h *AuthHandler) ResendPasswordReset(c *gin.Context) {
	h.resend(c, models.OTPPurposeReset)
}

// @Summary      Set a new password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      resetPasswordRequest  true  "Reset ticket and new password"
// @Success      200   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword, req.ConfirmPassword); err != nil {
		respondError(c, "[auth][reset]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated. Please log in."})
}

func (h *AuthHandler) resend(c *gin.Context, purpose models.OTPPurpose) {
	var req otpResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := h.auth.Resend(c.Request.Context(), purpose, req.OTPToken)
	if err != nil {
		respondError(c, "[auth][resend]", err)
		return
	}
	c.JSON(http.StatusOK, start)
}
