package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/logger"
	"golang.org/x/crypto/bcrypt"

	"kalyana/internal/authz"
	"kalyana/internal/models"
	"kalyana/internal/repositories"
	"kalyana/internal/utils"
)

const (
	OTPTTL          = 10 * time.Minute
	OTPMaxAttempts  = 5
	otpLength       = 6
	flowTokenLength = 32
)

// AttemptError reports a wrong one-time code and how many tries are left.
type AttemptError struct {
	Remaining int
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("invalid code, %d attempt(s) remaining", e.Remaining)
}

func (e *AttemptError) Unwrap() error { return ErrInvalidCode }

// TokenIssuer issues access tokens and password reset tickets.
type TokenIssuer interface {
	IssueAccessToken(userID int, role string) (string, error)
	IssueResetTicket(userID int) (string, error)
	ParseResetTicket(token string) (*authz.Claims, error)
}

// OTPStart identifies a pending verification flow.
type OTPStart struct {
	Token       string    `json:"otp_token"`
	MaskedEmail string    `json:"masked_email"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type AuthService struct {
	users    repositories.UserRepository
	otps     repositories.OTPContextRepository
	mailer   OTPMailer
	tokens   TokenIssuer
	notifier Notifier
	secret   string
	now      func() time.Time
	newCode  func() (string, error)
}

func NewAuthService(users repositories.UserRepository, otps repositories.OTPContextRepository, mailer OTPMailer, tokens TokenIssuer, notifier Notifier, secret string) *AuthService {
	return &AuthService{
		users:    users,
		otps:     otps,
		mailer:   mailer,
		tokens:   tokens,
		notifier: orNoop(notifier),
		secret:   secret,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  func() (string, error) { return utils.GenerateNumericCode(otpLength) },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ===== registration =====

// Register validates the signup form and emails a code. No user exists until VerifyRegistration succeeds.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*OTPStart, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := normalizeEmail(req.Email)
	phone := strings.TrimSpace(req.PhoneNumber)
	role := strings.TrimSpace(req.Role)

	if !authz.IsSignupRole(role) {
		return nil, invalid("invalid role selected")
	}
	if fullName == "" || email == "" || req.Password == "" || phone == "" {
		return nil, invalid("please fill all required fields")
	}
	if !utils.IsValidEmail(email) {
		return nil, invalid("enter a valid email address")
	}
	if !utils.IsValidPassword(req.Password) {
		return nil, invalid("password must be at least 8 characters and contain letters and numbers")
	}
	if !utils.IsValidPhone(phone) {
		return nil, invalid("enter a valid 10-digit phone number")
	}
	if err := s.ensureUnique(ctx, email, phone); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	payload := models.OTPContextPayload{
		FullName:     fullName,
		PhoneNumber:  phone,
		Role:         role,
		PasswordHash: hash,
	}
	return s.startFlow(ctx, models.OTPPurposeRegister, email, payload)
}

func (s *AuthService) ensureUnique(ctx context.Context, email, phone string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already registered: %w", ErrConflict)
	} else if !repositories.IsNotFound(err) {
		return err
	}
	if _, err := s.users.GetByPhone(ctx, phone); err == nil {
		return fmt.Errorf("phone number already registered: %w", ErrConflict)
	} else if !repositories.IsNotFound(err) {
		return err
	}
	return nil
}

// VerifyRegistration checks the code and creates the account with a verified phone.
func (s *AuthService) VerifyRegistration(ctx context.Context, token, code string) (*models.User, error) {
	oc, err := s.checkCode(ctx, models.OTPPurposeRegister, token, code)
	if err != nil {
		return nil, err
	}
	// the flow ends here whatever the outcome
	defer s.dropFlow(ctx, oc.Token)

	p := oc.Payload
	if !utils.IsValidPhone(p.PhoneNumber) || !authz.IsSignupRole(p.Role) {
		return nil, invalid("registration data is no longer valid, please register again")
	}
	if err := s.ensureUnique(ctx, oc.Email, p.PhoneNumber); err != nil {
		return nil, err
	}

	phone := p.PhoneNumber
	u := &models.User{
		FullName:      p.FullName,
		Email:         oc.Email,
		PasswordHash:  p.PasswordHash,
		Role:          p.Role,
		PhoneNumber:   &phone,
		PhoneVerified: true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("account already registered: %w", ErrConflict)
		}
		return nil, err
	}

	logger.Infof("[auth][register] ok user_id=%d role=%s", u.ID, u.Role)
	s.notifier.Publish("user", "created", u.Role)
	return u, nil
}

// ===== login =====

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repositories.IsNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !authz.IsKnownRole(u.Role) {
		return "", nil, ErrForbiddenRole
	}
	token, err := s.tokens.IssueAccessToken(u.ID, u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// ===== password reset =====

func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*OTPStart, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, invalid("email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, fmt.Errorf("email %w", ErrNotFound)
		}
		return nil, err
	}
	return s.startFlow(ctx, models.OTPPurposeReset, email, models.OTPContextPayload{UserID: u.ID})
}

// VerifyPasswordReset checks the code and returns a short-lived reset ticket.
func (s *AuthService) VerifyPasswordReset(ctx context.Context, token, code string) (string, error) {
	oc, err := s.checkCode(ctx, models.OTPPurposeReset, token, code)
	if err != nil {
		return "", err
	}
	s.dropFlow(ctx, oc.Token)
	return s.tokens.IssueResetTicket(oc.Payload.UserID)
}

func (s *AuthService) ResetPassword(ctx context.Context, ticket, newPassword, confirm string) error {
	claims, err := s.tokens.ParseResetTicket(strings.TrimSpace(ticket))
	if err != nil {
		return ErrUnauthorized
	}
	if newPassword == "" || newPassword != confirm {
		return invalid("passwords do not match")
	}
	if !utils.IsValidPassword(newPassword) {
		return invalid("password must be at least 8 characters and contain letters and numbers")
	}
	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		if repositories.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	logger.Infof("[auth][reset] password updated user_id=%d", claims.UserID)
	return nil
}

// ===== OTP flow =====

func (s *AuthService) startFlow(ctx context.Context, purpose models.OTPPurpose, email string, payload models.OTPContextPayload) (*OTPStart, error) {
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	token, err := utils.NewOpaqueToken(flowTokenLength)
	if err != nil {
		return nil, err
	}
	if !s.mailer.SendOTP(email, code, purpose) {
		return nil, ErrEmailDelivery
	}

	oc := &models.OTPContext{
		Token:     token,
		Purpose:   purpose,
		Email:     email,
		CodeHash:  utils.HashOTP(code, email, s.secret),
		ExpiresAt: s.now().Add(OTPTTL),
		Payload:   payload,
	}
	if err := s.otps.Create(ctx, oc); err != nil {
		return nil, fmt.Errorf("store otp context: %w", err)
	}
	logger.Infof("[auth][otp][start] purpose=%s to=%s", purpose, utils.MaskEmail(email))
	return &OTPStart{Token: token, MaskedEmail: utils.MaskEmail(email), ExpiresAt: oc.ExpiresAt}, nil
}

// Resend issues a fresh code, expiry and attempt counter for an open flow.
// The flow token and its payload stay the same.
func (s *AuthService) Resend(ctx context.Context, purpose models.OTPPurpose, token string) (*OTPStart, error) {
	oc, err := s.loadFlow(ctx, purpose, token)
	if err != nil {
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	if !s.mailer.SendOTP(oc.Email, code, purpose) {
		return nil, ErrEmailDelivery
	}
	expiresAt := s.now().Add(OTPTTL)
	if err := s.otps.ReplaceCode(ctx, oc.Token, utils.HashOTP(code, oc.Email, s.secret), expiresAt); err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	logger.Infof("[auth][otp][resend] purpose=%s to=%s", purpose, utils.MaskEmail(oc.Email))
	return &OTPStart{Token: oc.Token, MaskedEmail: utils.MaskEmail(oc.Email), ExpiresAt: expiresAt}, nil
}

func (s *AuthService) loadFlow(ctx context.Context, purpose models.OTPPurpose, token string) (*models.OTPContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	oc, err := s.otps.GetByToken(ctx, token)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if oc.Purpose != purpose {
		return nil, ErrNotFound
	}
	return oc, nil
}

// checkCode verifies code against the flow. An expired flow and the last
// allowed failure both delete the context.
func (s *AuthService) checkCode(ctx context.Context, purpose models.OTPPurpose, token, code string) (*models.OTPContext, error) {
	oc, err := s.loadFlow(ctx, purpose, token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, invalid("please enter the code")
	}
	if oc.Expired(s.now()) {
		s.dropFlow(ctx, oc.Token)
		return nil, ErrExpired
	}
	if utils.VerifyOTP(oc.CodeHash, code, oc.Email, s.secret) {
		return oc, nil
	}

	attempts, err := s.otps.IncrementAttempts(ctx, oc.Token)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if attempts >= OTPMaxAttempts {
		s.dropFlow(ctx, oc.Token)
		logger.Warningf("[auth][otp] too many attempts purpose=%s to=%s", purpose, utils.MaskEmail(oc.Email))
		return nil, ErrTooManyAttempts
	}
	return nil, &AttemptError{Remaining: OTPMaxAttempts - attempts}
}

func (s *AuthService) dropFlow(ctx context.Context, token string) {
	if err := s.otps.Delete(ctx, token); err != nil {
		logger.Errorf("[auth][otp] delete context: %v", err)
	}
}
