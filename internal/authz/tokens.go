package authz

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kalyana/internal/utils"
)

const (
	purposeAccess        = "access"
	purposePasswordReset = "password_reset"

	// ResetTicketTTL bounds the window between a verified reset code and the new password.
	ResetTicketTTL = 15 * time.Minute
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID  int    `json:"user_id"`
	Role    string `json:"role"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 tokens with the server secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// IssueAccessToken creates the bearer token used on every authenticated request.
func (m *TokenManager) IssueAccessToken(userID int, role string) (string, error) {
	return m.sign(userID, role, purposeAccess, m.ttl)
}

// IssueResetTicket creates a short-lived token that only allows setting a new password.
func (m *TokenManager) IssueResetTicket(userID int) (string, error) {
	return m.sign(userID, "", purposePasswordReset, ResetTicketTTL)
}

func (m *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, purposeAccess)
}

func (m *TokenManager) ParseResetTicket(tokenStr string) (*Claims, error) {
	return m.parse(tokenStr, purposePasswordReset)
}

func (m *TokenManager) sign(userID int, role, purpose string, ttl time.Duration) (string, error) {
	jti, err := utils.NewOpaqueToken(16)
	if err != nil {
		return "", fmt.Errorf("generating JTI: %w", err)
	}
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		Role:    role,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) parse(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		// принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithLeeway(2*time.Minute))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
