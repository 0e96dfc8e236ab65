package auth

import (
	"context"
	"errors"
	"time"

	"backend-fieldtrack/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Service struct {
	secret []byte
	db     db.Querier
}

// Claims carry the resolved employee identity. Write operations always
// take the subject from here, never from a client-supplied payload.
type Claims struct {
	EmployeeID string `json:"employee_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, db db.Querier) *Service {
	return &Service{
		secret: []byte(secret),
		db:     db,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (string, TokenResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, password_hash
		FROM employees WHERE email = $1
	`, req.Email)

	var employeeID, passwordHash string
	if err := row.Scan(&employeeID, &passwordHash); err != nil {
		return "", TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return "", TokenResponse{}, errors.New("invalid credentials")
	}

	tokens, err := s.GenerateTokens(ctx, employeeID)
	if err != nil {
		return "", TokenResponse{}, err
	}
	return employeeID, tokens, nil
}

func (s *Service) GenerateTokens(ctx context.Context, employeeID string) (TokenResponse, error) {
	access, err := s.signToken(employeeID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	refresh, err := s.signToken(employeeID, refreshTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}

	if err := s.saveRefreshToken(ctx, refresh, employeeID, refreshTokenTTL); err != nil {
		return TokenResponse{}, err
	}

	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}

	employeeID, expiresAt, err := s.lookupRefreshToken(ctx, token)
	if err != nil || employeeID != claims.EmployeeID || time.Now().After(expiresAt) {
		return "", errors.New("refresh token invalid")
	}
	return claims.EmployeeID, nil
}

func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.EmployeeID, nil
}

func (s *Service) signToken(employeeID string, ttl time.Duration) (string, error) {
	claims := Claims{
		EmployeeID: employeeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

func (s *Service) saveRefreshToken(ctx context.Context, token, employeeID string, ttl time.Duration) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO refresh_tokens (id, employee_id, token, expires_at)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), employeeID, token, time.Now().Add(ttl))
	return err
}

func (s *Service) lookupRefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT employee_id, expires_at
		FROM refresh_tokens
		WHERE token = $1 AND revoked_at IS NULL
	`, token)
	var employeeID string
	var expiresAt time.Time
	if err := row.Scan(&employeeID, &expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return employeeID, expiresAt, nil
}
