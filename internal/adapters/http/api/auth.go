package api

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/okian/bingonight/internal/domain/errs"
)

const hostSubject = "host"

type loginRequest struct {
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleLogin handles POST /api/host/login.
func (s *Server) handleLogin(c *fiber.Ctx) error {
	const op = "api.login"
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(op, err)
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), s.secret) != 1 {
		return errs.NewKind(op, errs.ErrInvalidCredentials)
	}
	token, exp, err := s.issueToken()
	if err != nil {
		return errs.Wrap(op, err)
	}
	return c.JSON(loginResponse{Token: token, ExpiresAt: exp})
}

// issueToken signs a host token valid for the configured TTL.
func (s *Server) issueToken() (string, time.Time, error) {
	now := s.clock.Now()
	exp := now.Add(s.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   hostSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// requireHost rejects requests without a valid host bearer token.
func (s *Server) requireHost(c *fiber.Ctx) error {
	const op = "api.requireHost"
	header := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return errs.NewKind(op, ErrUnauthorized)
	}
	_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(hostSubject),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return errs.WrapKind(op, ErrUnauthorized, errors.New("token expired"))
		}
		return errs.WrapKind(op, ErrUnauthorized, err)
	}
	return c.Next()
}
