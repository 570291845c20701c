package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

const bearerPrefix = "Bearer "

// TokenParser turns HS256 bearer tokens into actors
type TokenParser struct {
	secret []byte
}

func NewTokenParser(secret string) *TokenParser {
	return &TokenParser{secret: []byte(secret)}
}

// FromHeader extracts and parses the Authorization bearer token
func (p *TokenParser) FromHeader(headers http.Header) (domain.Actor, error) {
	authz := headers.Get("Authorization")
	if !strings.HasPrefix(authz, bearerPrefix) {
		return domain.Actor{}, ErrMissingToken
	}

	tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, bearerPrefix))
	if tokenStr == "" {
		return domain.Actor{}, ErrMissingToken
	}

	return p.Parse(tokenStr)
}

// Parse validates the token signature and expiry and reads the sub and role claims
func (p *TokenParser) Parse(tokenStr string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return domain.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return domain.Actor{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(domain.RoleSubscriber)
	}

	return domain.Actor{ID: sub, Role: domain.Role(role)}, nil
}

// Issue signs a token for the actor, used by the CLI and tests
func (p *TokenParser) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  actor.ID,
		"role": string(actor.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
