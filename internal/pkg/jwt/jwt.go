package jwt

import (
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
	RoleStaff   = "staff"
)

// SSE tokens are passed as a query parameter because EventSource cannot set
// request headers, so they are kept short-lived.
const sseTokenTTL = 5 * time.Minute

type Service interface {
	GenerateAccessToken(userID string, role string) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string, role string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, role string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(userID string, role string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, fmt.Errorf("invalid access token expiration: %w", err)
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"role":    role,
		"type":    "access",
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token for the event stream.
func (j *JWTService) GenerateSSEToken(userID string, role string) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"role":    role,
		"type":    "sse",
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (userID string, role string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", "", err
	}

	if tokenType, ok := token.Get("type"); !ok || tokenType != "sse" {
		return "", "", jwt.ErrInvalidJWT()
	}

	userID, ok := stringClaim(token, "user_id")
	if !ok {
		return "", "", jwt.ErrInvalidJWT()
	}
	role, _ = stringClaim(token, "role")

	return userID, role, nil
}

func stringClaim(token jwt.Token, key string) (string, bool) {
	v, ok := token.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
