package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ctxGatewayKey is the context key for the authenticated gateway name.
type ctxGatewayKey struct{}

// GatewayFrom returns the gateway name stored by requireGateway, if any.
func GatewayFrom(ctx context.Context) string {
	name, _ := ctx.Value(ctxGatewayKey{}).(string)
	return name
}

// SignGatewayToken issues an HS256 token for the messaging adapter named bot.
// A zero ttl produces a token without expiry.
func SignGatewayToken(secret, bot string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("gateway secret is empty")
	}
	if bot == "" {
		return "", errors.New("bot name is empty")
	}
	claims := jwt.MapClaims{
		"bot": bot,
		"iat": time.Now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// parseGatewayToken validates tok and returns its bot claim.
func parseGatewayToken(secret, tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid token")
	}
	bot, _ := claims["bot"].(string)
	if bot == "" {
		return "", fmt.Errorf("token has no bot claim")
	}
	return bot, nil
}

// requireGateway enforces a valid bearer token when a secret is configured
// and injects the gateway name into the request context.
func (s *Server) requireGateway() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			tok := bearer(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			bot, err := parseGatewayToken(s.secret, tok)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxGatewayKey{}, bot)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearer extracts the token from "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
