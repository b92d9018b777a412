package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
)

// devSecret signs tokens when SESSION_SECRET is unset.
const devSecret = "printfleet-dev-secret"

type ctxKey int

const accountKey ctxKey = iota

type authService struct {
	secret []byte
}

func newAuthService(secret string) *authService {
	if secret == "" {
		secret = devSecret
	}
	return &authService{secret: []byte(secret)}
}

// createToken returns "<base64 account>.<hex hmac>".
func (a *authService) createToken(accountID string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(accountID))
	return payload + "." + a.sign(payload)
}

func (a *authService) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *authService) verifyToken(token string) (string, bool) {
	payload, signature, ok := strings.Cut(token, ".")
	if !ok {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	expected, _ := hex.DecodeString(a.sign(payload))
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}
	return string(decoded), true
}

// middleware rejects requests without a valid bearer token and stores the account in
// the request context.
func (a *authService) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		account, ok := a.verifyToken(strings.TrimSpace(token))
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, account)))
	})
}

func accountFrom(ctx context.Context) string {
	account, _ := ctx.Value(accountKey).(string)
	return account
}
