package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/noblesavage/site/internal/auth"
)

// minAuthDuration is the minimum time spent on every admin auth attempt.
const minAuthDuration = 200 * time.Millisecond

// AdminConfig holds configuration for the admin key middleware.
type AdminConfig struct {
	Logger *slog.Logger
	// KeyHash is the Argon2id hash of the admin key. Empty disables admin routes.
	KeyHash string
}

// AdminKey returns a middleware that admits requests carrying the admin key.
// The key is read from "Authorization: Bearer <key>" or "X-API-Key".
func AdminKey(cfg AdminConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			ok, reason := verifyAdmin(cfg.KeyHash, extractAPIKey(r))
			if !ok {
				if elapsed := time.Since(startTime); elapsed < minAuthDuration {
					time.Sleep(minAuthDuration - elapsed)
				}
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
				return
			}

			cfg.Logger.Info("admin authenticated",
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)
			next.ServeHTTP(w, r)
		})
	}
}

func verifyAdmin(hash, key string) (bool, string) {
	if hash == "" {
		return false, "admin_disabled"
	}
	if key == "" {
		return false, "missing_key"
	}
	match, err := auth.VerifyKey(key, hash)
	if err != nil {
		return false, "invalid_hash"
	}
	if !match {
		return false, "invalid_key"
	}
	return true, ""
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	if key, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return key
	}
	return r.Header.Get("X-API-Key")
}
