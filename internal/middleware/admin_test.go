package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/noblesavage/site/internal/auth"
)

func TestAdminKey(t *testing.T) {
	t.Parallel()

	const key = "ns_admin_test-key"
	hash, err := auth.HashKey(key)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	tests := []struct {
		name       string
		hash       string
		header     string
		value      string
		wantStatus int
	}{
		{"bearer", hash, "Authorization", "Bearer " + key, http.StatusOK},
		{"x-api-key", hash, "X-API-Key", key, http.StatusOK},
		{"wrong key", hash, "Authorization", "Bearer ns_admin_wrong", http.StatusUnauthorized},
		{"missing key", hash, "", "", http.StatusUnauthorized},
		{"basic auth ignored", hash, "Authorization", "Basic " + key, http.StatusUnauthorized},
		{"disabled", "", "Authorization", "Bearer " + key, http.StatusUnauthorized},
		{"corrupt hash", "not-a-hash", "Authorization", "Bearer " + key, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := AdminKey(AdminConfig{Logger: testLogger(), KeyHash: tt.hash})(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/intakes", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
