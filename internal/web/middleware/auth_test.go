package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func authProbe(token string, authorization string) *httptest.ResponseRecorder {
	handler := RequireToken(token)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/records/recent", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestRequireToken(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		authorization string
		expected      int
	}{
		{"valid token", "secret", "Bearer secret", http.StatusOK},
		{"wrong token", "secret", "Bearer wrong", http.StatusUnauthorized},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"no bearer prefix", "secret", "secret", http.StatusOK},
		{"empty configured token disables check", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := authProbe(tt.token, tt.authorization)
			if rr.Code != tt.expected {
				t.Errorf("status = %d, want %d", rr.Code, tt.expected)
			}
		})
	}
}
