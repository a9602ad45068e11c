package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func echoIdentity(t *testing.T, want Identity) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := FromContext(r.Context())
		if !ok {
			t.Error("identity missing from context")
		}
		if ident != want {
			t.Errorf("identity = %+v, want %+v", ident, want)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := NewTokenManager("unit-test-secret", time.Hour)
	token, err := tokens.Issue(&User{ID: 3, Role: RoleDoctor, RoleID: 9})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	handler := Middleware(tokens)(echoIdentity(t, Identity{UserID: 3, Role: RoleDoctor, RoleID: 9}))

	req := httptest.NewRequest("GET", "/me/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	tokens := NewTokenManager("unit-test-secret", time.Hour)
	handler := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run without a valid token")
	}))

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		req := httptest.NewRequest("GET", "/me/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleLeader)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/leader/overview", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{Role: RoleLeader, RoleID: 1}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("leader status = %d, want 204", rec.Code)
	}

	req = httptest.NewRequest("GET", "/leader/overview", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{Role: RolePatient, RoleID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("patient status = %d, want 403", rec.Code)
	}

	// No identity at all.
	req = httptest.NewRequest("GET", "/leader/overview", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d, want 403", rec.Code)
	}
}
