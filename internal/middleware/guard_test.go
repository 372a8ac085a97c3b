package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/linkman/internal/model"
)

func TestAccessGuard_Decisions(t *testing.T) {
	guard := NewAccessGuard("/signin", "/links")
	user := &model.User{ID: "u1"}

	tests := []struct {
		name string
		got  Decision
		want Decision
	}{
		{"authenticated route, anonymous", guard.RequireAuthenticated(nil), Decision{Redirect: "/signin"}},
		{"authenticated route, signed in", guard.RequireAuthenticated(user), Decision{Permit: true}},
		{"anonymous route, anonymous", guard.RequireAnonymous(nil), Decision{Permit: true}},
		{"anonymous route, signed in", guard.RequireAnonymous(user), Decision{Redirect: "/links"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("decision = %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}

func TestAccessGuard_Middleware(t *testing.T) {
	guard := NewAccessGuard("/signin", "/links")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name         string
		mw           func(http.Handler) http.Handler
		user         *model.User
		wantStatus   int
		wantLocation string
	}{
		{"authenticated: anonymous redirected", guard.Authenticated(), nil, http.StatusFound, "/signin"},
		{"authenticated: user permitted", guard.Authenticated(), &model.User{ID: "u1"}, http.StatusOK, ""},
		{"anonymous: user redirected", guard.Anonymous(), &model.User{ID: "u1"}, http.StatusFound, "/links"},
		{"anonymous: anonymous permitted", guard.Anonymous(), nil, http.StatusOK, ""},
		{"api: anonymous gets 401", guard.AuthenticatedAPI(), nil, http.StatusUnauthorized, ""},
		{"api: user permitted", guard.AuthenticatedAPI(), &model.User{ID: "u1"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/somewhere", nil)
			if tt.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			tt.mw(ok).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tt.wantLocation {
				t.Errorf("Location = %q, want %q", got, tt.wantLocation)
			}
		})
	}
}
