package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/communityboard/board-system/internal/core/domain"
)

func TestAdminWrites(t *testing.T) {
	e := echo.New()
	cases := []struct {
		name    string
		setup   func(echo.Context)
		allowed bool
	}{
		{"admin identity", func(c echo.Context) { c.Set(KeyIdentity, &domain.Identity{ID: "a1", Role: domain.RoleAdmin}) }, true},
		{"service key", func(c echo.Context) { c.Set(KeyService, true) }, true},
		{"member identity", func(c echo.Context) { c.Set(KeyIdentity, &domain.Identity{ID: "m1", Role: domain.RoleMember}) }, false},
		{"anonymous", func(c echo.Context) { c.Set(KeyService, false) }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
			tc.setup(c)

			called := false
			err := AdminWrites()(func(echo.Context) error { called = true; return nil })(c)
			if tc.allowed {
				if err != nil || !called {
					t.Fatalf("expected pass, err=%v called=%v", err, called)
				}
				return
			}
			if called {
				t.Fatalf("next handler must not run")
			}
			if got := statusOf(t, err); got != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", got)
			}
		})
	}
}

func TestRequireServiceRole(t *testing.T) {
	e := echo.New()

	anon := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	anon.Set(KeyService, false)
	err := RequireServiceRole()(func(echo.Context) error {
		t.Fatalf("anon key must not pass")
		return nil
	})(anon)
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", got)
	}

	svc := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	svc.Set(KeyService, true)
	called := false
	if err := RequireServiceRole()(func(echo.Context) error { called = true; return nil })(svc); err != nil || !called {
		t.Fatalf("service key should pass, err=%v", err)
	}
}
