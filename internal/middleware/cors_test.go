package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsRequest(t *testing.T, allowed []string, method, origin string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = allowed

	reached := false
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/users", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func TestCORS_AllowedOrigin(t *testing.T) {
	rec, reached := corsRequest(t, []string{"https://panel.example.org"}, http.MethodGet, "https://panel.example.org")

	if !reached {
		t.Fatal("request should reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://panel.example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, RequestIDHeader) {
		t.Errorf("Access-Control-Expose-Headers = %q, want %s", got, RequestIDHeader)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want Origin", got)
	}
}

func TestCORS_OriginMatchIgnoresCase(t *testing.T) {
	rec, _ := corsRequest(t, []string{"HTTPS://PANEL.EXAMPLE.ORG"}, http.MethodGet, "https://panel.example.org")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://panel.example.org" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestCORS_UnlistedOrigins(t *testing.T) {
	for _, origin := range []string{
		"https://evil.example.com",
		"https://panel.example.org.evil.net",
		"http://panel.example.org",
	} {
		t.Run(origin, func(t *testing.T) {
			rec, reached := corsRequest(t, []string{"https://panel.example.org"}, http.MethodGet, origin)

			if !reached {
				t.Error("simple requests still reach the handler")
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
				t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
			}
		})
	}
}

func TestCORS_NothingConfigured(t *testing.T) {
	rec, _ := corsRequest(t, nil, http.MethodGet, "https://panel.example.org")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
	}
}

func TestCORS_NoOriginHeader(t *testing.T) {
	rec, reached := corsRequest(t, []string{"https://panel.example.org"}, http.MethodGet, "")

	if !reached {
		t.Fatal("same-origin request should reach the handler")
	}
	if got := rec.Header().Get("Vary"); got != "" {
		t.Errorf("Vary = %q, want none", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	rec, reached := corsRequest(t, []string{"https://panel.example.org"}, http.MethodOptions, "https://panel.example.org")

	if reached {
		t.Error("preflight must be answered by the middleware")
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	want := map[string]string{
		"Access-Control-Allow-Methods": "GET, POST, DELETE, OPTIONS",
		"Access-Control-Max-Age":       "86400",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Authorization") {
		t.Errorf("Access-Control-Allow-Headers = %q, want Authorization", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Access-Control-Allow-Credentials = %q, want none", got)
	}
}

func TestCORS_PreflightFromUnlistedOrigin(t *testing.T) {
	rec, reached := corsRequest(t, []string{"https://panel.example.org"}, http.MethodOptions, "https://evil.example.com")

	if reached {
		t.Error("rejected preflight must not reach the handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
