package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(mw func(http.Handler) http.Handler, header, value string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAdmin_AllowsAdminKey_BlocksPublicKey(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}

	if code := serve(RequireAdmin(keys), "X-API-Key", "adm_key"); code != http.StatusOK {
		t.Fatalf("admin key should pass; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "Authorization", "Bearer adm_key"); code != http.StatusOK {
		t.Fatalf("bearer admin key should pass; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "X-API-Key", "pub_key"); code != http.StatusForbidden {
		t.Fatalf("public key should be forbidden; got %d", code)
	}
	if code := serve(RequireAdmin(keys), "", ""); code != http.StatusUnauthorized {
		t.Fatalf("missing key should be 401; got %d", code)
	}
}

func TestRequireAny(t *testing.T) {
	keys := Keys{Public: []string{"pub_key"}, Admin: []string{"adm_key"}}
	cases := []struct {
		header, value string
		want          int
	}{
		{"X-API-Key", "pub_key", http.StatusOK},
		{"X-API-Key", "adm_key", http.StatusOK},
		{"Authorization", "bearer pub_key", http.StatusOK},
		{"X-API-Key", "nope", http.StatusUnauthorized},
		{"", "", http.StatusUnauthorized},
	}
	for _, c := range cases {
		if code := serve(RequireAny(keys), c.header, c.value); code != c.want {
			t.Fatalf("%s=%q: got %d want %d", c.header, c.value, code, c.want)
		}
	}
}

func TestNoKeysConfiguredAllowsAll(t *testing.T) {
	if code := serve(RequireAny(Keys{}), "", ""); code != http.StatusOK {
		t.Fatalf("RequireAny without keys should pass; got %d", code)
	}
	if code := serve(RequireAdmin(Keys{Public: []string{"p"}}), "", ""); code != http.StatusOK {
		t.Fatalf("RequireAdmin without admin keys should pass; got %d", code)
	}
}
