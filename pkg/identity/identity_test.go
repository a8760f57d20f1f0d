package identity

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != MePath {
			t.Errorf("expected %s, got %s", MePath, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func decode(t *testing.T, token string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token should be base64: %v", err)
	}
	return string(raw)
}

func TestBridge_ClientPrincipalObject(t *testing.T) {
	server := serve(t, http.StatusOK, `{"clientPrincipal": {"userId": "u1", "userRoles": ["authenticated"]}}`)

	token, err := NewBridge(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decode(t, token); got != `{"userId":"u1","userRoles":["authenticated"]}` {
		t.Errorf("unexpected principal JSON: %s", got)
	}
}

func TestBridge_ArrayForm(t *testing.T) {
	server := serve(t, http.StatusOK, `[{"userId":"u2"}]`)

	token, err := NewBridge(server.URL).Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decode(t, token); got != `{"userId":"u2"}` {
		t.Errorf("unexpected principal JSON: %s", got)
	}
}

func TestBridge_AnonymousVisitor(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"null principal", http.StatusOK, `{"clientPrincipal": null}`},
		{"empty array", http.StatusOK, `[]`},
		{"unauthorized", http.StatusUnauthorized, ``},
		{"garbage", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serve(t, tt.status, tt.body)
			_, err := NewBridge(server.URL).Fetch(context.Background())
			if !errors.Is(err, ErrNoPrincipal) {
				t.Errorf("expected ErrNoPrincipal, got %v", err)
			}
		})
	}
}

func TestBridge_MalformedOriginIsAnonymous(t *testing.T) {
	_, err := NewBridge("http://bad host").Fetch(context.Background())
	if !errors.Is(err, ErrNoPrincipal) {
		t.Errorf("expected ErrNoPrincipal, got %v", err)
	}
}

func TestStorage_SaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	storage := NewStorage(dir)

	if err := storage.Save("cHJpbmNpcGFs"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "principal.json"))
	if err != nil {
		t.Fatalf("principal file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("principal file should be private, got %v", info.Mode().Perm())
	}

	got, err := storage.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != "cHJpbmNpcGFs" {
		t.Errorf("expected stored principal, got %q", got)
	}
}

func TestStorage_LoadMissing(t *testing.T) {
	_, err := NewStorage(t.TempDir()).Load()
	if !errors.Is(err, ErrPrincipalNotFound) {
		t.Errorf("expected ErrPrincipalNotFound, got %v", err)
	}
}

func TestStorage_Clear(t *testing.T) {
	storage := NewStorage(t.TempDir())
	_ = storage.Save("x")

	if err := storage.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := storage.Load(); !errors.Is(err, ErrPrincipalNotFound) {
		t.Errorf("principal should be gone, got %v", err)
	}
	if err := storage.Clear(); err != nil {
		t.Errorf("clearing twice should be fine, got %v", err)
	}
}
