// Package identity obtains the signed-in principal from the hosting site and
// keeps it between CLI invocations.
package identity

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoPrincipal means the visitor is not signed in; requests go out anonymously.
var ErrNoPrincipal = errors.New("no signed-in principal")

// ErrPrincipalNotFound means no principal has been stored yet.
var ErrPrincipalNotFound = errors.New("principal not found")

// MePath is where the hosting site reports the signed-in principal.
const MePath = "/.auth/me"

// HTTPClient is the subset of *http.Client the bridge needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Bridge asks the hosting site who the visitor is.
type Bridge struct {
	origin     string
	httpClient HTTPClient
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithHTTPClient sets the HTTP client used for the identity request.
func WithHTTPClient(client HTTPClient) BridgeOption {
	return func(b *Bridge) { b.httpClient = client }
}

// NewBridge creates a Bridge for origin using http.DefaultClient.
func NewBridge(origin string, opts ...BridgeOption) *Bridge {
	b := &Bridge{origin: strings.TrimRight(origin, "/"), httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fetch returns the opaque principal token: the base64 of the principal's
// JSON document. Any failure yields ErrNoPrincipal.
func (b *Bridge) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.origin+MePath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrNoPrincipal, err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPrincipal, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrNoPrincipal, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPrincipal, err)
	}

	principal, err := extractPrincipal(body)
	if err != nil {
		return "", err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, principal); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoPrincipal, err)
	}
	return base64.StdEncoding.EncodeToString(compact.Bytes()), nil
}

// extractPrincipal accepts either an array whose first element is the
// principal or an object with a clientPrincipal field.
func extractPrincipal(body []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoPrincipal, err)
		}
		if len(list) == 0 || isNull(list[0]) {
			return nil, ErrNoPrincipal
		}
		return list[0], nil
	}

	var doc struct {
		ClientPrincipal json.RawMessage `json:"clientPrincipal"`
	}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPrincipal, err)
	}
	if isNull(doc.ClientPrincipal) {
		return nil, ErrNoPrincipal
	}
	return doc.ClientPrincipal, nil
}

func isNull(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "" || s == "null"
}

// Storage keeps the principal token on disk.
type Storage struct {
	dir string
}

// NewStorage creates a Storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

type storedPrincipal struct {
	Principal string `json:"principal"`
}

func (s *Storage) path() string {
	return filepath.Join(s.dir, "principal.json")
}

// Save writes the principal with owner-only permissions.
func (s *Storage) Save(principal string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(storedPrincipal{Principal: principal})
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}

	return os.WriteFile(s.path(), data, 0600)
}

// Load returns the stored principal, or ErrPrincipalNotFound.
func (s *Storage) Load() (string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrPrincipalNotFound
		}
		return "", fmt.Errorf("failed to read principal: %w", err)
	}

	var stored storedPrincipal
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("failed to unmarshal principal: %w", err)
	}
	if stored.Principal == "" {
		return "", ErrPrincipalNotFound
	}

	return stored.Principal, nil
}

// Clear removes the stored principal. A missing file is not an error.
func (s *Storage) Clear() error {
	if err := os.Remove(s.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove principal: %w", err)
	}
	return nil
}
