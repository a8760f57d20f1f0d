package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
)

// maxManifestBytes caps how much of a playlist is read.
const maxManifestBytes = 1 << 20

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HeadlessEngine is an adaptive engine for runtimes without a video decoder:
// it loads and parses the manifest so callers can inspect the renditions, and
// hands the surface the manifest URL.
type HeadlessEngine struct {
	httpClient HTTPClient
}

// NewHeadlessEngine creates a HeadlessEngine. A nil client uses http.DefaultClient.
func NewHeadlessEngine(httpClient HTTPClient) *HeadlessEngine {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HeadlessEngine{httpClient: httpClient}
}

// Supported always reports true.
func (e *HeadlessEngine) Supported() bool { return true }

// NewSession fetches and parses the manifest.
func (e *HeadlessEngine) NewSession(ctx context.Context, manifestURL string, policy BufferPolicy) (Session, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest, err := ParseManifest(string(body), base)
	if err != nil {
		return nil, err
	}

	return &HeadlessSession{
		manifestURL: manifestURL,
		policy:      policy,
		manifest:    manifest,
	}, nil
}

// HeadlessSession is the session produced by HeadlessEngine.
type HeadlessSession struct {
	manifestURL string
	policy      BufferPolicy
	manifest    *Manifest

	mu      sync.Mutex
	surface Surface
	closed  bool
}

// Bind points the surface at the manifest.
func (s *HeadlessSession) Bind(surface Surface) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.surface = surface
	surface.SetSource(s.manifestURL)
	return nil
}

// Close releases the surface.
func (s *HeadlessSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.surface = nil
	return nil
}

// Closed reports whether Close has been called.
func (s *HeadlessSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Policy returns the buffer bounds the session was created with.
func (s *HeadlessSession) Policy() BufferPolicy { return s.policy }

// Variants returns the renditions sorted by descending bandwidth.
func (s *HeadlessSession) Variants() []Variant {
	out := append([]Variant(nil), s.manifest.Variants...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Bandwidth > out[j].Bandwidth })
	return out
}
