package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSurface struct {
	source string
	plays  int
}

func (s *fakeSurface) SetSource(url string) { s.source = url }
func (s *fakeSurface) Play() error         { s.plays++; return nil }
func (s *fakeSurface) Pause()              {}

type fakeSession struct {
	bound  Surface
	closed bool
}

func (s *fakeSession) Bind(surface Surface) error { s.bound = surface; return nil }
func (s *fakeSession) Close() error               { s.closed = true; return nil }

type fakeEngine struct {
	supported bool
	err       error
	policies  []BufferPolicy
	sessions  []*fakeSession
}

func (e *fakeEngine) Supported() bool { return e.supported }

func (e *fakeEngine) NewSession(_ context.Context, _ string, policy BufferPolicy) (Session, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.policies = append(e.policies, policy)
	s := &fakeSession{}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func TestAttach_EmptySourceIsNoOp(t *testing.T) {
	engine := &fakeEngine{supported: true}
	surface := &fakeSurface{source: "keep"}

	require.NoError(t, NewAttacher(engine).Attach(context.Background(), surface, ""))

	assert.Equal(t, "keep", surface.source)
	assert.Empty(t, engine.sessions)
}

func TestAttach_DirectFileUsesNativePlayback(t *testing.T) {
	engine := &fakeEngine{supported: true}
	surface := &fakeSurface{}

	require.NoError(t, NewAttacher(engine).Attach(context.Background(), surface, "https://cdn.example.com/v1.mp4"))

	assert.Equal(t, "https://cdn.example.com/v1.mp4", surface.source)
	assert.Empty(t, engine.sessions)
	assert.Zero(t, surface.plays, "attaching must not start playback")
}

func TestAttach_ManifestUsesBoundedAdaptiveSession(t *testing.T) {
	engine := &fakeEngine{supported: true}
	surface := &fakeSurface{}
	a := NewAttacher(engine)

	require.NoError(t, a.Attach(context.Background(), surface, "https://cdn.example.com/v1/master.M3U8?sig=abc"))

	require.Len(t, engine.sessions, 1)
	assert.Same(t, surface, engine.sessions[0].bound)
	assert.Equal(t, DefaultBufferPolicy, engine.policies[0])
	assert.Empty(t, surface.source, "adaptive sessions own the source")
	assert.Zero(t, surface.plays)

	_, ok := a.SessionFor(surface)
	assert.True(t, ok)
}

func TestAttach_ManifestFallsBackToNativeWithoutEngineSupport(t *testing.T) {
	for name, engine := range map[string]AdaptiveEngine{
		"nil engine":  nil,
		"unsupported": &fakeEngine{supported: false},
	} {
		t.Run(name, func(t *testing.T) {
			surface := &fakeSurface{}
			require.NoError(t, NewAttacher(engine).Attach(context.Background(), surface, "https://cdn.example.com/v1.m3u8"))
			assert.Equal(t, "https://cdn.example.com/v1.m3u8", surface.source)
		})
	}
}

func TestAttach_ReattachClosesPreviousSession(t *testing.T) {
	engine := &fakeEngine{supported: true}
	surface := &fakeSurface{}
	a := NewAttacher(engine)

	require.NoError(t, a.Attach(context.Background(), surface, "a.m3u8"))
	require.NoError(t, a.Attach(context.Background(), surface, "b.m3u8"))

	require.Len(t, engine.sessions, 2)
	assert.True(t, engine.sessions[0].closed)
	assert.False(t, engine.sessions[1].closed)
}

func TestDetach_ReleasesAdaptiveSession(t *testing.T) {
	engine := &fakeEngine{supported: true}
	surface := &fakeSurface{}
	a := NewAttacher(engine)
	require.NoError(t, a.Attach(context.Background(), surface, "a.m3u8"))

	a.Detach(surface)

	assert.True(t, engine.sessions[0].closed)
	_, ok := a.SessionFor(surface)
	assert.False(t, ok)
}

func TestAttach_SessionFailureIsReported(t *testing.T) {
	engine := &fakeEngine{supported: true, err: errors.New("boom")}

	err := NewAttacher(engine).Attach(context.Background(), &fakeSurface{}, "a.m3u8")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestIsAdaptive(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/v/master.m3u8":          true,
		"https://cdn.example.com/v/master.m3u8?token=1":  true,
		"https://cdn.example.com/v/MASTER.M3U8":          true,
		"https://cdn.example.com/v/clip.mp4":             false,
		"https://cdn.example.com/m3u8/clip.mp4":          false,
		"https://cdn.example.com/v/clip.mp4?x=list.m3u8": false,
		"relative/playlist.m3u8":                         true,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsAdaptive(in), in)
	}
}
