package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/reelfeed/internal/gateway"
)

func TestScrollMetrics_NearEnd(t *testing.T) {
	tests := []struct {
		name string
		m    ScrollMetrics
		want bool
	}{
		{"top of long feed", ScrollMetrics{ScrollTop: 0, ViewportHeight: 800, ContentHeight: 8000}, false},
		{"exactly at threshold", ScrollMetrics{ScrollTop: 6400, ViewportHeight: 800, ContentHeight: 8000}, false},
		{"inside threshold", ScrollMetrics{ScrollTop: 6500, ViewportHeight: 800, ContentHeight: 8000}, true},
		{"content shorter than viewport", ScrollMetrics{ViewportHeight: 800, ContentHeight: 300}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.NearEnd())
		})
	}
}

func TestOnScroll_FarFromEndDoesNotFetch(t *testing.T) {
	lister := &scriptedLister{feed: []*gateway.Page{page("c1", "v1")}}
	pager, _ := newTestPager(lister)

	res, err := pager.OnScroll(context.Background(), ScrollMetrics{ViewportHeight: 800, ContentHeight: 10000})

	require.NoError(t, err)
	assert.False(t, res.Triggered)
	assert.Empty(t, lister.recorded())
}

func TestSession_StartsIdleAtStartOfFeed(t *testing.T) {
	s := NewSession()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Cursor())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "idle", s.State().String())
}

func TestSession_BeginRefusesWhileFetchingOrExhausted(t *testing.T) {
	s := NewSession()

	_, ok := s.begin()
	require.True(t, ok)
	_, ok = s.begin()
	assert.False(t, ok, "a second fetch must not start while one is in flight")

	s.exhaust()
	_, ok = s.begin()
	assert.False(t, ok)
}
