package comments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gauthierbraillon/reelfeed/internal/gateway"
	"github.com/gauthierbraillon/reelfeed/internal/log"
)

type fakeAPI struct {
	threads map[string][]gateway.Comment
	listErr error
	postErr error
	posted  []string
}

func (f *fakeAPI) ListComments(_ context.Context, videoID string) ([]gateway.Comment, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.threads[videoID], nil
}

func (f *fakeAPI) PostComment(_ context.Context, videoID, text string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, text)
	f.threads[videoID] = append(f.threads[videoID], gateway.Comment{User: "me", Text: text})
	return nil
}

func TestPanel_OpenLoadsThread(t *testing.T) {
	api := &fakeAPI{threads: map[string][]gateway.Comment{"v1": {{User: "ada", Text: "first"}}}}
	p := NewPanel(api, log.Nop())

	view := p.Open(context.Background(), "v1")

	assert.Equal(t, "v1", view.VideoID)
	assert.Len(t, view.Comments, 1)
	assert.False(t, view.Unavailable)
	_, open := p.Current()
	assert.True(t, open)
}

func TestPanel_LoadFailureShowsEmptyThread(t *testing.T) {
	p := NewPanel(&fakeAPI{listErr: errors.New("down")}, log.Nop())

	view := p.Open(context.Background(), "v1")

	assert.True(t, view.Unavailable)
	assert.NotNil(t, view.Comments)
	assert.Empty(t, view.Comments)
}

func TestPanel_PostReloadsThread(t *testing.T) {
	api := &fakeAPI{threads: map[string][]gateway.Comment{}}
	p := NewPanel(api, log.Nop())
	p.Open(context.Background(), "v1")

	view, err := p.Post(context.Background(), "  great clip  ")

	require.NoError(t, err)
	assert.Equal(t, []string{"great clip"}, api.posted)
	require.Len(t, view.Comments, 1)
	assert.Equal(t, "great clip", view.Comments[0].Text)
}

func TestPanel_BlankPostSendsNothing(t *testing.T) {
	api := &fakeAPI{threads: map[string][]gateway.Comment{}}
	p := NewPanel(api, log.Nop())
	p.Open(context.Background(), "v1")

	_, err := p.Post(context.Background(), "   ")

	require.NoError(t, err)
	assert.Empty(t, api.posted)
}

func TestPanel_PostFailureIsSurfaced(t *testing.T) {
	api := &fakeAPI{
		threads: map[string][]gateway.Comment{},
		postErr: &gateway.RequestFailed{Status: 401, Message: "sign in to comment"},
	}
	p := NewPanel(api, log.Nop())
	p.Open(context.Background(), "v1")

	_, err := p.Post(context.Background(), "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign in to comment")
	var rf *gateway.RequestFailed
	assert.ErrorAs(t, err, &rf)
}

func TestPanel_PostRequiresOpenPanel(t *testing.T) {
	p := NewPanel(&fakeAPI{}, log.Nop())

	_, err := p.Post(context.Background(), "hello")

	assert.ErrorIs(t, err, ErrNotOpen)
}
