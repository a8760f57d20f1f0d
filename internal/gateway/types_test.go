package gateway

import (
	"encoding/json"
	"testing"
)

func TestVideoSummary_AcceptsLegacyFieldNames(t *testing.T) {
	data := `{"id":"v1","title":"Clip","hlsUrl":"https://cdn.example.com/v1/master.m3u8","likes":7,"userId":"u9"}`

	var v VideoSummary
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.MediaURL != "https://cdn.example.com/v1/master.m3u8" {
		t.Errorf("hlsUrl should become the media URL, got %q", v.MediaURL)
	}
	if v.LikeCount != 7 {
		t.Errorf("likes should become the like count, got %d", v.LikeCount)
	}
	if v.PublisherID != "u9" {
		t.Errorf("userId should become the publisher id, got %q", v.PublisherID)
	}
}

func TestVideoSummary_PrefersHLSOverBlob(t *testing.T) {
	data := `{"id":"v1","hlsUrl":"a.m3u8","blobUrl":"a.mp4"}`

	var v VideoSummary
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.MediaURL != "a.m3u8" {
		t.Errorf("expected adaptive source first, got %q", v.MediaURL)
	}
}

func TestVideoSummary_ClampsNegativeLikeCount(t *testing.T) {
	var v VideoSummary
	if err := json.Unmarshal([]byte(`{"id":"v1","likeCount":-4}`), &v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.LikeCount != 0 {
		t.Errorf("like count should never be negative, got %d", v.LikeCount)
	}
}

func TestComment_AnonymousAuthor(t *testing.T) {
	if got := (Comment{Text: "hi"}).Author(); got != "anon" {
		t.Errorf("expected anon, got %q", got)
	}
}
