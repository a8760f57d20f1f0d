package contracts

import (
	"encoding/json"
	"testing"
)

// TestContracts_ValidJSON guards the fixtures themselves.
func TestContracts_ValidJSON(t *testing.T) {
	contracts := map[string]string{
		"FeedPage":          FeedPageContract,
		"VideoList":         VideoListContract,
		"Comments":          CommentsContract,
		"LikeAck":           LikeAckContract,
		"Identity":          IdentityContract,
		"AnonymousIdentity": AnonymousIdentityContract,
	}

	for name, contract := range contracts {
		t.Run(name, func(t *testing.T) {
			if !json.Valid([]byte(contract)) {
				t.Errorf("%s contract is not valid JSON", name)
			}
		})
	}
}

// TestFeedPageContract_CarriesEveryCardField verifies the feed fixture
// exercises every field a card shows.
func TestFeedPageContract_CarriesEveryCardField(t *testing.T) {
	var page struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(FeedPageContract), &page); err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatal("feed contract has no items")
	}

	for _, field := range []string{"id", "title", "publisher", "publisherId", "genre", "ageRating", "thumbUrl", "mediaUrl", "likeCount", "liked", "following"} {
		if _, ok := page.Items[0][field]; !ok {
			t.Errorf("feed item is missing %q", field)
		}
	}
}
