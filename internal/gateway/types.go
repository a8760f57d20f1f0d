// Package gateway provides the authenticated client for the remote video service.
//
// This package enables reelfeed to:
// - List feed pages by cursor, from the feed endpoint or the video listing
// - Report like and follow state changes
// - Read and post comments
package gateway

import (
	"encoding/json"
	"strconv"
	"strings"
)

// VideoSummary is the server's snapshot of one feed item.
type VideoSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	PublisherID string `json:"publisherId"`
	Genre       string `json:"genre"`
	AgeRating   string `json:"ageRating"`
	ThumbURL    string `json:"thumbUrl"`
	MediaURL    string `json:"mediaUrl"`
	Producer    string `json:"producer"`
	LikeCount   int64  `json:"likeCount"`
	Liked       bool   `json:"liked"`
	Following   bool   `json:"following"`
}

// UnmarshalJSON accepts the field names older catalog responses use:
// hlsUrl/blobUrl for the media source, likes for the counter and userId for
// the publisher.
func (v *VideoSummary) UnmarshalJSON(data []byte) error {
	type plain VideoSummary
	var raw struct {
		plain
		HLSURL    string `json:"hlsUrl"`
		BlobURL   string `json:"blobUrl"`
		Likes     *int64 `json:"likes"`
		UserID    string `json:"userId"`
		Thumbnail string `json:"thumbnail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = VideoSummary(raw.plain)
	if v.MediaURL == "" {
		v.MediaURL = firstNonEmpty(raw.HLSURL, raw.BlobURL)
	}
	if v.LikeCount == 0 && raw.Likes != nil {
		v.LikeCount = *raw.Likes
	}
	if v.LikeCount < 0 {
		v.LikeCount = 0
	}
	if v.PublisherID == "" {
		v.PublisherID = raw.UserID
	}
	if v.ThumbURL == "" {
		v.ThumbURL = raw.Thumbnail
	}
	return nil
}

// Page is one listing response.
type Page struct {
	Items []VideoSummary
	// NextCursor is empty when the server did not supply one.
	NextCursor string
}

// Comment is one entry of a video's comment thread.
type Comment struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// Author returns the commenter name, "anon" when absent.
func (c Comment) Author() string {
	if strings.TrimSpace(c.User) == "" {
		return "anon"
	}
	return c.User
}

// User is the signed-in principal as reported by /me.
type User struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// DisplayName prefers the name over the id.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.UserID
}

// Star rating bounds accepted by RateVideo.
const (
	MinStars = 1
	MaxStars = 5
)

// DashboardEntry is one row of the publisher dashboard. Views and RatingAvg
// are nil when the service has not computed them yet.
type DashboardEntry struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	CreatedAt string   `json:"createdAt"`
	Views     *int64   `json:"views"`
	RatingAvg *float64 `json:"ratingAvg"`
}

// CreatedDate returns the calendar date part of CreatedAt.
func (e DashboardEntry) CreatedDate() string {
	if len(e.CreatedAt) > 10 {
		return e.CreatedAt[:10]
	}
	return e.CreatedAt
}

// ViewsText returns the view count, "0" when unknown.
func (e DashboardEntry) ViewsText() string {
	if e.Views == nil {
		return "0"
	}
	return strconv.FormatInt(*e.Views, 10)
}

// RatingText returns the average rating, "—" when nobody has rated.
func (e DashboardEntry) RatingText() string {
	if e.RatingAvg == nil {
		return "—"
	}
	return strconv.FormatFloat(*e.RatingAvg, 'f', -1, 64)
}

// LikeAck is the like endpoint's response. Likes is nil when the server
// did not include an authoritative count.
type LikeAck struct {
	Likes *int64 `json:"likes"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
