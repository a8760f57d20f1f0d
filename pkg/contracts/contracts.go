// Package contracts holds sample payloads of the video service and the
// identity endpoint. Client tests replay them to catch drift between what
// the service sends and what reelfeed decodes.
package contracts

// FeedPageContract is a /feed page in the envelope form.
const FeedPageContract = `{
  "items": [
    {
      "id": "vid-001",
      "title": "Morning ferry",
      "publisher": "harbourcam",
      "publisherId": "user-17",
      "genre": "Travel",
      "ageRating": "PG",
      "thumbUrl": "https://cdn.example/thumbs/vid-001.jpg",
      "mediaUrl": "https://cdn.example/hls/vid-001/master.m3u8",
      "likeCount": 42,
      "liked": true,
      "following": false
    }
  ],
  "nextCursor": "vid-001"
}`

// VideoListContract is a /videos page as older deployments return it: a
// bare array with the legacy field names.
const VideoListContract = `[
  {
    "id": "vid-002",
    "title": "Night market",
    "publisher": "streetfood",
    "userId": "user-23",
    "thumbnail": "https://cdn.example/thumbs/vid-002.jpg",
    "blobUrl": "https://cdn.example/blob/vid-002.mp4",
    "likes": 5
  }
]`

// CommentsContract is a /videos/{id}/comments response.
const CommentsContract = `[
  {"user": "mika", "text": "Where is this?"},
  {"user": null, "text": "Lovely light"}
]`

// LikeAckContract is a like acknowledgement carrying the new count.
const LikeAckContract = `{"likes": 43}`

// IdentityContract is the identity endpoint's answer for a signed-in visitor.
const IdentityContract = `{
  "clientPrincipal": {
    "identityProvider": "github",
    "userId": "user-17",
    "userDetails": "harbourcam",
    "userRoles": ["anonymous", "authenticated"]
  }
}`

// AnonymousIdentityContract is the identity endpoint's answer for a visitor
// who has not signed in.
const AnonymousIdentityContract = `{"clientPrincipal": null}`
