package card

import "html/template"

type cardData struct {
	ID          string
	Title       string
	Publisher   string
	PublisherID string
	Genre       string
	AgeRating   string
	Producer    string
	ThumbURL    string
	MediaURL    string
	Adaptive    bool
	Liked       bool
	LikeCount   int64
	Following   bool
	WatchURL    string
}

var cardTemplate = template.Must(template.New("card").Parse(`<article class="video-card" data-id="{{.ID}}">
  <video class="player" playsinline muted loop preload="metadata" poster="{{.ThumbURL}}" data-src="{{.MediaURL}}" data-adaptive="{{.Adaptive}}"></video>
  <header>
    <h2><a href="{{.WatchURL}}">{{.Title}}</a></h2>
    <p class="meta">{{.Publisher}} • {{.Genre}} • {{.AgeRating}}</p>
    {{- if .Producer}}
    <p class="producer">Produced by {{.Producer}}</p>
    {{- end}}
  </header>
  <footer class="actions">
    <button class="like{{if .Liked}} active{{end}}" data-action="like" aria-pressed="{{.Liked}}"><span class="count">{{.LikeCount}}</span></button>
    <button class="follow{{if .Following}} active{{end}}" data-action="follow" data-user="{{.PublisherID}}">{{if .Following}}Following{{else}}Follow{{end}}</button>
    <button class="comments" data-action="comments">Comments</button>
    <button class="share" data-action="share" data-link="{{.WatchURL}}">Share</button>
  </footer>
</article>
`))

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<main id="feed">
{{- if .Message}}
<p class="muted">{{.Message}}</p>
{{- end}}
{{- range .Cards}}
{{.}}
{{- end}}
</main>
</body>
</html>
`))
