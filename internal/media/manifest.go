package media

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrNotManifest is returned when a playlist lacks the #EXTM3U header.
var ErrNotManifest = errors.New("not an HLS playlist")

// Variant is one quality rendition advertised by a master playlist.
type Variant struct {
	URI        string
	Bandwidth  int64
	Resolution string
	Codecs     string
}

// Manifest is the parsed form of an HLS playlist.
type Manifest struct {
	// Master is true when the playlist lists variant streams.
	Master   bool
	Variants []Variant
	// TargetDuration is the media playlist's segment target, in seconds.
	TargetDuration int
}

// ParseManifest parses an HLS playlist. Relative variant URIs resolve against base.
func ParseManifest(playlist string, base *url.URL) (*Manifest, error) {
	scanner := bufio.NewScanner(strings.NewReader(playlist))
	m := &Manifest{}

	var (
		sawHeader bool
		pending   *Variant
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !sawHeader {
			if line != "#EXTM3U" {
				return nil, ErrNotManifest
			}
			sawHeader = true
			continue
		}

		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
			attrs := parseAttributes(strings.TrimPrefix(line, "#EXT-X-STREAM-INF:"))
			v := Variant{
				Resolution: attrs["RESOLUTION"],
				Codecs:     attrs["CODECS"],
			}
			if bw, err := strconv.ParseInt(attrs["BANDWIDTH"], 10, 64); err == nil {
				v.Bandwidth = bw
			}
			pending = &v
			m.Master = true
		case strings.HasPrefix(line, "#EXT-X-TARGETDURATION:"):
			if d, err := strconv.Atoi(strings.TrimPrefix(line, "#EXT-X-TARGETDURATION:")); err == nil {
				m.TargetDuration = d
			}
		case strings.HasPrefix(line, "#"):
			continue
		case pending != nil:
			pending.URI = resolve(base, line)
			m.Variants = append(m.Variants, *pending)
			pending = nil
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	if !sawHeader {
		return nil, ErrNotManifest
	}

	return m, nil
}

// parseAttributes splits an attribute list, honouring quoted values.
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	var (
		key, val strings.Builder
		inKey    = true
		quoted   bool
	)
	flush := func() {
		if k := strings.TrimSpace(key.String()); k != "" {
			attrs[k] = strings.Trim(strings.TrimSpace(val.String()), `"`)
		}
		key.Reset()
		val.Reset()
		inKey = true
	}

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			val.WriteRune(r)
		case r == ',' && !quoted:
			flush()
		case r == '=' && inKey:
			inKey = false
		case inKey:
			key.WriteRune(r)
		default:
			val.WriteRune(r)
		}
	}
	flush()
	return attrs
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
