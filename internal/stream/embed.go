// Package stream turns broadcast links into embeddable player URLs.
package stream

import (
	"errors"
	"net/url"
	"strings"
)

type Kind string

const (
	KindNone    Kind = ""
	KindYouTube Kind = "youtube"
	KindTwitch  Kind = "twitch"
	KindVideo   Kind = "video"
	KindIframe  Kind = "iframe"
)

var ErrInvalidURL = errors.New("stream url must be an absolute http(s) url")

type Embed struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url"`
}

// Normalize parses raw and returns its embeddable form. An empty link yields
// KindNone. parent is the host the Twitch player will be embedded on.
func Normalize(raw, parent string) (Embed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Embed{Kind: KindNone}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Embed{}, ErrInvalidURL
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	switch host {
	case "youtube.com", "m.youtube.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			return Embed{Kind: KindYouTube, URL: raw}, nil
		}
		if id := u.Query().Get("v"); id != "" {
			return youtube(id), nil
		}
		if id, ok := strings.CutPrefix(u.Path, "/live/"); ok && id != "" {
			return youtube(id), nil
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return youtube(id), nil
		}
	case "twitch.tv", "m.twitch.tv":
		if channel := strings.Trim(u.Path, "/"); channel != "" && !strings.Contains(channel, "/") {
			return twitch(channel, parent), nil
		}
	case "player.twitch.tv":
		return Embed{Kind: KindTwitch, URL: raw}, nil
	}

	lower := strings.ToLower(u.Path)
	for _, ext := range []string{".mp4", ".webm", ".ogg", ".mov", ".m3u8"} {
		if strings.HasSuffix(lower, ext) {
			return Embed{Kind: KindVideo, URL: raw}, nil
		}
	}

	// Anything else is framed as-is.
	return Embed{Kind: KindIframe, URL: raw}, nil
}

func youtube(id string) Embed {
	return Embed{Kind: KindYouTube, URL: "https://www.youtube.com/embed/" + url.PathEscape(id)}
}

func twitch(channel, parent string) Embed {
	q := url.Values{}
	q.Set("channel", channel)
	if parent != "" {
		q.Set("parent", parent)
	}
	return Embed{Kind: KindTwitch, URL: "https://player.twitch.tv/?" + q.Encode()}
}
