//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ytget/ytdl"
)

func TestE2E_GetVideo(t *testing.T) {
	if os.Getenv("YTDL_E2E") == "" {
		t.Skip("YTDL_E2E not set")
	}
	url := os.Getenv("YTDL_E2E_URL")
	if url == "" {
		url = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	video, err := ytdl.New().GetVideo(ctx, url)
	if err != nil {
		t.Fatalf("e2e get video failed: %v", err)
	}
	playable := 0
	for _, f := range video.Formats {
		if f.URL != "" {
			playable++
		} else {
			t.Logf("itag %d not resolved: %s", f.Itag, f.Err)
		}
	}
	if playable == 0 {
		t.Fatalf("no playable source among %d", len(video.Formats))
	}
	t.Logf("%s: %d/%d sources playable, player %s", video.Title, playable, len(video.Formats), video.PlayerURL)
}
