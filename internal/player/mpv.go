package player

import (
	"context"

	"reelhound/internal/media"
)

// MPV implements the Player interface for mpv.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return available("mpv") }

// Play launches mpv with the stream's playback headers.
func (m *MPV) Play(ctx context.Context, stream media.Stream, title string) error {
	if err := checkPlayable(stream); err != nil {
		return err
	}
	return run(ctx, "mpv", mpvArgs(stream, title))
}

// mpvArgs builds the mpv command line. iina and celluloid accept the same flags.
func mpvArgs(stream media.Stream, title string) []string {
	args := []string{
		stream.URL,
		"--force-media-title=" + title,
		"--really-quiet",
	}
	referer, ua := requestHeaders(stream.Headers)
	if referer != "" {
		args = append(args, "--referrer="+referer)
	}
	if ua != "" {
		args = append(args, "--user-agent="+ua)
	}
	return args
}
