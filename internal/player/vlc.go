package player

import (
	"context"

	"reelhound/internal/media"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return available("vlc") }

// Play launches VLC. VLC exits non-zero when the user closes it.
func (v *VLC) Play(ctx context.Context, stream media.Stream, title string) error {
	if err := checkPlayable(stream); err != nil {
		return err
	}
	return run(ctx, "vlc", vlcArgs(stream, title))
}

func vlcArgs(stream media.Stream, title string) []string {
	args := []string{
		stream.URL,
		"--meta-title", title,
		"--play-and-exit",
	}
	referer, ua := requestHeaders(stream.Headers)
	if referer != "" {
		args = append(args, "--http-referrer="+referer)
	}
	if ua != "" {
		args = append(args, "--http-user-agent="+ua)
	}
	return args
}
