// Package player launches external media players for a resolved stream.
// All player invocations use exec.CommandContext with explicit argument
// slices; nothing is passed through a shell.
package player

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"

	"reelhound/internal/media"
)

// Player is the interface for media player implementations.
type Player interface {
	// Play blocks until the player exits.
	Play(ctx context.Context, stream media.Stream, title string) error

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{}
	}
}

// requestHeaders returns the Referer and User-Agent a host expects on playback.
func requestHeaders(h http.Header) (referer, userAgent string) {
	if h == nil {
		return "", ""
	}
	return h.Get("Referer"), h.Get("User-Agent")
}

func available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// run starts bin and waits for it. A non-zero exit is treated as the user
// closing the player.
func run(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return nil
		}
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}

func checkPlayable(stream media.Stream) error {
	if !stream.Playable() {
		return fmt.Errorf("%w: %s", media.ErrNoPlayableStream, stream.Label)
	}
	return nil
}
