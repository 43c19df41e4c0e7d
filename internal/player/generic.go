package player

import (
	"context"

	"reelhound/internal/media"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool { return available(g.name) }

func (g *Generic) Play(ctx context.Context, stream media.Stream, title string) error {
	if err := checkPlayable(stream); err != nil {
		return err
	}
	return run(ctx, g.name, mpvArgs(stream, title))
}
