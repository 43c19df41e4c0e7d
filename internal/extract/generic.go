package extract

import (
	"context"
	"fmt"
	"net/http"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
	"reelhound/internal/quality"
)

// Generic is the fallback for hosts no rule matches. It follows redirects and
// accepts the result only when it lands on a media file.
type Generic struct {
	Redirector httputil.Redirector
}

func (g *Generic) Name() string { return "generic" }

func (g *Generic) Extract(ctx context.Context, embedURL string, header http.Header, label string) media.Outcome {
	final, err := g.Redirector.FinalURL(ctx, embedURL, header)
	if err != nil {
		return hostFailure(httputil.Hostname(embedURL), err)
	}

	if !httputil.IsMediaURL(final) {
		return media.Failed(fmt.Errorf("%w: unresolved host %s", media.ErrHostExtractionFailed, httputil.Hostname(final)))
	}

	q := quality.Classify(final)
	return media.Found(media.Stream{
		URL:     final,
		Label:   streamLabel("Direct Stream", q.String(), label),
		Quality: q,
		Source:  embedURL,
		Headers: playbackHeaders(embedURL, header),
	})
}
