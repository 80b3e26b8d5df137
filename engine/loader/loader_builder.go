package loader

import (
	"net/http"

	"github.com/anthonynsimon/bild/transform"
)

// LoaderBuilderOption is a functional option for configuring a TileLoader via NewTileLoader.
type LoaderBuilderOption func(*loader)

// WithHTTPClient is an option builder that sets the client used for http(s) locators.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithWorkers is an option builder that sets the number of concurrent decode workers.
//
// Parameters:
//   - n: the worker count, values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithTileEdge is an option builder that resamples every tile to an edge x edge square.
// Zero keeps the decoded size.
//
// Parameters:
//   - edge: the edge length in pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the edge option to a loader
func WithTileEdge(edge int) LoaderBuilderOption {
	return func(l *loader) {
		if edge >= 0 {
			l.edge = edge
		}
	}
}

// WithResampleFilter is an option builder that sets the filter used by WithTileEdge.
// Defaults to transform.Linear.
//
// Parameters:
//   - filter: the resample filter
//
// Returns:
//   - LoaderBuilderOption: a function that applies the filter option to a loader
func WithResampleFilter(filter transform.ResampleFilter) LoaderBuilderOption {
	return func(l *loader) {
		l.filter = filter
	}
}
