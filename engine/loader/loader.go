package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-panorama/common"
	"github.com/anthonynsimon/bild/transform"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedScheme is returned for locators that are neither file paths nor http(s) URLs.
var ErrUnsupportedScheme = errors.New("loader: unsupported locator scheme")

// loader is the implementation of the TileLoader interface.
type loader struct {
	mu sync.Mutex

	client  *http.Client
	workers int
	edge    int
	filter  transform.ResampleFilter

	pool worker.DynamicWorkerPool
}

// TileLoader decodes panorama tiles from file paths or http(s) URLs into RGBA staging data.
// Tiles are fetched and decoded concurrently on a worker pool.
type TileLoader interface {
	// Load decodes every locator and returns the tiles in the same order.
	// Every failing tile is reported; no partial result is returned.
	//
	// Parameters:
	//   - ctx: cancels outstanding fetches
	//   - locators: file paths, file:// URLs or http(s) URLs
	//
	// Returns:
	//   - []common.TextureStagingData: one decoded tile per locator
	//   - error: the joined errors of all failing tiles
	Load(ctx context.Context, locators []string) ([]common.TextureStagingData, error)

	// Close stops the worker pool.
	Close()
}

var _ TileLoader = &loader{}

// NewTileLoader creates a new TileLoader with the given options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the loader
//
// Returns:
//   - TileLoader: the new loader
func NewTileLoader(options ...LoaderBuilderOption) TileLoader {
	l := &loader{
		client:  &http.Client{Timeout: 30 * time.Second},
		workers: max(runtime.NumCPU()-1, 1),
		filter:  transform.Linear,
	}
	for _, option := range options {
		option(l)
	}

	// Queue size of 256 leaves room for several panoramas loading at once.
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

func (l *loader) Load(ctx context.Context, locators []string) ([]common.TextureStagingData, error) {
	l.mu.Lock()
	pool := l.pool
	l.mu.Unlock()
	if pool == nil {
		return nil, errors.New("loader: closed")
	}

	tiles := make([]common.TextureStagingData, len(locators))
	errs := make([]error, len(locators))

	// A WaitGroup is the per-call barrier; pool.Wait() waits for the whole pool.
	var wg sync.WaitGroup
	for i, locator := range locators {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: locator,
			Do: func() (any, error) {
				defer wg.Done()
				tile, err := l.loadTile(ctx, locator)
				if err != nil {
					errs[i] = fmt.Errorf("tile %d (%s): %w", i, locator, err)
					return nil, errs[i]
				}
				tiles[i] = tile
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tiles, nil
}

func (l *loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pool != nil {
		l.pool.Stop()
		l.pool = nil
	}
}

// loadTile fetches, decodes and optionally resamples a single tile.
func (l *loader) loadTile(ctx context.Context, locator string) (common.TextureStagingData, error) {
	if err := ctx.Err(); err != nil {
		return common.TextureStagingData{}, err
	}

	rc, err := l.open(ctx, locator)
	if err != nil {
		return common.TextureStagingData{}, err
	}
	defer rc.Close()

	img, err := decode(rc)
	if err != nil {
		return common.TextureStagingData{}, err
	}

	if l.edge > 0 {
		b := img.Bounds()
		if b.Dx() != l.edge || b.Dy() != l.edge {
			img = transform.Resize(img, l.edge, l.edge, l.filter)
		}
	}
	return common.ImageToStaging(locator, img), nil
}

// open resolves a locator to a reader.
func (l *loader) open(ctx context.Context, locator string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	case strings.HasPrefix(locator, "file://"):
		return os.Open(strings.TrimPrefix(locator, "file://"))
	case strings.Contains(locator, "://"):
		return nil, ErrUnsupportedScheme
	default:
		return os.Open(locator)
	}
}

// decode decodes any registered image format.
func decode(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("decode: empty %s image", format)
	}
	return img, nil
}
