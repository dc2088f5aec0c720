package chart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"heartbot/internal/metrics"
	"heartbot/internal/models"
	"heartbot/internal/thingspeak"
)

var (
	// ErrNotFound is returned when the channel is unknown or has no samples.
	ErrNotFound = thingspeak.ErrNotFound
	// ErrInvalidField is returned for a field token outside field1..field5.
	ErrInvalidField = errors.New("chart: invalid field")
	// ErrResize is returned when the rendered image cannot be post-processed.
	ErrResize = errors.New("chart: resize failed")
)

// Fetcher retrieves a channel feed.
type Fetcher interface {
	FetchFeed(ctx context.Context, channelID, readKey string) (*models.Feed, error)
}

// Pipeline fetches a feed, renders one field and resizes the result.
type Pipeline struct {
	fetcher  Fetcher
	renderer *Renderer
	dir      string
	legacy   bool
	newID    func() string
}

// NewPipeline writes artifacts under dir. With legacy set, file names are keyed
// by field label only and concurrent requests for one label share a file.
func NewPipeline(fetcher Fetcher, dir string, legacy bool) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		renderer: NewRenderer(),
		dir:      dir,
		legacy:   legacy,
		newID:    uuid.NewString,
	}
}

// Dir returns the output directory.
func (p *Pipeline) Dir() string { return p.dir }

// RenderField produces the resized chart for one field of a channel.
func (p *Pipeline) RenderField(ctx context.Context, channelID, readKey, fieldName string) (*models.ChartArtifact, error) {
	field, ok := models.LookupField(fieldName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, fieldName)
	}

	start := time.Now()
	defer func() {
		metrics.ChartRenderLatency.WithLabelValues(field.Label).Observe(time.Since(start).Seconds())
	}()

	feed, err := p.fetcher.FetchFeed(ctx, channelID, readKey)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	src, dst := p.paths(field.Label)
	if err := p.renderer.Render(feed.Series(field.Index), field.Label, src); err != nil {
		return nil, err
	}
	if err := Resize(src, dst); err != nil {
		return nil, err
	}

	log.Printf("chart rendered: channel=%s field=%s points=%d file=%s", channelID, field.Name, len(feed.Times), filepath.Base(dst))
	return &models.ChartArtifact{
		Path:   dst,
		Name:   filepath.Base(dst),
		Width:  CanvasWidth,
		Height: CanvasHeight,
	}, nil
}

func (p *Pipeline) paths(label string) (string, string) {
	base := label + "_chart"
	if !p.legacy {
		base += "_" + p.newID()
	}
	return filepath.Join(p.dir, base+".jpg"), filepath.Join(p.dir, base+"_resized.jpg")
}
