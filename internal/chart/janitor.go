package chart

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"heartbot/internal/metrics"
)

var scopedName = regexp.MustCompile(`^[A-Za-z_]+_chart_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(_resized)?\.jpg$`)

// Sweep deletes request-scoped chart files older than maxAge.
// Label-keyed legacy files are never touched.
func (p *Pipeline) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !scopedName.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			log.Printf("janitor: remove %s: %v", e.Name(), err)
			continue
		}
		removed++
	}
	metrics.ArtifactsRemoved.Add(float64(removed))
	return removed, nil
}

// RunJanitor sweeps the chart directory every interval until ctx is done.
func (p *Pipeline) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.Sweep(maxAge, now)
			if err != nil {
				log.Printf("janitor: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("janitor: removed %d expired chart files", n)
			}
		}
	}
}
