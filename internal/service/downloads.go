package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
)

// Download is a transient reference to a compressed result.
type Download struct {
	Token     string      `json:"token"`
	File      domain.File `json:"file"`
	Name      string      `json:"name"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func (d Download) IsExpired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Downloads hands out expiring tokens for in-memory results.
type Downloads struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	items map[string]Download
}

func NewDownloads(ttl time.Duration) *Downloads {
	return &Downloads{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]Download),
	}
}

// Register stores file under a new token. The offered name carries the
// download prefix.
func (d *Downloads) Register(file domain.File) Download {
	dl := Download{
		Token:     uuid.NewString(),
		File:      file,
		Name:      file.DownloadName(""),
		ExpiresAt: d.now().Add(d.ttl),
	}
	d.mu.Lock()
	d.items[dl.Token] = dl
	d.mu.Unlock()
	return dl
}

func (d *Downloads) Get(token string) (Download, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.items[token]
	if !ok {
		return Download{}, domain.ErrNotFound
	}
	if dl.IsExpired(d.now()) {
		delete(d.items, token)
		return Download{}, domain.ErrExpired
	}
	return dl, nil
}

// Revoke drops a token; unknown tokens are ignored.
func (d *Downloads) Revoke(token string) {
	if token == "" {
		return
	}
	d.mu.Lock()
	delete(d.items, token)
	d.mu.Unlock()
}

// Cleanup removes expired entries and returns how many were dropped.
func (d *Downloads) Cleanup() int {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for token, dl := range d.items {
		if dl.IsExpired(now) {
			delete(d.items, token)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (d *Downloads) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := d.Cleanup(); n > 0 {
					logger.Info.Printf("cleanup: released %d expired download(s)", n)
				}
			}
		}
	}()
}
