// Package httpfetch resolves engine artifacts from an http(s) or file
// base location into a local cache directory.
package httpfetch

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/crypto/blake2b"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/port"
)

var (
	ErrUnknownArtifact = errors.New("unknown artifact kind")
	ErrUnsupportedURL  = errors.New("unsupported artifact url scheme")
)

const lockRetryDelay = 100 * time.Millisecond

type Config struct {
	BaseURL     string
	RuntimeName string
	PayloadName string
	CacheDir    string
	Client      *http.Client
}

type Fetcher struct {
	base     *url.URL
	names    map[domain.ArtifactKind]string
	cacheDir string
	cache    port.ArtifactCache
	client   *http.Client
}

// NewFetcher validates cfg. cache may be nil, in which case every Fetch
// downloads again.
func NewFetcher(cfg Config, cache port.ArtifactCache) (*Fetcher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch base.Scheme {
	case "http", "https", "file":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, base.Scheme)
	}
	if cfg.RuntimeName == "" || cfg.PayloadName == "" {
		return nil, fmt.Errorf("artifact names must not be empty")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Fetcher{
		base: base,
		names: map[domain.ArtifactKind]string{
			domain.ArtifactRuntime: cfg.RuntimeName,
			domain.ArtifactPayload: cfg.PayloadName,
		},
		cacheDir: cfg.CacheDir,
		cache:    cache,
		client:   client,
	}, nil
}

// Fetch returns the local path of the artifact, downloading it unless the
// cache manifest holds an intact copy from the same source.
func (f *Fetcher) Fetch(ctx context.Context, kind domain.ArtifactKind) (string, error) {
	name, ok := f.names[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownArtifact, kind)
	}
	source := f.base.JoinPath(name)
	dest := filepath.Join(f.cacheDir, filepath.Base(name))

	lock := flock.New(filepath.Join(f.cacheDir, "."+string(kind)+".lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("lock artifact cache: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("lock artifact cache: not acquired")
	}
	defer func() { _ = lock.Unlock() }()

	if f.cached(ctx, kind, source.String(), dest) {
		logger.Debug.Printf("artifact %s served from cache: %s", kind, dest)
		return dest, nil
	}

	size, digest, err := f.download(ctx, source, dest)
	if err != nil {
		return "", fmt.Errorf("fetch %s artifact from %s: %w", kind, source.Redacted(), err)
	}
	logger.Info.Printf("fetched %s artifact %s (%d bytes)", kind, source.Redacted(), size)

	if f.cache != nil {
		rec := &domain.ArtifactRecord{
			Kind:      kind,
			SourceURL: source.String(),
			Path:      dest,
			Digest:    digest,
			Size:      size,
			FetchedAt: time.Now().UTC(),
		}
		if err := f.cache.SaveArtifact(ctx, rec); err != nil {
			logger.Warn.Printf("record %s artifact: %v", kind, err)
		}
	}
	return dest, nil
}

func (f *Fetcher) cached(ctx context.Context, kind domain.ArtifactKind, source, dest string) bool {
	if f.cache == nil {
		return false
	}
	rec, err := f.cache.GetArtifact(ctx, kind)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn.Printf("read artifact manifest: %v", err)
		}
		return false
	}
	if rec.SourceURL != source || rec.Path != dest {
		return false
	}
	digest, err := fileDigest(dest)
	if err != nil {
		return false
	}
	return digest == rec.Digest
}

func (f *Fetcher) download(ctx context.Context, source *url.URL, dest string) (int64, string, error) {
	body, err := f.open(ctx, source)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = body.Close() }()

	tmp, err := os.CreateTemp(f.cacheDir, ".download-*")
	if err != nil {
		return 0, "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	h := newHash()
	size, err := io.Copy(io.MultiWriter(tmp, h), body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, "", fmt.Errorf("write artifact: %w", err)
	}
	if size == 0 {
		return 0, "", fmt.Errorf("artifact is empty")
	}
	if err := os.Chmod(tmpName, 0755); err != nil {
		return 0, "", fmt.Errorf("chmod artifact: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return 0, "", fmt.Errorf("install artifact: %w", err)
	}
	return size, hex.EncodeToString(h.Sum(nil)), nil
}

func (f *Fetcher) open(ctx context.Context, source *url.URL) (io.ReadCloser, error) {
	if source.Scheme == "file" {
		file, err := os.Open(source.Path)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func newHash() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}

func fileDigest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	h := newHash()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var _ port.ArtifactFetcher = (*Fetcher)(nil)
