package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/soberano/soberano/config"
	"github.com/soberano/soberano/internal/adapter/artifacts/httpfetch"
	"github.com/soberano/soberano/internal/adapter/codec/imagecodec"
	"github.com/soberano/soberano/internal/adapter/engine/ffmpeg"
	sqlitestore "github.com/soberano/soberano/internal/adapter/storage/sqlite"
	"github.com/soberano/soberano/internal/adapter/validation"
	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/service"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg       *config.Config
	store     *sqlitestore.Store
	fetcher   *httpfetch.Fetcher
	engine    *ffmpeg.Engine
	bus       *service.EventBus
	queue     *service.JobQueue
	lifecycle *service.EngineLifecycle
	downloads *service.Downloads
	video     *service.VideoRunner
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	fetcher, err := httpfetch.NewFetcher(httpfetch.Config{
		BaseURL:     cfg.Engine.BaseURL,
		RuntimeName: cfg.Engine.RuntimeName,
		PayloadName: cfg.Engine.PayloadName,
		CacheDir:    cfg.Engine.CacheDir,
	}, store)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("configure fetcher: %w", err)
	}

	a := &app{
		cfg:       cfg,
		store:     store,
		fetcher:   fetcher,
		engine:    ffmpeg.NewEngine(filepath.Join(cfg.DataDir, "scratch")),
		bus:       service.NewEventBus(),
		downloads: service.NewDownloads(cfg.DownloadTTL),
	}
	a.queue = service.NewJobQueue(ctx, imagecodec.NewCodec(), a.bus)
	if err := a.queue.SetQuality(cfg.DefaultQuality); err != nil {
		_ = store.Close()
		return nil, err
	}
	a.lifecycle = service.NewEngineLifecycle(ctx, a.engine, fetcher, a.bus, cfg.Engine.LoadTimeout)
	a.video = service.NewVideoRunner(a.lifecycle, a.engine, a.downloads, a.bus)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// readMediaFile loads a local file the same way an upload is read.
func readMediaFile(path string) (domain.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.File{}, err
	}
	name := validation.SanitizeFilename(filepath.Base(path))
	return domain.NewFile(name, validation.Sniff(name, "", data), data), nil
}

// writeResult stores data under dir with the download name.
func writeResult(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, validation.SanitizeFilename(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
