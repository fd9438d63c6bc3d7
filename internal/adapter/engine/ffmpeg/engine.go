// Package ffmpeg runs the video engine as an ffmpeg subprocess. Files are
// exchanged through an in-memory filesystem; each Exec materialises it
// into a scratch directory and copies new outputs back.
package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/port"
)

var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("path contains null byte")
	ErrInvalidName = errors.New("invalid virtual file name")
	ErrNotLoaded   = errors.New("engine not loaded")
)

// stderrTail bounds how much ffmpeg stderr is kept for error messages.
const stderrTail = 2048

type Engine struct {
	vfs        afero.Fs
	scratchDir string

	mu       sync.RWMutex
	ffmpeg   string
	ffprobe  string
	handlers []port.ProgressHandler
}

// NewEngine returns an unloaded engine. scratchDir holds the per-exec
// working directories; empty means the system temp dir.
func NewEngine(scratchDir string) *Engine {
	return &Engine{
		vfs:        afero.NewMemMapFs(),
		scratchDir: scratchDir,
	}
}

// validatePath checks that a path is safe to pass to exec.Command.
func validatePath(p string) error {
	if p == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(p, 0) {
		return ErrInvalidPath
	}
	return nil
}

// vfsPath maps a flat virtual file name to its key in the in-memory fs.
func vfsPath(name string) (string, error) {
	if err := validatePath(name); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return "/" + name, nil
}

// Load checks both artifacts and runs the runtime once to make sure it
// starts. RuntimeModule is the ffmpeg executable and BinaryPayload the
// ffprobe executable used for duration probing.
func (e *Engine) Load(ctx context.Context, artifacts domain.Artifacts) error {
	if err := validatePath(artifacts.RuntimeModule); err != nil {
		return fmt.Errorf("invalid runtime module: %w", err)
	}
	if err := validatePath(artifacts.BinaryPayload); err != nil {
		return fmt.Errorf("invalid binary payload: %w", err)
	}
	for _, p := range []string{artifacts.RuntimeModule, artifacts.BinaryPayload} {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() || info.Mode().Perm()&0111 == 0 {
			return fmt.Errorf("%s is not executable", p)
		}
		if out, err := exec.CommandContext(ctx, p, "-version").CombinedOutput(); err != nil {
			return fmt.Errorf("init %s: %w: %s", filepath.Base(p), err, tail(out, 256))
		}
	}

	e.mu.Lock()
	e.ffmpeg = artifacts.RuntimeModule
	e.ffprobe = artifacts.BinaryPayload
	e.mu.Unlock()

	logger.Info.Printf("video engine loaded: runtime=%s payload=%s", artifacts.RuntimeModule, artifacts.BinaryPayload)
	return nil
}

func (e *Engine) OnProgress(handler port.ProgressHandler) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
}

func (e *Engine) WriteFile(ctx context.Context, name string, data []byte) error {
	p, err := vfsPath(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return afero.WriteFile(e.vfs, p, data, 0644)
}

func (e *Engine) ReadFile(ctx context.Context, name string) ([]byte, error) {
	p, err := vfsPath(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(e.vfs, p)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (e *Engine) DeleteFile(ctx context.Context, name string) error {
	p, err := vfsPath(name)
	if err != nil {
		return err
	}
	if err := e.vfs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Exec runs the runtime with argv inside a scratch copy of the virtual
// filesystem. Files created or rewritten by the run are copied back.
func (e *Engine) Exec(ctx context.Context, argv []string) error {
	e.mu.RLock()
	ffmpegPath, ffprobePath := e.ffmpeg, e.ffprobe
	e.mu.RUnlock()
	if ffmpegPath == "" {
		return ErrNotLoaded
	}
	for _, a := range argv {
		if err := validatePath(a); err != nil && !errors.Is(err, ErrEmptyPath) {
			return fmt.Errorf("invalid argument: %w", err)
		}
	}

	workDir, err := os.MkdirTemp(e.scratchDir, "exec-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	started := time.Now()
	inputs, err := e.materialize(workDir)
	if err != nil {
		return err
	}

	var duration time.Duration
	if in := inputArg(argv); in != "" && ffprobePath != "" {
		duration, err = probeDuration(ctx, ffprobePath, filepath.Join(workDir, in))
		if err != nil {
			logger.Warn.Printf("read duration of %s: %v", logger.SanitizeForLog(in), err)
		}
	}

	args := append([]string{"-hide_banner", "-nostdin", "-nostats", "-progress", "pipe:1", "-y"}, argv...)
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Dir = workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	e.readProgress(stdout, duration, started)
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.Bytes(), stderrTail))
	}

	return e.collect(workDir, inputs)
}

// fileStamp identifies a materialised file so collect can tell whether
// the run rewrote it.
type fileStamp struct {
	size    int64
	modTime time.Time
}

// materialize writes every virtual file into dir.
func (e *Engine) materialize(dir string) (map[string]fileStamp, error) {
	entries, err := afero.ReadDir(e.vfs, "/")
	if err != nil {
		return nil, fmt.Errorf("list virtual files: %w", err)
	}
	written := make(map[string]fileStamp, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := afero.ReadFile(e.vfs, "/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read virtual %s: %w", entry.Name(), err)
		}
		target := filepath.Join(dir, entry.Name())
		if err := os.WriteFile(target, data, 0644); err != nil {
			return nil, fmt.Errorf("materialize %s: %w", entry.Name(), err)
		}
		info, err := os.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		written[entry.Name()] = fileStamp{size: info.Size(), modTime: info.ModTime()}
	}
	return written, nil
}

// collect copies files the run produced back into the virtual filesystem.
func (e *Engine) collect(dir string, inputs map[string]fileStamp) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list work dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if written, wasInput := inputs[entry.Name()]; wasInput {
			info, err := entry.Info()
			if err != nil || (info.Size() == written.size && info.ModTime().Equal(written.modTime)) {
				continue
			}
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read output %s: %w", entry.Name(), err)
		}
		if err := afero.WriteFile(e.vfs, "/"+entry.Name(), data, 0644); err != nil {
			return fmt.Errorf("store output %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// readProgress parses ffmpeg's -progress key=value stream and forwards a
// fraction to every handler at the end of each block.
func (e *Engine) readProgress(r io.Reader, duration time.Duration, started time.Time) {
	var outTime time.Duration
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds.
			if us, err := strconv.ParseInt(value, 10, 64); err == nil && us >= 0 {
				outTime = time.Duration(us) * time.Microsecond
			}
		case "progress":
			fraction := 0.0
			if duration > 0 {
				fraction = float64(outTime) / float64(duration)
			}
			if value == "end" {
				fraction = 1
			}
			e.emit(fraction, time.Since(started))
		}
	}
}

func (e *Engine) emit(fraction float64, elapsed time.Duration) {
	e.mu.RLock()
	handlers := append([]port.ProgressHandler(nil), e.handlers...)
	e.mu.RUnlock()
	for _, h := range handlers {
		h(fraction, elapsed)
	}
}

func inputArg(argv []string) string {
	for i := 0; i < len(argv)-1; i++ {
		if argv[i] == "-i" {
			return path.Base(argv[i+1])
		}
	}
	return ""
}

func probeDuration(ctx context.Context, ffprobe, input string) (time.Duration, error) {
	out, err := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func tail(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

var _ port.VideoEngine = (*Engine)(nil)
