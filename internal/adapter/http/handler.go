package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/soberano/soberano/internal/adapter/http/templates"
	"github.com/soberano/soberano/internal/adapter/validation"
	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/service"
)

type ImageQueue interface {
	Enqueue(files []domain.File, quality int) (service.Admission, error)
	Jobs() []domain.CompressionJob
	Get(id string) (domain.CompressionJob, error)
	Remove(id string) error
	Clear()
	Stats() domain.QueueStats
	Quality() int
}

type EngineControl interface {
	Status() domain.EngineStatus
	EnsureReady(ctx context.Context) error
	RetryLoad(ctx context.Context) error
}

type VideoControl interface {
	Start(ctx context.Context, file domain.File) (domain.VideoJob, error)
	Job() domain.VideoJob
}

type DownloadSource interface {
	Get(token string) (service.Download, error)
}

type Handlers struct {
	ctx         context.Context
	queue       ImageQueue
	engine      EngineControl
	video       VideoControl
	downloads   DownloadSource
	maxUploadMB int
	version     string
}

func NewHandlers(ctx context.Context, queue ImageQueue, engine EngineControl, video VideoControl, downloads DownloadSource, maxUploadMB int, version string) *Handlers {
	return &Handlers{
		ctx:         ctx,
		queue:       queue,
		engine:      engine,
		video:       video,
		downloads:   downloads,
		maxUploadMB: maxUploadMB,
		version:     version,
	}
}

// JobView is the JSON shape of a queued image.
type JobView struct {
	domain.CompressionJob
	Stats       domain.JobStats `json:"stats"`
	DownloadURL string          `json:"download_url,omitempty"`
}

type QueueView struct {
	Jobs    []JobView         `json:"jobs"`
	Stats   domain.QueueStats `json:"stats"`
	Quality int               `json:"quality"`
}

// VideoView is the JSON shape of the video job.
type VideoView struct {
	domain.VideoJob
	OriginalSize int64  `json:"original_size"`
	ResultSize   int64  `json:"result_size"`
	DownloadURL  string `json:"download_url,omitempty"`
}

func jobView(job domain.CompressionJob) JobView {
	v := JobView{CompressionJob: job, Stats: job.Stats()}
	if job.Status == domain.JobStatusDone {
		v.DownloadURL = "/images/" + job.ID + "/download"
	}
	return v
}

func videoView(job domain.VideoJob) VideoView {
	v := VideoView{VideoJob: job, OriginalSize: job.OriginalSize(), ResultSize: job.ResultSize()}
	if job.DownloadID != "" {
		v.DownloadURL = "/downloads/" + job.DownloadID
	}
	return v
}

func (h *Handlers) queueView() QueueView {
	jobs := h.queue.Jobs()
	views := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, jobView(j))
	}
	return QueueView{Jobs: views, Stats: domain.AggregateStats(jobs), Quality: h.queue.Quality()}
}

func (h *Handlers) rows() ([]templates.JobRow, domain.QueueStats) {
	view := h.queueView()
	rows := make([]templates.JobRow, 0, len(view.Jobs))
	for _, j := range view.Jobs {
		rows = append(rows, templates.JobRow{
			ID:               j.ID,
			Name:             j.Original.Name,
			Status:           j.Status,
			Error:            j.Error,
			OriginalSize:     j.OriginalSize,
			CompressedSize:   j.CompressedSize,
			Reduction:        j.Stats.ReductionPercent,
			ReductionDefined: j.Stats.Defined,
			DownloadURL:      j.DownloadURL,
		})
	}
	return rows, view.Stats
}

func videoPanel(job domain.VideoJob) templates.VideoPanel {
	v := videoView(job)
	return templates.VideoPanel{
		Status:       job.Status,
		Name:         job.Source.Name,
		Error:        job.Error,
		Percent:      job.ProgressPercent,
		OriginalSize: v.OriginalSize,
		ResultSize:   v.ResultSize,
		DownloadURL:  v.DownloadURL,
	}
}

func (h *Handlers) Dashboard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, stats := h.rows()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.Dashboard(templates.DashboardData{
			Version:     h.version,
			Quality:     h.queue.Quality(),
			MaxUploadMB: h.maxUploadMB,
			Rows:        rows,
			Stats:       stats,
			Engine:      h.engine.Status(),
			Video:       videoPanel(h.video.Job()),
		}).Render(r.Context(), w)
	}
}

func (h *Handlers) EnqueueImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseUpload(w, r) {
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		quality := h.queue.Quality()
		if q := r.FormValue("quality"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil {
				writeError(w, fmt.Errorf("%w: %q", domain.ErrInvalidQuality, q))
				return
			}
			quality = n
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			http.Error(w, "No files uploaded", http.StatusBadRequest)
			return
		}
		files := make([]domain.File, 0, len(headers))
		for _, fh := range headers {
			f, err := readUpload(fh)
			if err != nil {
				logger.Error.Printf("read upload %s: %v", logger.SanitizeForLog(fh.Filename), err)
				http.Error(w, "Failed to read upload", http.StatusBadRequest)
				return
			}
			files = append(files, f)
		}

		adm, err := h.queue.Enqueue(files, quality)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, adm)
	}
}

func (h *Handlers) ListImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.queueView())
	}
}

func (h *Handlers) DownloadImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := h.queue.Get(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if job.Status != domain.JobStatusDone || job.Compressed == nil {
			http.Error(w, "Image not compressed yet", http.StatusConflict)
			return
		}
		c := job.Compressed
		serveFile(w, c.DownloadName(domain.ExtensionForMIME(c.MIMEType)), c.MIMEType, c.Data)
	}
}

func (h *Handlers) RemoveImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.queue.Remove(r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) ClearImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.queue.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handlers) EngineStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.engine.Status())
	}
}

// LoadEngine starts loading in the background; the outcome arrives as an
// engine event.
func (h *Handlers) LoadEngine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := h.engine.Status()
		switch st.State {
		case domain.EngineStateReady:
			writeJSON(w, http.StatusOK, st)
			return
		case domain.EngineStateLoadFailed:
			writeError(w, fmt.Errorf("%w: %s", domain.ErrEngineLoadFailed, st.Error))
			return
		}
		go func() { _ = h.engine.EnsureReady(h.ctx) }()
		writeJSON(w, http.StatusAccepted, h.engine.Status())
	}
}

func (h *Handlers) RetryEngine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if st := h.engine.Status(); st.State != domain.EngineStateLoadFailed {
			writeError(w, fmt.Errorf("%w: retry from %s", domain.ErrInvalidTransition, st.State))
			return
		}
		go func() { _ = h.engine.RetryLoad(h.ctx) }()
		writeJSON(w, http.StatusAccepted, h.engine.Status())
	}
}

func (h *Handlers) StartVideo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.parseUpload(w, r) {
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		headers := r.MultipartForm.File["file"]
		if len(headers) != 1 {
			http.Error(w, "Exactly one video file expected", http.StatusBadRequest)
			return
		}
		file, err := readUpload(headers[0])
		if err != nil {
			http.Error(w, "Failed to read upload", http.StatusBadRequest)
			return
		}
		if !file.IsVideo() || !validation.IsAllowed(file.MIMEType) {
			http.Error(w, "Unsupported file type: "+file.MIMEType, http.StatusUnsupportedMediaType)
			return
		}

		job, err := h.video.Start(h.ctx, file)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, videoView(job))
	}
}

func (h *Handlers) VideoStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, videoView(h.video.Job()))
	}
}

func (h *Handlers) Download() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dl, err := h.downloads.Get(r.PathValue("token"))
		if err != nil {
			writeError(w, err)
			return
		}
		serveFile(w, dl.Name, dl.File.MIMEType, dl.File.Data)
	}
}

func (h *Handlers) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	limit := int64(h.maxUploadMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			http.Error(w, "Invalid multipart upload", http.StatusBadRequest)
		}
		return false
	}
	return true
}

// readUpload loads one part into memory and settles its MIME type from
// the content, falling back to the declared type and the extension.
func readUpload(fh *multipart.FileHeader) (domain.File, error) {
	src, err := fh.Open()
	if err != nil {
		return domain.File{}, err
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		return domain.File{}, err
	}
	name := validation.SanitizeFilename(fh.Filename)
	mime := validation.Sniff(name, fh.Header.Get("Content-Type"), data)
	return domain.NewFile(name, mime, data), nil
}

func serveFile(w http.ResponseWriter, name, mime string, data []byte) {
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", validation.ContentDisposition(name))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("encode response: %v", err)
	}
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrInvalidQuality):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrEngineBusy), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEngineNotReady), errors.Is(err, domain.ErrEngineLoadFailed):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Error.Printf("request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}
