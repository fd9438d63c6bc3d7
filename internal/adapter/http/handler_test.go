package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soberano/soberano/internal/adapter/http/middleware"
	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/port"
	"github.com/soberano/soberano/internal/service"
)

type halvingCodec struct{}

func (halvingCodec) Compress(_ context.Context, f domain.File, _ port.ImageOptions) (domain.File, error) {
	return domain.NewFile(f.Name, "image/jpeg", f.Data[:len(f.Data)/2]), nil
}

type fakeEngine struct {
	mu      sync.Mutex
	status  domain.EngineStatus
	ensured chan struct{}
	retried chan struct{}
}

func newFakeEngine(state domain.EngineState) *fakeEngine {
	return &fakeEngine{
		status:  domain.EngineStatus{State: state},
		ensured: make(chan struct{}, 1),
		retried: make(chan struct{}, 1),
	}
}

func (e *fakeEngine) Status() domain.EngineStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *fakeEngine) EnsureReady(context.Context) error {
	e.ensured <- struct{}{}
	return nil
}

func (e *fakeEngine) RetryLoad(context.Context) error {
	e.retried <- struct{}{}
	return nil
}

type fakeVideo struct {
	mu      sync.Mutex
	job     domain.VideoJob
	err     error
	started []domain.File
}

func (v *fakeVideo) Start(_ context.Context, file domain.File) (domain.VideoJob, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return domain.VideoJob{}, v.err
	}
	v.started = append(v.started, file)
	v.job = domain.VideoJob{Source: file, Status: domain.RunStatusRunning}
	return v.job, nil
}

func (v *fakeVideo) Job() domain.VideoJob {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.job
}

type fixture struct {
	server    *Server
	queue     *service.JobQueue
	engine    *fakeEngine
	video     *fakeVideo
	downloads *service.Downloads
	bus       *service.EventBus
	token     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := service.NewEventBus()
	f := &fixture{
		queue:     service.NewJobQueue(ctx, halvingCodec{}, bus),
		engine:    newFakeEngine(domain.EngineStateUnloaded),
		video:     &fakeVideo{},
		downloads: service.NewDownloads(time.Hour),
		bus:       bus,
	}
	f.server = NewServer(Deps{
		Ctx:         ctx,
		Queue:       f.queue,
		Engine:      f.engine,
		Video:       f.video,
		Downloads:   f.downloads,
		Events:      bus,
		MaxUploadMB: 1,
		Version:     "test",
	})
	f.token = f.server.csrf.GenerateToken()
	return f
}

type part struct {
	field, name, mime string
	data              []byte
}

func multipartBody(t *testing.T, fields map[string]string, parts ...part) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.field, p.name))
		h.Set("Content-Type", p.mime)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	if req.Method != http.MethodGet {
		req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: f.token})
		req.Header.Set(middleware.CSRFHeaderName, f.token)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) waitQueue(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.queue.Wait(ctx))
}

// zero bytes are not recognised by content sniffing, so the declared
// part type decides.
func blank(n int) []byte {
	return make([]byte, n)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `id="queue"`)
	assert.Contains(t, rec.Body.String(), `id="engine-load"`)
	assert.Equal(t, "require-corp", rec.Header().Get("Cross-Origin-Embedder-Policy"))
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestEnqueueImages(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, map[string]string{"quality": "60"},
		part{"files", "a.png", "image/png", blank(400)},
		part{"files", "notes.txt", "text/plain", []byte("just some text")},
	)
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", ct)

	rec := f.do(req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var adm service.Admission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &adm))
	require.Len(t, adm.Admitted, 1)
	assert.Equal(t, []string{"notes.txt"}, adm.Rejected)
	assert.Equal(t, 60, f.queue.Quality())

	f.waitQueue(t)
	list := f.do(httptest.NewRequest(http.MethodGet, "/images", nil))
	require.Equal(t, http.StatusOK, list.Code)
	var view QueueView
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &view))
	require.Len(t, view.Jobs, 1)
	job := view.Jobs[0]
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, int64(200), job.CompressedSize)
	assert.InDelta(t, 50.0, job.Stats.ReductionPercent, 0.001)
	assert.Equal(t, "/images/"+job.ID+"/download", job.DownloadURL)
	assert.Equal(t, 1, view.Stats.Done)
}

func TestEnqueueImagesRejectsBadQuality(t *testing.T) {
	f := newFixture(t)
	for _, q := range []string{"5", "101", "high"} {
		body, ct := multipartBody(t, map[string]string{"quality": q}, part{"files", "a.png", "image/png", blank(10)})
		req := httptest.NewRequest(http.MethodPost, "/images", body)
		req.Header.Set("Content-Type", ct)

		rec := f.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	assert.Empty(t, f.queue.Jobs())
}

func TestEnqueueImagesTooLarge(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, nil, part{"files", "big.png", "image/png", blank(2 << 20)})
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", ct)

	rec := f.do(req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestEnqueueImagesRequiresCSRF(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, nil, part{"files", "a.png", "image/png", blank(10)})
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	f.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.queue.Jobs())
}

func TestDownloadImage(t *testing.T) {
	f := newFixture(t)
	adm, err := f.queue.Enqueue([]domain.File{domain.NewFile("holiday photo.png", "image/png", blank(100))}, 80)
	require.NoError(t, err)
	f.waitQueue(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/images/"+adm.Admitted[0].ID+"/download", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="soberano-holiday photo.jpg"`, rec.Header().Get("Content-Disposition"))
	assert.Len(t, rec.Body.Bytes(), 50)

	missing := f.do(httptest.NewRequest(http.MethodGet, "/images/nope/download", nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestRemoveAndClearImages(t *testing.T) {
	f := newFixture(t)
	adm, err := f.queue.Enqueue([]domain.File{
		domain.NewFile("a.png", "image/png", blank(10)),
		domain.NewFile("b.png", "image/png", blank(10)),
	}, 80)
	require.NoError(t, err)
	f.waitQueue(t)

	rec := f.do(httptest.NewRequest(http.MethodDelete, "/images/"+adm.Admitted[0].ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.queue.Jobs(), 1)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/images/"+adm.Admitted[0].ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodDelete, "/images", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.queue.Jobs())
}

func TestEngineEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/engine", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"unloaded"}`, rec.Body.String())

	rec = f.do(httptest.NewRequest(http.MethodPost, "/engine/retry", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/engine/load", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-f.engine.ensured:
	case <-time.After(5 * time.Second):
		t.Fatal("engine load not started")
	}

	f.engine.mu.Lock()
	f.engine.status = domain.EngineStatus{State: domain.EngineStateLoadFailed, Error: "fetch failed"}
	f.engine.mu.Unlock()

	rec = f.do(httptest.NewRequest(http.MethodPost, "/engine/load", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/engine/retry", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	select {
	case <-f.engine.retried:
	case <-time.After(5 * time.Second):
		t.Fatal("engine retry not started")
	}
}

func TestStartVideo(t *testing.T) {
	f := newFixture(t)
	body, ct := multipartBody(t, nil, part{"file", "clip.mov", "video/quicktime", blank(64)})
	req := httptest.NewRequest(http.MethodPost, "/video", body)
	req.Header.Set("Content-Type", ct)

	rec := f.do(req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, f.video.started, 1)
	assert.Equal(t, "clip.mov", f.video.started[0].Name)
	assert.Equal(t, "video/quicktime", f.video.started[0].MIMEType)

	status := f.do(httptest.NewRequest(http.MethodGet, "/video", nil))
	require.Equal(t, http.StatusOK, status.Code)
	var view VideoView
	require.NoError(t, json.Unmarshal(status.Body.Bytes(), &view))
	assert.Equal(t, domain.RunStatusRunning, view.Status)
	assert.Equal(t, int64(64), view.OriginalSize)
}

func TestStartVideoErrors(t *testing.T) {
	tests := []struct {
		name   string
		mime   string
		err    error
		status int
	}{
		{name: "not a video", mime: "image/png", status: http.StatusUnsupportedMediaType},
		{name: "busy", mime: "video/mp4", err: domain.ErrEngineBusy, status: http.StatusConflict},
		{name: "not ready", mime: "video/mp4", err: domain.ErrEngineNotReady, status: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.video.err = tt.err
			body, ct := multipartBody(t, nil, part{"file", "clip", tt.mime, blank(16)})
			req := httptest.NewRequest(http.MethodPost, "/video", body)
			req.Header.Set("Content-Type", ct)

			rec := f.do(req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestDownloadToken(t *testing.T) {
	f := newFixture(t)
	dl := f.downloads.Register(domain.NewFile("clip.mp4", "video/mp4", []byte("encoded")))

	rec := f.do(httptest.NewRequest(http.MethodGet, "/downloads/"+dl.Token, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="soberano-clip.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "encoded", rec.Body.String())

	f.downloads.Revoke(dl.Token)
	rec = f.do(httptest.NewRequest(http.MethodGet, "/downloads/"+dl.Token, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrExpired, http.StatusGone},
		{domain.ErrInvalidQuality, http.StatusBadRequest},
		{domain.ErrEngineBusy, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrEngineNotReady, http.StatusServiceUnavailable},
		{domain.ErrEngineLoadFailed, http.StatusServiceUnavailable},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err)
		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
	}
}

func TestSSESkipsUnchangedFragments(t *testing.T) {
	f := newFixture(t)
	h := f.server.sseHandler
	state := streamState{}

	first := httptest.NewRecorder()
	require.NoError(t, h.sendQueue(first, state))
	require.NoError(t, h.sendEngine(first, state))
	assert.Equal(t, 1, strings.Count(first.Body.String(), "event: queue"))
	assert.Equal(t, 1, strings.Count(first.Body.String(), "event: engine"))

	second := httptest.NewRecorder()
	require.NoError(t, h.sendQueue(second, state))
	require.NoError(t, h.sendEngine(second, state))
	assert.Empty(t, second.Body.String())

	_, err := f.queue.Enqueue([]domain.File{domain.NewFile("a.png", "image/png", blank(10))}, 80)
	require.NoError(t, err)
	f.waitQueue(t)

	third := httptest.NewRecorder()
	require.NoError(t, h.sendQueue(third, state))
	assert.Contains(t, third.Body.String(), "event: queue")
	assert.Contains(t, third.Body.String(), "a.png")
}

func TestSSEWriteMultiline(t *testing.T) {
	rec := httptest.NewRecorder()

	sseWrite(rec, "queue", "<p>\nhi</p>")

	assert.Equal(t, "event: queue\ndata: <p>\ndata: hi</p>\n\n", rec.Body.String())
}
