// Package templates renders the dashboard as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"github.com/soberano/soberano/internal/domain"
)

// JobRow is one line of the image queue table.
type JobRow struct {
	ID               string
	Name             string
	Status           domain.JobStatus
	Error            string
	OriginalSize     int64
	CompressedSize   int64
	Reduction        float64
	ReductionDefined bool
	DownloadURL      string
}

// VideoPanel is the state of the single video job.
type VideoPanel struct {
	Status       domain.RunStatus
	Name         string
	Error        string
	Percent      int
	OriginalSize int64
	ResultSize   int64
	DownloadURL  string
}

type DashboardData struct {
	Version     string
	Quality     int
	MaxUploadMB int
	Rows        []JobRow
	Stats       domain.QueueStats
	Engine      domain.EngineStatus
	Video       VideoPanel
}

// writer accumulates the first write error so components read linearly.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="`)
	w.text(value)
	w.raw(`"`)
}

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil {
		w.err = c.Render(ctx, w.w)
	}
}

func size(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// QueueTable renders the image queue with its aggregate footer.
func QueueTable(rows []JobRow, stats domain.QueueStats) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		if len(rows) == 0 {
			w.raw(`<p class="empty">No images queued.</p>`)
			return w.err
		}

		w.raw(`<table><thead><tr><th>File</th><th>Status</th><th>Original</th><th>Compressed</th><th>Saved</th><th></th></tr></thead><tbody>`)
		for _, row := range rows {
			w.raw(`<tr`)
			w.attr("id", "job-"+row.ID)
			w.attr("class", "status-"+string(row.Status))
			w.raw(`><td>`)
			w.text(row.Name)
			w.raw(`</td><td>`)
			w.text(string(row.Status))
			if row.Error != "" {
				w.raw(`<br><small`)
				w.attr("title", row.Error)
				w.raw(`>`)
				w.text(row.Error)
				w.raw(`</small>`)
			}
			w.raw(`</td><td>`)
			w.text(size(row.OriginalSize))
			w.raw(`</td><td>`)
			if row.Status == domain.JobStatusDone {
				w.text(size(row.CompressedSize))
			}
			w.raw(`</td><td>`)
			if row.ReductionDefined {
				w.text(fmt.Sprintf("%.1f%%", row.Reduction))
			}
			w.raw(`</td><td>`)
			if row.DownloadURL != "" {
				w.raw(`<a`)
				w.attr("href", row.DownloadURL)
				w.raw(` download>Download</a> `)
			}
			w.raw(`<button class="remove"`)
			w.attr("data-id", row.ID)
			w.raw(`>Remove</button></td></tr>`)
		}
		w.raw(`</tbody><tfoot><tr><td>`)
		w.text(fmt.Sprintf("%d files (%d done, %d failed)", stats.Total, stats.Done, stats.Failed))
		w.raw(`</td><td></td><td>`)
		w.text(size(stats.OriginalBytes))
		w.raw(`</td><td>`)
		w.text(size(stats.CompressedBytes))
		w.raw(`</td><td>`)
		if stats.ReductionIsDefined {
			w.text(fmt.Sprintf("%.1f%%", stats.ReductionPercent))
		}
		w.raw(`</td><td></td></tr></tfoot></table>`)
		return w.err
	})
}

// EnginePanel shows the video engine state and the retry affordance.
func EnginePanel(status domain.EngineStatus) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<p`)
		w.attr("class", "engine engine-"+string(status.State))
		w.raw(`>`)
		switch status.State {
		case domain.EngineStateReady:
			w.raw(`Video engine ready.`)
		case domain.EngineStateLoading:
			w.raw(`Loading video engine&hellip;`)
		case domain.EngineStateLoadFailed:
			w.raw(`Video engine failed to load: `)
			w.text(status.Error)
			w.raw(` <button id="engine-retry">Try again</button>`)
		default:
			w.raw(`Video engine not loaded. <button id="engine-load">Load</button>`)
		}
		w.raw(`</p>`)
		return w.err
	})
}

// VideoStatus renders the current video job.
func VideoStatus(v VideoPanel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		if v.Status == "" || v.Status == domain.RunStatusIdle {
			w.raw(`<p class="empty">No video compressed yet.</p>`)
			return w.err
		}
		w.raw(`<p>`)
		w.text(v.Name)
		w.raw(` &middot; `)
		w.text(string(v.Status))
		w.raw(`</p><progress max="100"`)
		w.attr("value", fmt.Sprint(v.Percent))
		w.raw(`></progress> <span class="percent">`)
		w.text(fmt.Sprintf("%d%%", v.Percent))
		w.raw(`</span>`)
		switch v.Status {
		case domain.RunStatusComplete:
			w.raw(`<p>`)
			w.text(size(v.OriginalSize) + " → " + size(v.ResultSize))
			w.raw(` <a`)
			w.attr("href", v.DownloadURL)
			w.raw(` download>Download</a></p>`)
		case domain.RunStatusFailed:
			w.raw(`<p class="error">`)
			w.text(v.Error)
			w.raw(`</p>`)
		}
		return w.err
	})
}

// Dashboard is the full page.
func Dashboard(d DashboardData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>soberano</title><style>`)
		w.raw(stylesheet)
		w.raw(`</style></head><body><header><h1>soberano</h1><small>`)
		w.text(d.Version)
		w.raw(`</small></header><main>`)

		w.raw(`<section><h2>Images</h2><form id="images-form"><input type="file" name="files" accept="image/*" multiple> <label>Quality <input type="range" name="quality"`)
		w.attr("min", fmt.Sprint(domain.MinQuality))
		w.attr("max", fmt.Sprint(domain.MaxQuality))
		w.attr("value", fmt.Sprint(d.Quality))
		w.raw(`> <output>`)
		w.text(fmt.Sprint(d.Quality))
		w.raw(`</output></label> <button type="submit">Compress</button> <button type="button" id="images-clear">Clear</button></form><p class="hint">Images are resized to at most 1920px and aim for 2 MB or less. Uploads up to `)
		w.text(fmt.Sprintf("%d MB", d.MaxUploadMB))
		w.raw(`.</p><div id="queue">`)
		w.component(ctx, QueueTable(d.Rows, d.Stats))
		w.raw(`</div></section>`)

		w.raw(`<section><h2>Video</h2><div id="engine">`)
		w.component(ctx, EnginePanel(d.Engine))
		w.raw(`</div><form id="video-form"><input type="file" name="file" accept="video/*"> <button type="submit">Compress</button></form><div id="video">`)
		w.component(ctx, VideoStatus(d.Video))
		w.raw(`</div></section></main><script>`)
		w.raw(script)
		w.raw(`</script></body></html>`)
		return w.err
	})
}

const stylesheet = `
body{font-family:system-ui,sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem;color:#222}
header{display:flex;gap:1rem;align-items:baseline}
table{width:100%;border-collapse:collapse}th,td{text-align:left;padding:.3rem;border-bottom:1px solid #ddd}
.status-error td{color:#a00}.status-compressing td{color:#06c}
.error,.engine-load_failed{color:#a00}.empty,.hint{color:#777}
progress{width:70%}
`

const script = `
(function(){
  function token(){
    var m = document.cookie.match(/(?:^|; )soberano_csrf=([^;]*)/);
    return m ? decodeURIComponent(m[1]) : "";
  }
  function send(method, url, body){
    return fetch(url, {method: method, body: body, headers: {"X-CSRF-Token": token()}})
      .then(function(r){ if(!r.ok){ return r.text().then(function(t){ alert(t); }); } });
  }
  var form = document.getElementById("images-form");
  var range = form.querySelector("input[type=range]");
  range.addEventListener("input", function(){ form.querySelector("output").textContent = range.value; });
  form.addEventListener("submit", function(e){
    e.preventDefault();
    send("POST", "/images", new FormData(form)).then(function(){ form.reset(); });
  });
  document.getElementById("images-clear").addEventListener("click", function(){ send("DELETE", "/images"); });
  document.getElementById("queue").addEventListener("click", function(e){
    if(e.target.classList.contains("remove")){ send("DELETE", "/images/" + e.target.dataset.id); }
  });
  document.getElementById("engine").addEventListener("click", function(e){
    if(e.target.id === "engine-retry"){ send("POST", "/engine/retry"); }
    if(e.target.id === "engine-load"){ send("POST", "/engine/load"); }
  });
  var video = document.getElementById("video-form");
  video.addEventListener("submit", function(e){
    e.preventDefault();
    send("POST", "/video", new FormData(video));
  });

  var events = new EventSource("/events");
  events.addEventListener("queue", function(e){ document.getElementById("queue").innerHTML = e.data; });
  events.addEventListener("engine", function(e){ document.getElementById("engine").innerHTML = e.data; });

  function connect(){
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/video/ws");
    ws.onmessage = function(m){
      var msg = JSON.parse(m.data);
      if(msg.html){ document.getElementById("video").innerHTML = msg.html; }
    };
    ws.onclose = function(){ setTimeout(connect, 2000); };
  }
  connect();
})();
`
