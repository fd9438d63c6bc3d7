package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soberano/soberano/internal/adapter/http/templates"
	"github.com/soberano/soberano/internal/infrastructure/logger"
	"github.com/soberano/soberano/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// VideoMessage is pushed to websocket clients on every video event.
type VideoMessage struct {
	Type  string        `json:"type"`
	Event service.Event `json:"event"`
	Job   VideoView     `json:"job"`
	HTML  string        `json:"html"`
}

type VideoSocket struct {
	events   Subscriber
	video    VideoControl
	upgrader websocket.Upgrader
}

func NewVideoSocket(events Subscriber, video VideoControl) *VideoSocket {
	return &VideoSocket{
		events: events,
		video:  video,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (s *VideoSocket) message(event service.Event) (VideoMessage, error) {
	job := s.video.Job()
	html, err := renderHTML(templates.VideoStatus(videoPanel(job)))
	if err != nil {
		return VideoMessage{}, err
	}
	return VideoMessage{Type: service.TopicVideo, Event: event, Job: videoView(job), HTML: html}, nil
}

func (s *VideoSocket) write(conn *websocket.Conn, event service.Event) error {
	msg, err := s.message(event)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}

// Handle upgrades the request and pushes the video job after every
// progress or status event. Client messages are read only to notice
// disconnects.
func (s *VideoSocket) Handle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug.Printf("websocket upgrade: %v", err)
			return
		}
		defer func() { _ = conn.Close() }()

		ch := s.events.Subscribe(service.TopicVideo)
		defer s.events.Unsubscribe(service.TopicVideo, ch)

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(wsPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		job := s.video.Job()
		if err := s.write(conn, service.Event{Type: service.EventStatus, Status: string(job.Status), Percent: job.ProgressPercent}); err != nil {
			return
		}

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-closed:
				return
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case event, ok := <-ch:
				if !ok {
					return
				}
				if err := s.write(conn, event); err != nil {
					logger.Debug.Printf("websocket write: %v", err)
					return
				}
			}
		}
	}
}
