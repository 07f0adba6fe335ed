package realtime

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillhq/quill/internal/model"
	"github.com/quillhq/quill/internal/vision"
)

// FaceDetection handles /ws/face-detection. Frames are queued for a single
// detection worker; when the queue is full the newest frame is dropped.
func (s *Server) FaceDetection(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrade(w, r, maxImageFrame)
	if err != nil {
		return
	}
	if s.cfg.Detector == nil {
		c.closeWith(websocket.CloseInternalServerErr, "face detector not loaded")
		return
	}
	defer c.close()

	queue := make(chan []byte, s.cfg.FaceQueueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.detect(c, queue)
	}()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			s.logClose("face-detection", err)
			break
		}
		select {
		case queue <- data:
		default:
			s.recorder.IncFaceFrame("dropped")
		}
	}

	close(queue)
	wg.Wait()
}

func (s *Server) detect(c *conn, queue <-chan []byte) {
	broken := false
	for frame := range queue {
		// Keep draining after a write error so the reader never blocks.
		if broken {
			continue
		}

		start := time.Now()
		boxes, err := vision.DetectBytes(s.cfg.Detector, frame)
		s.recorder.ObserveFaceDetectionDuration(time.Since(start))
		if err != nil {
			s.logger.Debug("face frame rejected", "error", err)
			s.recorder.IncFaceFrame("failed")
			continue
		}
		if boxes == nil {
			boxes = []model.Box{}
		}
		s.recorder.IncFaceFrame("processed")

		if err := c.writeJSON(model.Faces{Faces: boxes}); err != nil {
			broken = true
		}
	}
}
