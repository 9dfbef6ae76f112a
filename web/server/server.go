package server

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nfnt/resize"

	"github.com/minilight/go-minilight/pkg/loaders"
	"github.com/minilight/go-minilight/pkg/log"
	"github.com/minilight/go-minilight/pkg/renderer"
	"github.com/minilight/go-minilight/pkg/scene"
)

var logger = log.New("server")

// Preview frames wider than this are downscaled before encoding
const previewMaxWidth = 512

// Socket write deadline for preview frames
const writeWait = 10 * time.Second

// Server renders a model per websocket connection and streams tone-mapped
// PNG snapshots to the browser as the accumulator converges
type Server struct {
	port      int
	modelPath string
	workers   int
	upgrader  websocket.Upgrader
}

// New creates a preview server for the model file
func New(port int, modelPath string, workers int) *Server {
	return &Server{
		port:      port,
		modelPath: modelPath,
		workers:   workers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ListenAndServe starts the preview server
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleSocket)

	logger.Noticef("preview server listening on http://localhost:%d", s.port)
	return http.ListenAndServe(fmt.Sprintf(":%d", s.port), mux)
}

// frameUpdate is a single preview frame sent to the browser
type frameUpdate struct {
	Iteration  int    `json:"iteration"`
	Iterations int    `json:"iterations"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG
	IsComplete bool   `json:"isComplete"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexPage)
}

// handleSocket renders the model for one connected client, pushing a frame
// at each snapshot point. A failed frame write (for example after the client
// disconnects) stops the render at the next snapshot point.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	model, err := loaders.LoadModel(s.modelPath)
	if err != nil {
		logger.Errorf("model load failed: %v", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()),
			time.Now().Add(writeWait))
		return
	}

	camera := renderer.NewCamera(model.CameraPosition, model.CameraDirection, model.ViewAngle)
	image := renderer.NewImage(model.Width, model.Height)
	scn := scene.NewScene(camera.EyePoint(), model.SkyEmission, model.GroundReflection, model.Triangles)

	rend := renderer.NewRenderer(scn, camera, image, renderer.Config{
		Iterations: model.Iterations,
		Workers:    s.workers,
	})
	rend.SetProgress(io.Discard)

	logger.Infof("client %s: rendering %dx%d, %d iterations",
		r.RemoteAddr, image.Width(), image.Height(), model.Iterations)

	stats, err := rend.Render(r.Context(), func(img *renderer.Image, iteration int) error {
		return s.writeFrame(conn, img, iteration, model.Iterations)
	})
	if err != nil {
		logger.Infof("client %s: render stopped: %v", r.RemoteAddr, err)
		return
	}

	logger.Infof("client %s: finished %d iterations in %v",
		r.RemoteAddr, stats.Iterations, stats.Elapsed)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"),
		time.Now().Add(writeWait))
}

// writeFrame tone-maps the accumulator, downscales oversized frames and
// sends the PNG to the client
func (s *Server) writeFrame(conn *websocket.Conn, img *renderer.Image, iteration, iterations int) error {
	frame := img.ToRGBA(iteration)

	var buf bytes.Buffer
	if frame.Bounds().Dx() > previewMaxWidth {
		if err := png.Encode(&buf, resize.Resize(previewMaxWidth, 0, frame, resize.Lanczos3)); err != nil {
			return err
		}
	} else if err := png.Encode(&buf, frame); err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frameUpdate{
		Iteration:  iteration,
		Iterations: iterations,
		ImageData:  base64.StdEncoding.EncodeToString(buf.Bytes()),
		IsComplete: iteration == iterations,
	})
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
<title>minilight preview</title>
<style>
body { background: #111; color: #ccc; font-family: monospace; text-align: center; }
img { margin-top: 1em; image-rendering: pixelated; border: 1px solid #333; }
</style>
</head>
<body>
<div id="status">connecting...</div>
<img id="preview" alt="">
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
const status = document.getElementById("status");
const preview = document.getElementById("preview");
ws.onmessage = function(ev) {
	const update = JSON.parse(ev.data);
	preview.src = "data:image/png;base64," + update.imageData;
	status.textContent = update.isComplete
		? "finished (" + update.iterations + " iterations)"
		: "iteration " + update.iteration + " / " + update.iterations;
};
ws.onclose = function() {
	if (status.textContent.indexOf("finished") !== 0) status.textContent = "disconnected";
};
</script>
</body>
</html>
`
