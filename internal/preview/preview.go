// Package preview streams the frames sent to the strip to websocket viewers.
// It only observes: there is no way to change the selection from here.
package preview

import (
	"encoding/json"
	"image"
	"image/color"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
)

// Status is reported by /health next to the frame counters.
type Status struct {
	Pattern string `json:"pattern"`
	Step    int    `json:"step"`
	Running bool   `json:"running"`
}

type Server struct {
	mu        sync.RWMutex
	count     int
	frameID   uint64
	startTime time.Time
	clients   map[*websocket.Conn]bool

	// Status, when set, is polled by /health.
	Status func() Status
}

func New(count int) *Server {
	return &Server{
		count:     count,
		startTime: time.Now(),
		clients:   map[*websocket.Conn]bool{},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// Drawer wraps d so every successful draw is also broadcast.
func (s *Server) Drawer(d display.Drawer) display.Drawer {
	return &drawer{Drawer: d, s: s}
}

type drawer struct {
	display.Drawer
	s *Server
}

func (d *drawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if err := d.Drawer.Draw(r, src, sp); err != nil {
		return err
	}
	n := r.Intersect(d.Bounds()).Dx()
	if w := src.Bounds().Max.X - sp.X; w < n {
		n = w
	}
	rgb := make([]byte, 0, 3*max(n, 0))
	for x := 0; x < n; x++ {
		c := color.NRGBAModel.Convert(src.At(sp.X+x, sp.Y)).(color.NRGBA)
		rgb = append(rgb, c.R, c.G, c.B)
	}
	d.s.broadcastFrame(rgb)
	return nil
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"count":    s.count,
	}
	s.mu.RUnlock()
	if s.Status != nil {
		st := s.Status()
		resp["pattern"] = st.Pattern
		resp["step"] = st.Step
		resp["running"] = st.Running
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *Server) broadcastFrame(rgb []byte) {
	s.mu.Lock()
	s.frameID++
	id := s.frameID
	s.mu.Unlock()

	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})

	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

// FrameID is the number of frames broadcast so far.
func (s *Server) FrameID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frameID
}
