package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/kismetwireless/kismet-core/internal/gps"
)

type gpsSourceView struct {
	Name     string  `json:"name"`
	DataOnly bool    `json:"data_only"`
	State    string  `json:"state"`
	Valid    bool    `json:"valid"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Alt      float64 `json:"alt"`
	Fix      int     `json:"fix"`
}

func toGPSSourceView(src gps.Source, now time.Time) gpsSourceView {
	loc := src.Location()
	return gpsSourceView{
		Name:     src.Name(),
		DataOnly: src.DataOnly(),
		State:    src.State().String(),
		Valid:    src.LocationValid(now),
		Lat:      loc.Lat,
		Lon:      loc.Lon,
		Alt:      loc.Alt,
		Fix:      int(loc.Fix),
	}
}

func (s *Server) handleGPSDrivers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []string{"serial", "tcp", "gpsd", "virtual", "web", "meta"})
}

func (s *Server) handleAllGPS(w http.ResponseWriter, r *http.Request) {
	if s.GPS == nil {
		writeJSONError(w, http.StatusInternalServerError, "gps tracker unavailable")
		return
	}
	now := time.Now()
	sources := s.GPS.Sources()
	out := make([]gpsSourceView, 0, len(sources))
	for _, src := range sources {
		out = append(out, toGPSSourceView(src, now))
	}
	writeJSON(w, out)
}

func (s *Server) handleGPSLocation(w http.ResponseWriter, r *http.Request) {
	if s.GPS == nil {
		writeJSONError(w, http.StatusInternalServerError, "gps tracker unavailable")
		return
	}
	loc, ok := s.GPS.BestLocation(time.Now())
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no valid gps fix")
		return
	}
	writeJSON(w, loc)
}

// findWebSource locates the one "web" driver registered with the
// tracker, since /gps/web/update has no per-source addressing of its
// own.
func (s *Server) findWebSource() (*gps.WebSource, bool) {
	if s.GPS == nil {
		return nil, false
	}
	for _, src := range s.GPS.Sources() {
		if ws, ok := src.(*gps.WebSource); ok {
			return ws, true
		}
	}
	return nil, false
}

func (s *Server) handleGPSWebUpdate(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.findWebSource()
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no web gps source open")
		return
	}
	var fix gps.WebFix
	if err := decodeJSONBody(r, &fix); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "bad request body")
		return
	}
	ws.Push(fix)
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGPSWebSocketUpdate(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.findWebSource()
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no web gps source open")
		return
	}
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		logf("gps web update accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	for {
		var fix gps.WebFix
		if err := websocketReadJSON(ctx, conn, &fix); err != nil {
			return
		}
		ws.Push(fix)
	}
}

func websocketReadJSON(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
