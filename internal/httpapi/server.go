// Package httpapi exposes the server's subsystems over a thin
// net/http.ServeMux of JSON routes per subsystem, plus a go-echarts
// HTML view of the field registry and tsweb debug routes.
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"tailscale.com/tsweb"

	"github.com/kismetwireless/kismet-core/internal/datasource"
	"github.com/kismetwireless/kismet-core/internal/devicetracker"
	"github.com/kismetwireless/kismet-core/internal/entity"
	"github.com/kismetwireless/kismet-core/internal/gps"
	"github.com/kismetwireless/kismet-core/internal/monitoring"
	"github.com/kismetwireless/kismet-core/internal/streamtracker"
)

var logf = monitoring.Component("httpapi")

// Server wires every tracked subsystem into one HTTP surface.
type Server struct {
	Sources  *datasource.Tracker
	Devices  *devicetracker.Tracker
	Views    *devicetracker.Engine
	Streams  *streamtracker.Tracker
	GPS      *gps.Tracker
	Registry *entity.Registry

	started time.Time
}

// NewServer builds a Server over already-constructed subsystem
// trackers. Any field may be left nil in a test harness exercising one
// route group; JSON routes touching a nil dependency respond 500.
func NewServer(sources *datasource.Tracker, devices *devicetracker.Tracker, views *devicetracker.Engine, streams *streamtracker.Tracker, gpsTracker *gps.Tracker, registry *entity.Registry) *Server {
	return &Server{
		Sources:  sources,
		Devices:  devices,
		Views:    views,
		Streams:  streams,
		GPS:      gpsTracker,
		Registry: registry,
		started:  time.Now(),
	}
}

// ServeMux builds the routed mux described in .
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /datasource/all_sources", s.handleAllSources)
	mux.HandleFunc("POST /datasource/all_sources", s.handleAllSources)
	mux.HandleFunc("GET /datasource/defaults", s.handleSourceDefaults)
	mux.HandleFunc("POST /datasource/defaults", s.handleSourceDefaults)
	mux.HandleFunc("GET /datasource/types", s.handleSourceTypes)
	mux.HandleFunc("POST /datasource/types", s.handleSourceTypes)
	mux.HandleFunc("GET /datasource/list_interfaces", s.handleListInterfaces)
	mux.HandleFunc("POST /datasource/list_interfaces", s.handleListInterfaces)
	mux.HandleFunc("GET /datasource/by-uuid/{uuid}/source", s.handleSourceByUUID)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/source", s.handleSourceByUUID)
	mux.HandleFunc("POST /datasource/add_source", s.handleAddSource)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/set_channel", s.handleSetChannel)
	mux.HandleFunc("GET /datasource/by-uuid/{uuid}/set_hop", s.handleSetHop)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/set_hop", s.handleSetHop)
	mux.HandleFunc("GET /datasource/by-uuid/{uuid}/close_source", s.handleCloseSource)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/close_source", s.handleCloseSource)
	mux.HandleFunc("GET /datasource/by-uuid/{uuid}/open_source", s.handleOpenSource)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/open_source", s.handleOpenSource)
	mux.HandleFunc("GET /datasource/by-uuid/{uuid}/pause_source", s.handlePauseSource)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/pause_source", s.handlePauseSource)
	mux.HandleFunc("GET /datasource/by-uuid/{uuid}/resume_source", s.handleResumeSource)
	mux.HandleFunc("POST /datasource/by-uuid/{uuid}/resume_source", s.handleResumeSource)
	mux.HandleFunc("/datasource/remote/remotesource", func(w http.ResponseWriter, r *http.Request) {
		if s.Sources == nil {
			writeJSONError(w, http.StatusInternalServerError, "datasource tracker unavailable")
			return
		}
		s.Sources.HandleWebSocket(w, r)
	})

	mux.HandleFunc("GET /devices/views/all_views", s.handleAllViews)
	mux.HandleFunc("POST /devices/views/all_views", s.handleAllViews)
	mux.HandleFunc("GET /devices/views/{id}/devices", s.handleViewDevices)
	mux.HandleFunc("POST /devices/views/{id}/devices", s.handleViewDevices)
	mux.HandleFunc("GET /devices/views/{id}/last-time/{sec}/devices", s.handleViewDevicesSince)
	mux.HandleFunc("POST /devices/multimac/devices", s.handleMultimacDevices)

	mux.HandleFunc("GET /phy/all_phys", s.handleAllPhys)
	mux.HandleFunc("POST /phy/all_phys", s.handleAllPhys)

	mux.HandleFunc("GET /streams/all_streams", s.handleAllStreams)
	mux.HandleFunc("POST /streams/all_streams", s.handleAllStreams)
	mux.HandleFunc("GET /streams/by-id/{id}/stream_info", s.handleStreamInfo)
	mux.HandleFunc("POST /streams/by-id/{id}/stream_info", s.handleStreamInfo)
	mux.HandleFunc("GET /streams/by-id/{id}/close_stream", s.handleCloseStream)
	mux.HandleFunc("POST /streams/by-id/{id}/close_stream", s.handleCloseStream)

	mux.HandleFunc("GET /gps/drivers", s.handleGPSDrivers)
	mux.HandleFunc("POST /gps/drivers", s.handleGPSDrivers)
	mux.HandleFunc("GET /gps/all_gps", s.handleAllGPS)
	mux.HandleFunc("POST /gps/all_gps", s.handleAllGPS)
	mux.HandleFunc("GET /gps/location", s.handleGPSLocation)
	mux.HandleFunc("POST /gps/location", s.handleGPSLocation)
	mux.HandleFunc("POST /gps/web/update", s.handleGPSWebUpdate)
	mux.HandleFunc("/gps/web/update/ws", s.handleGPSWebSocketUpdate)

	mux.HandleFunc("GET /system/tracked_fields", s.handleTrackedFields)

	s.attachAdminRoutes(mux)

	return mux
}

// attachAdminRoutes registers /debug/* introspection endpoints: a
// handful of named, linked debug handlers hung off tsweb.Debugger.
func (s *Server) attachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("sources", "open data sources", func(w http.ResponseWriter, r *http.Request) {
		if s.Sources == nil {
			fmt.Fprintln(w, "datasource tracker unavailable")
			return
		}
		for _, src := range s.Sources.Sources() {
			fmt.Fprintf(w, "%d %s %s %s\n", src.Number, src.UUID, src.Definition.Iface, sourceStateString(src.State()))
		}
	})

	debug.HandleFunc("phys", "registered phy types and counters", func(w http.ResponseWriter, r *http.Request) {
		if s.Devices == nil {
			fmt.Fprintln(w, "device tracker unavailable")
			return
		}
		for _, p := range s.Devices.AllPhys() {
			fmt.Fprintf(w, "%d %s packets=%d errors=%d\n", p.ID, p.Name, p.Counters.Packets.Load(), p.Counters.Errors.Load())
		}
	})

	debug.HandleFunc("uptime", "server uptime", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, time.Since(s.started))
	})
}

// LoggingMiddleware logs method, path, status, and duration for every
// request, using monitoring.Component to prefix every line with the
// subsystem name.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logf("%s %s -> %d (%s)", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
