package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kismetwireless/kismet-core/internal/datasource"
)

// sourceView is the JSON shape for one tracked source ('s
// by-uuid/:uuid/source and all_sources).
type sourceView struct {
	UUID       string   `json:"uuid"`
	Number     int      `json:"source_number"`
	Interface  string   `json:"interface"`
	Type       string   `json:"type"`
	DriverType string   `json:"driver_type"`
	State      string   `json:"state"`
	Channel    string   `json:"channel"`
	Hopping    bool     `json:"hopping"`
	HopRate    float64  `json:"hop_rate"`
	Channels   []string `json:"channels,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func sourceStateString(st datasource.SourceState) string {
	switch st {
	case datasource.SourceOpening:
		return "opening"
	case datasource.SourceRunning:
		return "running"
	case datasource.SourcePaused:
		return "paused"
	case datasource.SourceError:
		return "error"
	case datasource.SourceClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func toSourceView(src *datasource.Source) sourceView {
	channel, hopping, hopRate := src.Channel()
	return sourceView{
		UUID:       src.UUID.String(),
		Number:     src.Number,
		Interface:  src.Definition.Iface,
		Type:       src.Definition.Type,
		DriverType: src.Driver.Class(),
		State:      sourceStateString(src.State()),
		Channel:    channel,
		Hopping:    hopping,
		HopRate:    hopRate,
		Channels:   src.AssignedChannels(),
		Error:      src.ErrorText(),
	}
}

func (s *Server) handleAllSources(w http.ResponseWriter, r *http.Request) {
	if s.Sources == nil {
		writeJSONError(w, http.StatusInternalServerError, "datasource tracker unavailable")
		return
	}
	sources := s.Sources.Sources()
	out := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		out = append(out, toSourceView(src))
	}
	writeJSON(w, out)
}

func (s *Server) handleSourceDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{})
}

func (s *Server) handleSourceTypes(w http.ResponseWriter, r *http.Request) {
	if s.Sources == nil {
		writeJSONError(w, http.StatusInternalServerError, "datasource tracker unavailable")
		return
	}
	writeJSON(w, s.Sources.ListInterfaces(r.Context()))
}

func (s *Server) handleListInterfaces(w http.ResponseWriter, r *http.Request) {
	if s.Sources == nil {
		writeJSONError(w, http.StatusInternalServerError, "datasource tracker unavailable")
		return
	}
	writeJSON(w, s.Sources.ListInterfaces(r.Context()))
}

func (s *Server) findSourceFromPath(w http.ResponseWriter, r *http.Request) (*datasource.Source, bool) {
	if s.Sources == nil {
		writeJSONError(w, http.StatusInternalServerError, "datasource tracker unavailable")
		return nil, false
	}
	id, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "invalid uuid")
		return nil, false
	}
	src, ok := s.Sources.Find(id)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "no such source")
		return nil, false
	}
	return src, true
}

func (s *Server) handleSourceByUUID(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, toSourceView(src))
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	if s.Sources == nil {
		writeJSONError(w, http.StatusInternalServerError, "datasource tracker unavailable")
		return
	}
	var body struct {
		Definition string `json:"definition"`
	}
	if err := decodeJSONBody(r, &body); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "bad request body")
		return
	}

	type result struct {
		src *datasource.Source
		err error
	}
	done := make(chan result, 1)
	s.Sources.Open(r.Context(), body.Definition, func(ok bool, err error, src *datasource.Source) {
		done <- result{src, err}
	})
	res := <-done
	if res.err != nil {
		writeJSONError(w, http.StatusInternalServerError, res.err.Error())
		return
	}
	writeJSON(w, toSourceView(res.src))
}

func (s *Server) handleSetChannel(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	var body struct {
		Channel string `json:"channel"`
	}
	if err := decodeJSONBody(r, &body); err != nil || body.Channel == "" {
		writeJSONError(w, http.StatusInternalServerError, "missing channel")
		return
	}
	src.SetChannel(body.Channel)
	writeJSON(w, toSourceView(src))
}

func (s *Server) handleSetHop(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	var body struct {
		Rate float64 `json:"rate"`
	}
	_ = decodeJSONBody(r, &body) // GET carries no body; re-enabling hop on the existing rate is fine
	rate := body.Rate
	if rate == 0 {
		_, _, rate = src.Channel()
	}
	if rate == 0 {
		rate = 1.0
	}
	src.SetHop(rate)
	writeJSON(w, toSourceView(src))
}

func (s *Server) handleCloseSource(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	s.Sources.Close(src.UUID)
	writeJSON(w, map[string]string{"status": "closed"})
}

func (s *Server) handleOpenSource(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	if src.State() != datasource.SourceClosed && src.State() != datasource.SourceError {
		writeJSONError(w, http.StatusInternalServerError, "source already running")
		return
	}

	type result struct {
		src *datasource.Source
		err error
	}
	done := make(chan result, 1)
	s.Sources.Open(r.Context(), src.Definition.Raw, func(ok bool, err error, opened *datasource.Source) {
		done <- result{opened, err}
	})
	res := <-done
	if res.err != nil {
		writeJSONError(w, http.StatusInternalServerError, res.err.Error())
		return
	}
	writeJSON(w, toSourceView(res.src))
}

func (s *Server) handlePauseSource(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	if src.State() == datasource.SourcePaused {
		writeJSONError(w, http.StatusInternalServerError, "already paused")
		return
	}
	src.Pause()
	writeJSON(w, toSourceView(src))
}

func (s *Server) handleResumeSource(w http.ResponseWriter, r *http.Request) {
	src, ok := s.findSourceFromPath(w, r)
	if !ok {
		return
	}
	if src.State() != datasource.SourcePaused {
		writeJSONError(w, http.StatusInternalServerError, "not paused")
		return
	}
	src.Resume()
	writeJSON(w, toSourceView(src))
}
