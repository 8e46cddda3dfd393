package httpapi

import "net/http"

func (s *Server) handleAllStreams(w http.ResponseWriter, r *http.Request) {
	if s.Streams == nil {
		writeJSONError(w, http.StatusInternalServerError, "stream tracker unavailable")
		return
	}
	writeJSON(w, s.Streams.AllStreams())
}

func (s *Server) handleStreamInfo(w http.ResponseWriter, r *http.Request) {
	if s.Streams == nil {
		writeJSONError(w, http.StatusInternalServerError, "stream tracker unavailable")
		return
	}
	info, err := s.Streams.Info(r.PathValue("id"))
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, info)
}

func (s *Server) handleCloseStream(w http.ResponseWriter, r *http.Request) {
	if s.Streams == nil {
		writeJSONError(w, http.StatusInternalServerError, "stream tracker unavailable")
		return
	}
	if err := s.Streams.Remove(r.PathValue("id")); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]string{"status": "closed"})
}
