package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sonnes/sutradhar/core"
	"github.com/sonnes/sutradhar/reader/jsonl"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json"
}

func (srv *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logs, err := srv.reader.ReadAll()
	if err != nil {
		srv.logger.Error("read sessions", "err", err)
		writeError(w, http.StatusInternalServerError, "cannot read sessions")
		return
	}

	entries := make([]core.ManifestEntry, 0, len(logs))
	for _, l := range logs {
		t, err := srv.snapshot(l)
		if err != nil {
			srv.logger.Warn("skipping session", "session_id", l.SessionID, "err", err)
			continue
		}
		entries = append(entries, core.NewManifestEntry(&t, "/session/"+l.SessionID))
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		if err := srv.json.RenderIndex(w, entries); err != nil {
			srv.logger.Error("render index", "err", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := srv.html.RenderIndex(w, entries); err != nil {
		srv.logger.Error("render index", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (srv *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	l, err := srv.reader.ReadSession(id)
	if errors.Is(err, jsonl.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		srv.logger.Error("read session", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "cannot read session")
		return
	}

	t, err := srv.snapshot(l)
	if err != nil {
		srv.logger.Error("snapshot session", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "cannot build session")
		return
	}

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		if err := srv.json.Render(w, &t); err != nil {
			srv.logger.Error("render session", "session_id", id, "err", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := srv.html.Render(w, &t); err != nil {
		srv.logger.Error("render session", "session_id", id, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
