package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jpalmerr/tcup/internal/configstore"
)

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.configs.List())
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var d configstore.Draft
	if err := decodeBody(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := s.configs.Add(r.Context(), d)
	if err != nil {
		s.logger.Error("failed to add config", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save config")
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// handleUpdateConfig replaces name, description and threshold. An unknown id
// is a silent no-op, answered like a successful update.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}

	var d configstore.Draft
	if err := decodeBody(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	found, err := s.configs.Update(r.Context(), configstore.MonitorConfig{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Threshold:   d.Threshold,
	})
	if err != nil {
		s.logger.Error("failed to update config", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save config")
		return
	}
	if !found {
		s.logger.Debug("update of unknown config ignored", "id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := configID(w, r)
	if !ok {
		return
	}

	if err := s.configs.Delete(r.Context(), id); err != nil {
		s.logger.Error("failed to delete config", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.GetAll())
}

func configID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid config id")
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}
