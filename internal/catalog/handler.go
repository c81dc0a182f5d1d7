package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/nzcvm/nzcvm-webapp/internal/logging"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

func (h *Handler) InitRoutes(r *mux.Router) {
	r.HandleFunc("/model-versions/list", h.ListModelVersions).Methods("GET")
	r.HandleFunc("/geojson/list", h.ListOverlays).Methods("GET")
	r.HandleFunc("/geojson/{filename}", h.ServeOverlay).Methods("GET")
}

func (h *Handler) ListModelVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.catalog.ModelVersions()
	if err != nil {
		h.listError(w, r, "list model versions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"model_versions": versions})
}

func (h *Handler) ListOverlays(w http.ResponseWriter, r *http.Request) {
	files, err := h.catalog.OverlayFiles()
	if err != nil {
		h.listError(w, r, "list overlays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

func (h *Handler) listError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, ErrDirNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	logging.From(r.Context()).Error(msg, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// ServeOverlay returns one overlay file after checking it parses as JSON.
func (h *Handler) ServeOverlay(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	log := logging.From(r.Context()).With(zap.String("file", name))

	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		log.Warn("rejected overlay name")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid filename"})
		return
	}

	data, err := os.ReadFile(filepath.Join(h.catalog.GeoJSONDir(), name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
			return
		}
		log.Error("read overlay", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if !strings.HasSuffix(name, ".geojson") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "File must be a .geojson file"})
		return
	}
	if !json.Valid(data) {
		log.Warn("overlay is not valid JSON")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid GeoJSON file"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
