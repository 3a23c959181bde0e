// pkg/server/handlers.go

package server

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"AveList/pkg/chunk"
	"AveList/pkg/dataset"
	"AveList/pkg/version"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const defaultLimit = 40

type handlers struct {
	ds   dataset.Dataset
	conf *Config
}

type pageResponse struct {
	Success bool         `json:"success"`
	Data    []chunk.Item `json:"data"`
	Meta    dataset.Meta `json:"meta"`
}

// withDelay sleeps a random time in [DelayMin, DelayMax] before serving,
// giving up when the client goes away.
func (h *handlers) withDelay(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := h.conf.DelayMin
		if spread := h.conf.DelayMax - h.conf.DelayMin; spread > 0 {
			d += time.Duration(rand.Int63n(int64(spread)))
		}
		if d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-r.Context().Done():
				t.Stop()
				logger.Debugf("client left %s during delay", r.URL.RequestURI())
				return
			}
		}
		next(w, r)
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}

func window(r *http.Request) (int, int, error) {
	start, err := intParam(r, "start", 0)
	if err != nil {
		return 0, 0, err
	}
	limit, err := intParam(r, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	if start < 0 || limit <= 0 {
		return 0, 0, errors.Errorf("invalid window start=%d limit=%d", start, limit)
	}
	return start, limit, nil
}

func (h *handlers) failed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logger.Errorf("%s %s: %s", r.Method, r.URL.RequestURI(), err)
	writeError(w, r, http.StatusInternalServerError, err.Error())
}

func (h *handlers) data(w http.ResponseWriter, r *http.Request) {
	start, limit, err := window(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.ds.Slice(r.Context(), start, limit)
	if err != nil {
		h.failed(w, r, err)
		return
	}
	logger.Debugf("data start=%d, limit=%d, returned=%d", start, limit, p.Meta.Returned)
	writeJSON(w, r, http.StatusOK, pageResponse{Success: true, Data: p.Items, Meta: p.Meta})
}

func (h *handlers) count(w http.ResponseWriter, r *http.Request) {
	total, err := h.ds.Total(r.Context())
	if err != nil {
		h.failed(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"success": true, "total": total})
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	start, limit, err := window(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	keyword := r.URL.Query().Get("keyword")
	p, err := h.ds.Search(r.Context(), keyword, start, limit)
	if err != nil {
		h.failed(w, r, err)
		return
	}
	logger.Debugf("search keyword=%q, returned=%d", keyword, p.Meta.Returned)
	writeJSON(w, r, http.StatusOK, pageResponse{Success: true, Data: p.Items, Meta: p.Meta})
}

func (h *handlers) item(w http.ResponseWriter, r *http.Request) {
	it, err := h.ds.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, dataset.ErrNotFound) {
		writeJSON(w, r, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Item not found"})
		return
	}
	if err != nil {
		h.failed(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{"success": true, "data": it})
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message": "AveList API Server",
		"version": version.Version(),
		"endpoints": map[string]interface{}{
			"virtualList": map[string]interface{}{
				"base": "/api/virtual-list",
				"routes": []string{
					"GET /data?start=0&limit=40 - fetch a chunk",
					"GET /data/count - number of items",
					"GET /data/search?keyword=xxx - search items",
					"GET /data/:id - fetch one item",
				},
			},
		},
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	total, err := h.ds.Total(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable", "timestamp": time.Now().UnixMilli(), "error": err.Error(),
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
		"dataCount": total,
		"dataset":   h.ds.Name(),
	})
}
