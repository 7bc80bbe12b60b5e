package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamed0406/deviceping/internal/domain"
	apimw "github.com/hamed0406/deviceping/internal/httpapi/middleware"
	"github.com/hamed0406/deviceping/internal/repo"
)

// Pinger evaluates device reachability.
type Pinger interface {
	Ping(ctx context.Context, id domain.DeviceID) (*domain.PingResponse, error)
}

type Server struct {
	Logger     *zap.Logger
	Devices    repo.DeviceStore
	Attributes repo.AttributeStore
	Pinger     Pinger
}

func NewServer(l *zap.Logger, ds repo.DeviceStore, as repo.AttributeStore, p Pinger) *Server {
	return &Server{Logger: l, Devices: ds, Attributes: as, Pinger: p}
}

// Router wires routes. Read routes take any key, write routes need an admin key.
// An empty origins list allows every origin.
func (s *Server) Router(keys apimw.Keys, origins []string, pubRPM, pubBurst, admRPM, admBurst int) http.Handler {
	r := chi.NewRouter()
	if len(origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAny(keys), apimw.RateLimit(pubRPM, pubBurst))
		r.Get("/api/device/ping/{deviceId}", s.handlePing)
		r.Get("/api/devices", s.handleListDevices)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RequireAdmin(keys), apimw.RateLimit(admRPM, admBurst))
		r.Post("/api/devices", s.handleAddDevice)
		r.Post("/api/devices/{deviceId}/activity", s.handleActivity)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// deviceID reads and validates the {deviceId} path parameter.
func deviceID(w http.ResponseWriter, r *http.Request) (domain.DeviceID, bool) {
	raw := chi.URLParam(r, "deviceId")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Parameter 'deviceId' can't be empty!")
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid UUID string: "+raw)
		return "", false
	}
	return domain.DeviceID(id.String()), true
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	res, err := s.Pinger.Ping(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Device with requested id wasn't found!")
		return
	}
	if err != nil {
		s.Logger.Error("device_ping_error", zap.String("device_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to ping device")
		return
	}
	s.Logger.Info("device_pinged",
		zap.String("device_id", res.DeviceID),
		zap.Bool("reachable", res.Reachable),
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ds, err := s.Devices.List(r.Context())
	if err != nil {
		s.Logger.Error("list_devices_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list error")
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type addPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || strings.TrimSpace(p.Name) == "" {
		writeError(w, http.StatusBadRequest, "Device name should be specified!")
		return
	}

	id := uuid.New()
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid UUID string: "+p.ID)
			return
		}
		id = parsed
	}

	d := &domain.Device{
		ID:        domain.DeviceID(id.String()),
		Name:      strings.TrimSpace(p.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Devices.Add(r.Context(), d); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Device with such id already exists!")
			return
		}
		s.Logger.Error("add_device_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not add")
		return
	}

	s.Logger.Info("added_device",
		zap.String("device_id", string(d.ID)),
		zap.String("device_name", d.Name),
	)
	writeJSON(w, http.StatusOK, d)
}

type activityPayload struct {
	TS     *time.Time `json:"ts"`
	Active *bool      `json:"active"`
}

// handleActivity records a heartbeat. An empty body means "active now".
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	var p activityPayload
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "bad payload")
			return
		}
	}
	at := time.Now().UTC()
	if p.TS != nil {
		at = p.TS.UTC()
	}

	err := s.Attributes.RecordActivity(r.Context(), id, at)
	if err == nil && p.Active != nil {
		err = s.Attributes.SetActive(r.Context(), id, *p.Active)
	}
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Device with requested id wasn't found!")
		return
	}
	if err != nil {
		s.Logger.Error("record_activity_error", zap.String("device_id", string(id)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not record activity")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
