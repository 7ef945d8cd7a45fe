package restserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/opengrow-box/growd/internal/room"
	"github.com/opengrow-box/growd/internal/stage"
	"github.com/opengrow-box/growd/internal/types"
	"github.com/opengrow-box/growd/pkg/responseformat"
)

// Handlers holds the HTTP request handlers.
type Handlers struct {
	ctrl      *Controller
	formatter *responseformat.Formatter
}

// NewHandlers creates the handler set for a controller.
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		ctrl:      ctrl,
		formatter: responseformat.NewFormatter(),
	}
}

// roomSummary is the list-view representation of a room.
type roomSummary struct {
	Name    string             `json:"name"`
	Mode    string             `json:"mode"`
	Outcome types.CycleOutcome `json:"last_outcome,omitempty"`
	Updated *time.Time         `json:"updated,omitempty"`
}

// GetHealth reports liveness.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"})
}

// GetRooms lists all managed rooms with their last cycle outcome.
func (h *Handlers) GetRooms(w http.ResponseWriter, req *http.Request) {
	controllers := h.ctrl.rooms.Controllers()
	out := make([]roomSummary, 0, len(controllers))
	for _, c := range controllers {
		s := roomSummary{
			Name: c.Name(),
			Mode: c.Config().Mode,
		}
		if snap := c.Snapshot(); snap != nil {
			s.Outcome = snap.Outcome
			t := snap.State.Timestamp
			s.Updated = &t
		}
		out = append(out, s)
	}
	h.formatter.WriteResponse(w, req, out)
}

// GetRoomLatest returns the most recent cycle snapshot for one room.
func (h *Handlers) GetRoomLatest(w http.ResponseWriter, req *http.Request) {
	c := h.roomController(w, req)
	if c == nil {
		return
	}
	snap := c.Snapshot()
	if snap == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no cycle has completed yet")
		return
	}
	h.formatter.WriteResponse(w, req, snap)
}

// stageResponse pairs the room's grow metadata with the resolved week
// targets.
type stageResponse struct {
	Room      string           `json:"room"`
	PlantType string           `json:"plant_type"`
	Phase     string           `json:"phase"`
	Target    stage.WeekTarget `json:"target"`
}

// GetRoomStage returns the current growth-stage targets for one room.
func (h *Handlers) GetRoomStage(w http.ResponseWriter, req *http.Request) {
	c := h.roomController(w, req)
	if c == nil {
		return
	}
	target, err := c.StageInfo(time.Now())
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusConflict, err.Error())
		return
	}
	cfg := c.Config()
	h.formatter.WriteResponse(w, req, stageResponse{
		Room:      cfg.Name,
		PlantType: cfg.PlantType,
		Phase:     cfg.Phase,
		Target:    target,
	})
}

// GetRoomEvents returns recent cycle events for one room, newest first.
func (h *Handlers) GetRoomEvents(w http.ResponseWriter, req *http.Request) {
	c := h.roomController(w, req)
	if c == nil {
		return
	}
	limit := queryLimit(req, 50)
	events := h.ctrl.rooms.RecentEvents().Recent(c.Name(), limit)
	h.formatter.WriteResponse(w, req, events)
}

// GetRoomHistory returns stored snapshots for one room, newest first.
// Requires a configured history backend.
func (h *Handlers) GetRoomHistory(w http.ResponseWriter, req *http.Request) {
	c := h.roomController(w, req)
	if c == nil {
		return
	}
	if h.ctrl.history == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "no history storage configured")
		return
	}
	limit := queryLimit(req, 100)
	rows, err := h.ctrl.history.RecentSnapshots(req.Context(), c.Name(), limit)
	if err != nil {
		h.ctrl.logger.Errorw("History query failed", "room", c.Name(), "error", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "history query failed")
		return
	}
	h.formatter.WriteResponse(w, req, rows)
}

// roomController resolves the {room} path variable, writing a 404 when the
// room is unknown.
func (h *Handlers) roomController(w http.ResponseWriter, req *http.Request) *room.Controller {
	name := mux.Vars(req)["room"]
	c := h.ctrl.rooms.GetController(name)
	if c == nil {
		h.formatter.WriteError(w, req, http.StatusNotFound, "unknown room: "+name)
		return nil
	}
	return c
}

func queryLimit(req *http.Request, def int) int {
	v := req.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
