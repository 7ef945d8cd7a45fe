// Package restserver serves growd's status API: room state, stage targets,
// recent events, and stored history.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/opengrow-box/growd/internal/events"
	"github.com/opengrow-box/growd/internal/log"
	"github.com/opengrow-box/growd/internal/room"
	"github.com/opengrow-box/growd/internal/storage/timescaledb"
	"github.com/opengrow-box/growd/pkg/config"
	"go.uber.org/zap"
)

// RoomProvider is the view of the room manager the REST handlers need.
type RoomProvider interface {
	Controllers() []*room.Controller
	GetController(name string) *room.Controller
	RecentEvents() *events.MemorySink
}

// Controller represents the REST server controller.
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	rooms      RoomProvider
	history    *timescaledb.Storage
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller. history may be nil
// when no TimescaleDB backend is configured; the history endpoint then
// returns 404.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, rooms RoomProvider, history *timescaledb.Storage, logger *zap.SugaredLogger) (*Controller, error) {
	if rooms == nil {
		return nil, fmt.Errorf("REST server requires a room provider")
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		rooms:      rooms,
		history:    history,
		logger:     logger.Named("restserver"),
	}

	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl.handlers = NewHandlers(ctrl)
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()

	return ctrl, nil
}

// StartController starts the REST server.
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.Cert != "" && c.restConfig.Key != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.Cert, c.restConfig.Key); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints.
func (c *Controller) setupRouter() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/rooms", c.handlers.GetRooms).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room}/latest", c.handlers.GetRoomLatest).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room}/stage", c.handlers.GetRoomStage).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room}/events", c.handlers.GetRoomEvents).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{room}/history", c.handlers.GetRoomHistory).Methods(http.MethodGet)

	var handler http.Handler = handlers.LoggingHandler(&zapLogWriter{c.logger}, router)
	if c.restConfig.EnableCORS {
		handler = handlers.CORS(
			handlers.AllowedOrigins([]string{"*"}),
			handlers.AllowedMethods([]string{http.MethodGet}),
		)(handler)
	}
	return handler
}

// zapLogWriter routes the access log into zap.
type zapLogWriter struct {
	logger *zap.SugaredLogger
}

func (w *zapLogWriter) Write(p []byte) (int, error) {
	w.logger.Debug(string(p))
	return len(p), nil
}
