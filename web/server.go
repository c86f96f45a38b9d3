package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"football-trends/config"
	"football-trends/logger"
	"football-trends/services"
)

// PredictionHistory lists stored predictions. *services.PredictionStore
// satisfies it.
type PredictionHistory interface {
	Recent(ctx context.Context, limit, offset, team int) ([]services.PredictionEvent, error)
}

type Server struct {
	config     *config.Config
	analysis   *services.AnalysisService
	cache      *services.QueryCache
	history    PredictionHistory
	wsHub      *Hub
	httpServer *http.Server
	upgrader   websocket.Upgrader
	log        *logrus.Entry
	started    time.Time
}

// NewServer builds the HTTP surface. history may be nil when no database
// is configured.
func NewServer(cfg *config.Config, svc *services.AnalysisService, cache *services.QueryCache, history PredictionHistory, hub *Hub) *Server {
	return &Server{
		config:   cfg,
		analysis: svc,
		cache:    cache,
		history:  history,
		wsHub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // dashboard is served from a different origin
			},
		},
		log:     logger.With("web"),
		started: time.Now(),
	}
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/model", s.handleModel).Methods("GET")
	api.HandleFunc("/teams", s.handleTeams).Methods("GET")
	api.HandleFunc("/teams/{team_id:[0-9]+}/report", s.handleTeamReport).Methods("GET")
	api.HandleFunc("/compare", s.handleCompare).Methods("GET")
	api.HandleFunc("/fixtures", s.handleFixtures).Methods("GET")
	api.HandleFunc("/fixtures/{fixture_id:[0-9]+}/prediction", s.handleFixturePrediction).Methods("GET")
	api.HandleFunc("/predictions", s.handlePredictions).Methods("GET")
	api.HandleFunc("/cache/stats", s.handleCacheStats).Methods("GET")
	api.HandleFunc("/cache", s.handleCacheClear).Methods("DELETE")

	router.HandleFunc("/ws", s.handleWebSocket)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithField("addr", s.httpServer.Addr).Info("listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("shutdown failed")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newClient(s.wsHub, conn)
	client.send <- marshalMessage(&WSMessage{
		Type:      "connected",
		Timestamp: time.Now().Unix(),
		Data: map[string]interface{}{
			"message": "Connected to football trends",
		},
	})
	if !client.hub.add(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
