package remote

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cleanstreak/internal/storage"
)

// Server hosts the replica service consumed by HTTPClient. Records are kept
// in a durable store adapter under one key per user, so the same substrates
// (sqlite, badger) back the server side too.
type Server struct {
	adapter *storage.Adapter
	log     *slog.Logger
	now     func() time.Time
}

func NewServer(adapter *storage.Adapter, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{adapter: adapter, log: log, now: time.Now}
}

func replicaKey(userID string) string { return "replica_" + userID }

// Routes builds the gin handler tree.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/v1/streaks/:user", s.handleGet)
	r.PUT("/v1/streaks/:user", s.handleUpsert)
	return r
}

func (s *Server) handleGet(c *gin.Context) {
	userID := c.Param("user")
	var payload replicaPayload
	if !s.adapter.Get(c.Request.Context(), replicaKey(userID), &payload) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no replica for user"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleUpsert(c *gin.Context) {
	userID := c.Param("user")

	var payload replicaPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed replica payload"})
		return
	}
	if payload.Count < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "streak count must be non-negative"})
		return
	}

	payload.UserID = userID
	payload.UpdatedAt = s.now()
	s.adapter.Set(c.Request.Context(), replicaKey(userID), payload)
	s.log.Info("replica upserted", "user", userID, "count", payload.Count)
	c.JSON(http.StatusOK, payload)
}
