package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/duelcraft/battle-server-go/internal/game"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BattleAdmin starts and closes battles for already paired accounts.
type BattleAdmin interface {
	StartBattle(ctx context.Context, first, second int, decks map[int][]int) (string, error)
	CloseBattle(roomID string) error
}

type startBattleRequest struct {
	First  int              `json:"first" binding:"required"`
	Second int              `json:"second" binding:"required"`
	Decks  map[string][]int `json:"decks" binding:"required"`
}

// NewRouter builds the HTTP surface: the protocol WebSocket, a health
// probe and the battle admin endpoints.
func NewRouter(hub *Hub, battles BattleAdmin, allowedOrigins []string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(allowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", hub.ServeWS)

	api := r.Group("/battles")
	{
		api.POST("", startBattleHandler(battles, logger))
		api.DELETE("/:roomID", closeBattleHandler(battles, logger))
	}
	return r
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

func startBattleHandler(battles BattleAdmin, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startBattleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		decks := make(map[int][]int, len(req.Decks))
		for key, deck := range req.Decks {
			accountID, err := strconv.Atoi(key)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "deck keys must be account ids"})
				return
			}
			decks[accountID] = deck
		}

		roomID, err := battles.StartBattle(c.Request.Context(), req.First, req.Second, decks)
		if err != nil {
			logger.Warn("failed to start battle",
				zap.Int("first", req.First),
				zap.Int("second", req.Second),
				zap.Error(err),
			)
			c.JSON(statusFor(err), gin.H{"error": category(err)})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"room_id": roomID})
	}
}

func closeBattleHandler(battles BattleAdmin, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomID")
		if err := battles.CloseBattle(roomID); err != nil {
			logger.Warn("failed to close battle",
				zap.String("room_id", roomID),
				zap.Error(err),
			)
			c.JSON(statusFor(err), gin.H{"error": category(err)})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrProtocolViolation):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrRuleViolation):
		return http.StatusConflict
	case errors.Is(err, game.ErrAuthentication):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
