package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keybot/keyhub/internal/config"
	"keybot/keyhub/internal/handler/middleware"
	"keybot/keyhub/internal/repository"
	jwtpkg "keybot/keyhub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	replayStore repository.ReplayStore,
	keyHandler *KeyHandler,
	guildHandler *GuildHandler,
	claimHandler *ClaimHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Every API call acts as the member named by the token.
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager))
	api.Use(middleware.Idempotency(replayStore, cfg.Idempotency.TTL, logger))
	{
		api.POST("/keys", keyHandler.Register)
		api.DELETE("/keys", keyHandler.Remove)
		api.GET("/keys", keyHandler.List)
		api.POST("/keys/classify", keyHandler.Classify)

		guild := api.Group("/guilds/:guild_id")
		guild.POST("/members", guildHandler.Join)
		guild.DELETE("/members", guildHandler.Leave)

		// Reading a guild and claiming from its pool is for its members only.
		members := guild.Group("", guildHandler.RequireMembership)
		members.GET("/members", guildHandler.ListMembers)
		members.GET("/keys", guildHandler.ListKeys)
		members.POST("/claims", claimHandler.Claim)
	}

	return r
}
