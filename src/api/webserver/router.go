package webserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/verdant-dao/carbon-claims/src/api/config"
	"github.com/verdant-dao/carbon-claims/src/ledger"
	"gorm.io/gorm"
)

// New builds the HTTP surface over the sync coordinator and tally engine.
func New(cfg config.Config, db *gorm.DB, rdb *redis.Client, lc ledger.Client, ids ledger.ObjectIDs, coord *ledger.Coordinator, engine *ledger.TallyEngine) *gin.Engine {
	r := gin.Default()
	attachRoutes(r, cfg, db, rdb, lc, ids, coord, engine)
	return r
}

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client, lc ledger.Client, ids ledger.ObjectIDs, coord *ledger.Coordinator, engine *ledger.TallyEngine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	authH := NewAuth(rdb, []byte(cfg.JWTSecret))
	claimsH := NewClaims(coord, lc, ids)
	votesH := NewVotes(db, rdb, engine, coord, ids)
	orgsH := NewOrgs(db, lc, ids)

	// Actions that reach the ledger are throttled per address.
	actionLimiter := NewRateLimiter(10, time.Minute)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/challenge", authH.Challenge)
		v1.POST("/auth/verify", authH.Verify)

		secured := v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
		secured.GET("/claims", claimsH.List)
		secured.GET("/claims/:id", claimsH.Get)
		secured.POST("/claims", RateLimitMiddleware(actionLimiter), claimsH.Create)
		secured.POST("/claims/refresh", RateLimitMiddleware(actionLimiter), claimsH.Refresh)
		secured.POST("/votes", RateLimitMiddleware(actionLimiter), votesH.Cast)
		secured.GET("/orgs", orgsH.List)
		secured.GET("/orgs/:id", orgsH.Get)
		secured.POST("/orgs", RateLimitMiddleware(actionLimiter), orgsH.Register)
		secured.POST("/lend", RateLimitMiddleware(actionLimiter), orgsH.Lend)
	}
}
