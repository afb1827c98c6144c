package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/versebook/versebook/handlers"
	"github.com/versebook/versebook/internal/config"
	"github.com/versebook/versebook/internal/database"
	"github.com/versebook/versebook/internal/oidc"
	poemhandler "github.com/versebook/versebook/internal/poems/handler"
	poemrepo "github.com/versebook/versebook/internal/poems/repository"
	poemservice "github.com/versebook/versebook/internal/poems/service"
	"github.com/versebook/versebook/internal/render"
	"github.com/versebook/versebook/internal/sessions"
	"github.com/versebook/versebook/internal/storage"
	"github.com/versebook/versebook/internal/users"
	"github.com/versebook/versebook/pkg/logger"
	"github.com/versebook/versebook/pkg/metrics"
	"github.com/versebook/versebook/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: oidc=%v mongo=%v redis=%v minio=%v",
		cfg.OIDC.IssuerURL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test. Production should use a
	// stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	// allow HTML forms to drive the PUT/DELETE poem routes
	r.Use(middleware.MethodOverride(r))

	r.LoadHTMLGlob(cfg.Server.TemplateGlob)
	r.Static("/static", "./web/static")
	renderer := render.NewHTMLRenderer()

	// shared runtime vars used by handlers/readiness
	var verifier middleware.Verifier
	var userSvc *users.Service
	var sessionsSvc *sessions.Service
	var poemSvc poemservice.Service

	// Connect to Redis early so the rate limiter and token blacklist can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the poem store and the auth gate are usable
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["poems"] = poemSvc != nil
		if poemSvc == nil {
			ready = false
		}
		deps["users"] = userSvc != nil
		deps["sessions"] = sessionsSvc != nil

		if cfg.OIDC.IssuerURL != "" {
			deps["oidc"] = verifier != nil
			if verifier == nil {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// OIDC verifier: the authentication gate in front of every poem route
	ctx := context.Background()
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		}
	}

	// MongoDB-backed repositories; memory-backed poems when unconfigured
	if cfg.MongoDB.URI != "" {
		// Retry/backoff to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
			poemSvc = poemservice.New(poemrepo.NewMongoRepo(db.Collection("poems"), "users"))

			if redisClient == nil {
				sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
			}
		}
	}
	if poemSvc == nil {
		logger.Warnf("MongoDB unavailable; using in-memory poem store")
		poemSvc = poemservice.NewMemoryService()
	}
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	}

	// Optional MinIO media store for poem cover images
	var media poemhandler.MediaStore
	if cfg.MinIO.Endpoint != "" {
		st, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			logger.Warnf("failed to initialize MinIO storage: %v", err)
		} else {
			media = st
		}
	}

	// Login/session backend
	if userSvc != nil && sessionsSvc != nil {
		h := handlers.NewAuthHandler(cfg, userSvc, sessionsSvc, verifier, renderer)
		h.Register(r.Group("/"))
	} else {
		logger.Warnf("auth handlers not registered because user/session services are unavailable")
	}

	handlers.RegisterSwagger(r)

	// Poem routes, all behind the auth gate
	if verifier != nil {
		ph := poemhandler.New(poemSvc, renderer, media)
		ph.Register(r.Group("/poems", middleware.AuthMiddleware(verifier)))
		ph.RegisterDashboard(r.Group("/", middleware.AuthMiddleware(verifier)))
	} else {
		logger.Warnf("poem routes not registered: no token verifier configured (set OIDC_* or ALLOW_INSECURE_TOKEN)")
	}

	api := r.Group("/api/v1")
	if verifier != nil {
		handlers.NewPoemAPI(poemSvc).Register(api.Group("/poems", middleware.AuthMiddleware(verifier)))
		api.GET("/me", middleware.AuthMiddleware(verifier), func(c *gin.Context) {
			claims, _ := c.Get("claims")
			if userSvc != nil {
				if cm, ok := claims.(map[string]interface{}); ok {
					u, err := userSvc.UpsertFromClaims(c.Request.Context(), cm)
					if err == nil && u != nil {
						c.JSON(http.StatusOK, gin.H{"user": u})
						return
					}
				}
			}
			c.JSON(http.StatusOK, gin.H{"claims": claims})
		})
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting versebook on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
