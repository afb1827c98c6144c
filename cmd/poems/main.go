package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/versebook/versebook/internal/database"
	"github.com/versebook/versebook/internal/oidc"
	"github.com/versebook/versebook/internal/poems/handler"
	"github.com/versebook/versebook/internal/poems/repository"
	"github.com/versebook/versebook/internal/poems/service"
	"github.com/versebook/versebook/internal/render"
	"github.com/versebook/versebook/pkg/middleware"
)

// Standalone poems service for local development and integration tests.
// Tokens are parsed without signature verification, so this binary must
// never face the internet.
func main() {
	port := os.Getenv("POEMS_SERVICE_PORT")
	if port == "" {
		port = "5010"
	}
	glob := os.Getenv("TEMPLATE_GLOB")
	if glob == "" {
		glob = "web/templates/*.tmpl"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.LoadHTMLGlob(glob)

	// Prefer a Mongo-backed store when MONGODB_URI is provided.
	var svc service.Service
	if mongoURI := os.Getenv("MONGODB_URI"); mongoURI != "" {
		client, err := database.ConnectMongo(context.Background(), mongoURI, 10*time.Second)
		if err != nil {
			log.Printf("warning: cannot connect to MongoDB (%v), using memory-backed store", err)
			svc = service.NewMemoryService()
		} else {
			db := client.Database(os.Getenv("MONGODB_DATABASE"))
			svc = service.New(repository.NewMongoRepo(db.Collection("poems"), "users"))
		}
	} else {
		svc = service.NewMemoryService()
	}

	auth := middleware.AuthMiddleware(oidc.NewInsecureVerifier())
	h := handler.New(svc, render.NewHTMLRenderer(), nil)
	h.Register(r.Group("/poems", auth))
	h.RegisterDashboard(r.Group("/", auth))

	log.Printf("poems service listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
