package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/vesaki/vesaki-server/api"
	"github.com/vesaki/vesaki-server/catalog"
	"github.com/vesaki/vesaki-server/config"
	"github.com/vesaki/vesaki-server/feed"
	"github.com/vesaki/vesaki-server/serp"
	"github.com/vesaki/vesaki-server/session"
	"github.com/vesaki/vesaki-server/store"
	"github.com/vesaki/vesaki-server/swipes"
	"github.com/vesaki/vesaki-server/utils"
)

func main() {
	config.LoadConfig()

	// Initialize MongoDB
	if err := utils.ConnectMongo(config.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	if err := utils.InitS3(); err != nil {
		log.Printf("Warning: S3 not initialized: %v. Photo uploads and try-on will fail.", err)
	}

	st := store.NewMongoStore(utils.Database(config.DBName))

	if config.SeedCatalog {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := catalog.Seed(ctx, st); err != nil {
			log.Printf("Warning: catalog seeding failed: %v", err)
		}
		cancel()
	}

	cat := catalog.New(st)
	images := serp.NewImageResolver(config.EnableRenderedScrape)
	adapter := serp.NewAdapter(config.SerpAPIKey, images, cat)
	cards := serp.CardSource{Adapter: adapter}

	gateway := swipes.NewGateway(st)
	sessions := session.NewManager(cards, gateway, api.NewGeminiTryOn(st))
	srv := api.NewServer(st, adapter, feed.New(cards), gateway, sessions)

	// CORS Middleware
	corsMiddleware := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Auth Routes
	http.HandleFunc("/auth/signup", corsMiddleware(srv.SignupHandler))
	http.HandleFunc("/auth/verify-otp", corsMiddleware(srv.VerifyOTPHandler))
	http.HandleFunc("/auth/login", corsMiddleware(srv.LoginHandler))

	// Product Routes
	http.HandleFunc("/api/search/products", corsMiddleware(srv.SearchProductsHandler))
	http.HandleFunc("/api/products", corsMiddleware(srv.ProductsFeedHandler))

	// Swipe and Collection Routes
	http.HandleFunc("/api/swipes", corsMiddleware(api.AuthMiddleware(srv.SwipesHandler)))
	http.HandleFunc("/api/collections", corsMiddleware(api.AuthMiddleware(srv.CollectionsHandler)))
	http.HandleFunc("/api/collections/items", corsMiddleware(api.AuthMiddleware(srv.CollectionItemsHandler)))

	// Session Routes
	http.HandleFunc("/api/session", corsMiddleware(api.AuthMiddleware(srv.SessionStateHandler)))
	http.HandleFunc("/api/session/start", corsMiddleware(api.AuthMiddleware(srv.StartSessionHandler)))
	http.HandleFunc("/api/session/swipe", corsMiddleware(api.AuthMiddleware(srv.SessionSwipeHandler)))
	http.HandleFunc("/api/session/tryon", corsMiddleware(api.AuthMiddleware(srv.SessionTryOnHandler)))

	// Profile Routes
	http.HandleFunc("/api/user/profile", corsMiddleware(api.AuthMiddleware(srv.ProfileHandler)))
	http.HandleFunc("/api/user/photos", corsMiddleware(api.AuthMiddleware(srv.PhotosHandler)))
	http.HandleFunc("/api/user/photos/primary", corsMiddleware(api.AuthMiddleware(srv.SetPrimaryPhotoHandler)))
	http.HandleFunc("/api/user/photo/primary", corsMiddleware(api.AuthMiddleware(srv.PrimaryPhotoHandler)))

	// Chat Route
	http.HandleFunc("/api/chat", corsMiddleware(api.AuthMiddleware(srv.ChatHandler)))

	port := config.Port
	fmt.Printf("Server starting on port %s...\n", port)
	if err := http.ListenAndServe(":"+port, utils.LatencyMiddleware(http.DefaultServeMux)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
