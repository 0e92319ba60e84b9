package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/cors"
)

var cfg = mustLoadConfig()

var jwtSecret = []byte(cfg.JWTSecret)

func mustLoadConfig() *Config {
	c, err := loadConfig()
	if err != nil {
		log.Fatal("Error loading configuration:", err)
	}
	return c
}

func main() {
	initDB(cfg.DatabaseURL)

	mux := http.NewServeMux()

	// Make sure the upload directories exist
	_ = os.MkdirAll(filepath.Join(cfg.UploadDir, "photos"), 0o755)
	_ = os.MkdirAll(filepath.Join(cfg.UploadDir, "messages"), 0o755)

	// Core auth & user endpoints
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/me", meHandler(db))
	mux.Handle("/me/profile", meProfileHandler(db))

	// Ping: mark this user as online "now"
	mux.Handle("/me/ping", mePingHandler(db)) // POST

	// Match dashboard & candidate views (scores recomputed per request)
	mux.Handle("/matches", matchesRouter(db))
	mux.Handle("/matches/", matchesRouter(db)) // /matches/{userID}

	// Interests
	mux.Handle("/interests", listInterestsHandler(db)) // GET
	mux.Handle("/interests/", interestsRouter(db))     // POST /interests/{id}[/respond]

	// Messaging (gated by score threshold + accepted interest)
	mux.Handle("/messages/", messagesRouter(db))

	// WebSocket chat endpoint
	mux.Handle("/ws/chat", wsChatHandler(db))

	// Photos & attachments
	mux.Handle("/me/photo", myPhotoHandler(db))           // POST & DELETE
	mux.Handle("/photos/", getUserPhotoHandler(db))       // GET /photos/{userID}
	mux.Handle("/attachments/", getAttachmentHandler(db)) // GET /attachments/{messageID}

	// Admin screens (email-gated)
	mux.Handle("/admin/overview", adminOverviewHandler(db))
	mux.Handle("/admin/verify", adminVerifyHandler(db))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Middleware chain: DataLoader -> CORS -> mux
	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(loaderMiddleware(db)(mux))

	log.Default().Println("Starting matrimony backend on port " + cfg.Port + "...")
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
