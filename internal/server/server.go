package server

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/learnloop/coursechat/internal/database"
	"github.com/learnloop/coursechat/internal/handlers"
	"github.com/learnloop/coursechat/internal/sessions"
	"github.com/learnloop/coursechat/internal/websocket"
	"github.com/learnloop/coursechat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Hub        *websocket.Hub
	JWTManager *auth.JWTManager
}

// NewServer wires the process: env, Postgres, Redis, the chat hub and
// all routes. Failures here are fatal; there is no fatal path after
// startup.
func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)
	blacklist := auth.NewRedisBlacklist(rdb)

	hub := websocket.NewHub()
	go hub.Run()

	messageHandler := handlers.NewMessageHandler(dbConn, hub)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, blacklist)
	userH := handlers.NewUserHandler(dbConn)
	courseH := handlers.NewCourseHandler(dbConn, hub)
	chatH := handlers.NewChatHandler(dbConn, hub)
	wsH := handlers.NewWebSocketHandler(hub, messageHandler)
	assistantH := handlers.NewAssistantHandler(sessions.NewRedisStore(rdb, sessions.DefaultTTL))

	router := gin.Default()
	APIEndpoints(router, jwtMgr, blacklist, authH, userH, courseH, chatH, wsH, assistantH)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		Hub:        hub,
		JWTManager: jwtMgr,
	}
}

func (s *Server) Run() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := s.Router.Run(":" + port); err != nil {
		log.Fatalf("Server run error: %v", err)
	}
}
