package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"boardsync/internal/config"
	"boardsync/internal/drag"
	"boardsync/internal/gateway"
	"boardsync/internal/handler"
	"boardsync/internal/middleware"
	"boardsync/internal/session"
	"boardsync/internal/store"
)

type Server struct {
	Engine  *gin.Engine
	DB      *gorm.DB
	Config  *config.Config
	Store   *store.Store
	Session *session.Session

	log         *logrus.Entry
	unsubscribe gateway.Unsubscribe
	stopSession func()
}

func Init(cfg *config.Config) (*Server, error) {
	log := logrus.NewEntry(logrus.StandardLogger()).WithField("component", "server")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	log.Info("Connected to database")

	if err := gateway.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	feed := gateway.NewFeed(cfg.FeedURL, logrus.NewEntry(logrus.StandardLogger()).WithField("component", "feed"))
	gw := gateway.NewPostgres(db, feed)

	sess := session.New(cfg.JWTSecret)
	st := store.New(gw, sess,
		store.WithEchoWindow(cfg.EchoWindow),
		store.WithNotifier(store.LogNotifier{Log: logrus.NewEntry(logrus.StandardLogger()).WithField("component", "notify")}),
	)
	engine := drag.NewEngine(st)

	stopSession := sess.OnChange(func() {
		st.HandleSessionChange(context.Background())
	})

	unsubscribe, err := gw.SubscribeToChanges(func() {
		st.HandleRemoteChange(context.Background())
	})
	if err != nil {
		// Realtime is an enhancement; the board still works off explicit
		// refreshes when the feed is unreachable.
		log.WithError(err).Warn("change feed unavailable")
	}

	sessionHandler := handler.NewSessionHandler(sess, st)
	boardHandler := handler.NewBoardHandler(st)
	dragHandler := handler.NewDragHandler(engine)

	r := gin.Default()

	// Public routes
	r.POST("/session", sessionHandler.SignIn)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.DELETE("/session", sessionHandler.SignOut)

		// Board routes
		authorized.GET("/board", boardHandler.GetBoard)
		authorized.POST("/board/refresh", boardHandler.RefreshBoard)

		// Column routes
		authorized.POST("/columns", boardHandler.CreateColumn)
		authorized.PUT("/columns/:id", boardHandler.RenameColumn)
		authorized.DELETE("/columns/:id", boardHandler.DeleteColumn)

		// Card routes
		authorized.POST("/cards", boardHandler.CreateCard)
		authorized.PUT("/cards/:id", boardHandler.EditCard)
		authorized.DELETE("/cards/:id", boardHandler.DeleteCard)

		// Drag gesture routes
		authorized.POST("/drag/start", dragHandler.Start)
		authorized.POST("/drag/over", dragHandler.Over)
		authorized.POST("/drag/end", dragHandler.End)
	}

	return &Server{
		Engine:      r,
		DB:          db,
		Config:      cfg,
		Store:       st,
		Session:     sess,
		log:         log,
		unsubscribe: unsubscribe,
		stopSession: stopSession,
	}, nil
}

func (s *Server) Run() {
	srv := &http.Server{
		Addr:    ":" + s.Config.ServerPort,
		Handler: s.Engine,
	}

	go func() {
		s.log.Infof("Server running on port %s", s.Config.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatalf("Failed to listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.log.Info("Shutting down server...")

	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.stopSession()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		s.log.Fatalf("Server forced to shutdown: %s", err)
	}

	s.log.Info("Server exited properly")
}
