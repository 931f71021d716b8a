package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZJUSCT/contestd/internal/api/admin"
	"github.com/ZJUSCT/contestd/internal/api/user"
	"github.com/ZJUSCT/contestd/internal/auth"
	"github.com/ZJUSCT/contestd/internal/catalog"
	"github.com/ZJUSCT/contestd/internal/config"
	"github.com/ZJUSCT/contestd/internal/database"
	"github.com/ZJUSCT/contestd/internal/finalize"
	"github.com/google/uuid"

	"go.uber.org/zap"
)

var Version = "dev-build"

func main() {

	fmt.Fprintf(os.Stderr, "ZJUSCT contestd %s - Contest Finalization and Rating Service\n\n", Version)

	// config
	var configPath string
	flag.StringVar(&configPath, "c", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// logger
	var logger *zap.Logger
	if cfg.Logger.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.Auth.JWT.Secret == "" {
		zap.S().Fatalf("auth.jwt.secret is empty; set it in the config or via %s", config.EnvJWTSecret)
	}

	// database
	db, err := database.Init(cfg.Storage)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Infof("database initialized successfully (%s)", cfg.Storage.Driver)

	// bootstrap administrator
	if b := cfg.Admin.Bootstrap; b.Username != "" && b.Password != "" {
		hash, err := auth.HashPassword(b.Password)
		if err != nil {
			zap.S().Fatalf("failed to hash bootstrap password: %v", err)
		}
		created, err := database.EnsureAdmin(db, uuid.NewString(), b.Username, hash)
		if err != nil {
			zap.S().Fatalf("failed to create bootstrap administrator: %v", err)
		}
		if created {
			zap.S().Infof("created bootstrap administrator '%s'", b.Username)
		}
	}

	// contests and problems
	if cfg.ContestsRoot != "" {
		if _, err := catalog.Sync(db, cfg.ContestsRoot); err != nil {
			zap.S().Fatalf("failed to load contests and problems: %v", err)
		}
	}

	finalizer := finalize.NewCoordinator(database.NewFinalizeStore(db), finalize.Options{
		AllowBeforeEnd: cfg.Finalize.AllowBeforeEnd,
	})

	// API routers
	userEngine := user.NewUserRouter(cfg, db, finalizer)
	adminEngine := admin.NewAdminRouter(cfg, db, finalizer)

	// start servers
	go func() {
		zap.S().Infof("starting user server at %s", cfg.Listen)
		if err := userEngine.Run(cfg.Listen); err != nil {
			zap.S().Fatalf("failed to start user server: %v", err)
		}
	}()

	if cfg.Admin.Enabled {
		go func() {
			zap.S().Infof("starting admin server at %s", cfg.Admin.Listen)
			if err := adminEngine.Run(cfg.Admin.Listen); err != nil {
				zap.S().Fatalf("failed to start admin server: %v", err)
			}
		}()
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server...")
}
