package main

import (
	"fmt"
	"os"

	"github.com/unidoc/unioffice/common/license"

	"github.com/saad130013/storyweaver-ai/internal/config"
	"github.com/saad130013/storyweaver-ai/internal/handlers"
	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/server"
	"github.com/saad130013/storyweaver-ai/internal/services"
	"github.com/saad130013/storyweaver-ai/internal/store"
	"github.com/saad130013/storyweaver-ai/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg, err := config.Load(log)
	if err != nil {
		log.Error("Could not load config", "error", err)
		os.Exit(1)
	}

	// Slide export needs the unidoc license registered before first use.
	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		if err := license.SetMeteredKey(key); err != nil {
			log.Warn("Could not register unidoc license key", "error", err)
		}
	}

	// Store
	log.Info("Setting up session registry from main...")
	sessions := store.NewSessionRegistry(log)

	// Services
	log.Info("Setting up services from main...")
	openaiClient := services.NewOpenAIClient(log)
	gateway := services.NewTextGenGateway(log, openaiClient)
	mediaService := services.NewMediaService(log, cfg.AssetRoot)
	authoringService := services.NewAuthoringService(log, sessions, gateway, mediaService)
	exportService, err := services.NewExportService(log, gateway, mediaService, cfg.Export, cfg.FontPath)
	if err != nil {
		log.Error("Could not init ExportService", "error", err)
		os.Exit(1)
	}

	// Handlers
	log.Info("Setting up handlers from main...")
	storyHandler := handlers.NewStoryHandler(log, sessions, mediaService)
	sceneHandler := handlers.NewSceneHandler(log, sessions, authoringService)
	mediaHandler := handlers.NewMediaHandler(log, sessions, authoringService)
	exportHandler := handlers.NewExportHandler(log, sessions, exportService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		StoryHandler:  storyHandler,
		SceneHandler:  sceneHandler,
		MediaHandler:  mediaHandler,
		ExportHandler: exportHandler,
	})

	port := utils.GetEnv("PORT", cfg.Port, log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
