package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/saad130013/storyweaver-ai/internal/handlers"
)

type RouterConfig struct {
	StoryHandler  *handlers.StoryHandler
	SceneHandler  *handlers.SceneHandler
	MediaHandler  *handlers.MediaHandler
	ExportHandler *handlers.ExportHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/assets/*path", cfg.StoryHandler.ServeAsset)

	api := router.Group("/api")
	{
		api.POST("/stories", cfg.StoryHandler.CreateSession)
		api.GET("/stories/:id", cfg.StoryHandler.GetStory)
		api.PATCH("/stories/:id", cfg.StoryHandler.UpdateStory)
		api.DELETE("/stories/:id", cfg.StoryHandler.CloseSession)

		api.POST("/stories/:id/scenes", cfg.SceneHandler.AppendScene)
		api.DELETE("/stories/:id/scenes/:sceneId", cfg.SceneHandler.RemoveScene)
		api.POST("/stories/:id/scenes/reorder", cfg.SceneHandler.ReorderScenes)
		api.PATCH("/stories/:id/scenes/:sceneId", cfg.SceneHandler.UpdateSceneField)
		api.POST("/stories/:id/scenes/:sceneId/refine", cfg.SceneHandler.RefineScene)
		api.POST("/stories/:id/scenes/:sceneId/audio/start", cfg.SceneHandler.StartRecording)
		api.POST("/stories/:id/scenes/:sceneId/audio", cfg.SceneHandler.FinishRecording)
		api.DELETE("/stories/:id/scenes/:sceneId/audio", cfg.SceneHandler.ClearAudio)

		api.POST("/stories/:id/media", cfg.MediaHandler.Upload)
		api.POST("/stories/:id/draft", cfg.MediaHandler.DraftStory)

		api.POST("/stories/:id/export/pdf", cfg.ExportHandler.ExportPDF)
		api.POST("/stories/:id/export/slides", cfg.ExportHandler.ExportSlides)
	}

	return router
}
