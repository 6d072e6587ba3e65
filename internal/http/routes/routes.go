package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-variants/internal/http/handlers"
	"github.com/phambaophuc/image-variants/internal/http/middleware"
	"go.uber.org/zap"
)

// multipart framing on top of the image itself
const formOverhead = 1 << 20

type Router struct {
	imageHandler *handlers.ImageHandler
	logger       *zap.Logger
	maxFileSize  int64
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	logger *zap.Logger,
	maxFileSize int64,
) *Router {
	return &Router{
		imageHandler: imageHandler,
		logger:       logger,
		maxFileSize:  maxFileSize,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	upload := []gin.HandlerFunc{
		middleware.RequireMultipart(),
		middleware.LimitBody(r.maxFileSize + formOverhead),
	}

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.imageHandler.HealthCheck)

		images := v1.Group("/images")
		{
			images.POST("/variants", append(upload, r.imageHandler.UploadVariants)...)
			images.POST("/jobs", append(upload, r.imageHandler.CreateJob)...)
			images.GET("/jobs/:id", r.imageHandler.GetJob)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image variant pipeline is running",
		})
	})

	return router
}
