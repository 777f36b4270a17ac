package v1

import (
	"github.com/gin-gonic/gin"

	"medialib/media-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/media/upload", r.handlers.Upload.Upload)
	group.POST("/media/upload-url", r.handlers.Upload.UploadFromURL)

	group.POST("/media/chunked/init", r.handlers.Upload.InitChunked)
	group.GET("/media/chunked/:id", r.handlers.Upload.GetChunked)
	group.PUT("/media/chunked/:id/:index", r.handlers.Upload.UploadChunk)
	group.POST("/media/chunked/:id/complete", r.handlers.Upload.CompleteChunked)
	group.DELETE("/media/chunked/:id", r.handlers.Upload.CancelChunked)

	group.GET("/media", r.handlers.Media.List)
	group.GET("/media/stats", r.handlers.Media.Stats)
	group.GET("/media/search", r.handlers.Media.Search)
	group.GET("/media/recent", r.handlers.Media.Recent)
	group.GET("/media/:id", r.handlers.Media.Get)
	group.GET("/media/:id/file", r.handlers.Media.File)
	group.PATCH("/media/:id", r.handlers.Media.Update)
	group.POST("/media/:id/restore", r.handlers.Media.Restore)
	group.POST("/media/:id/move", r.handlers.Media.Move)
	group.POST("/media/:id/usage", r.handlers.Media.Usage)
	group.POST("/media/:id/transform", r.handlers.Media.Transform)
	group.DELETE("/media/:id", r.handlers.Media.Delete)
}
