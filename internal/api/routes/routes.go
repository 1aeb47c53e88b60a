package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sheetlens/internal/api/handlers"
	"github.com/yoockh/sheetlens/internal/api/middleware"
	"github.com/yoockh/sheetlens/internal/auth"
)

type Deps struct {
	Verifier *auth.Verifier
	Uploads  *handlers.UploadHandler
	Analysis *handlers.AnalysisHandler
	WS       *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")
	api.Use(middleware.JWTAuth(d.Verifier))

	api.POST("/save-upload", d.Uploads.SaveUpload)
	api.POST("/get-user-uploads", d.Uploads.ListUploads)
	api.POST("/upload-file", d.Uploads.UploadFile)
	api.GET("/uploads/:upload_id", d.Uploads.GetUpload)

	if d.Analysis != nil {
		api.GET("/uploads/:upload_id/dataset", d.Analysis.Dataset)
		api.POST("/uploads/:upload_id/chart", d.Analysis.Chart)
		api.GET("/uploads/:upload_id/analyses", d.Analysis.ListAnalyses)
	}

	if d.WS != nil {
		ws := r.Group("/ws")
		ws.Use(middleware.JWTAuth(d.Verifier))
		ws.GET("/uploads/:upload_id/insights", d.WS.InsightsWS)
	}
}
