// Package server は WeaverService を JSON の HTTP API として公開します。
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter はすべてのルートを登録した gin エンジンを返します。
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	// 画像 ID には "/" を含むものがあるため、%2F のままルーティングしてから戻す
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")

	catalog := api.Group("/catalog")
	catalog.GET("/styles", h.ListStyles)
	catalog.GET("/palettes", h.ListPalettes)
	catalog.GET("/quiz", h.ListQuiz)

	// セッションを持たない単発の呼び出し
	api.POST("/prompt/compose", h.Compose)
	api.POST("/tags/expand", h.ExpandTags)
	api.GET("/images/search", h.SearchImages)
	api.POST("/images/generate", h.GenerateImages)

	sessions := api.Group("/sessions")
	sessions.POST("", h.CreateSession)
	sessions.GET("/:id", h.GetSession)
	sessions.DELETE("/:id", h.DeleteSession)
	sessions.POST("/:id/reset", h.ResetSession)
	sessions.PUT("/:id/prompt", h.SetPrompt)
	sessions.GET("/:id/prompt", h.GetPrompt)
	sessions.POST("/:id/quiz", h.ApplyQuiz)
	sessions.POST("/:id/discover", h.Discover)
	sessions.PUT("/:id/style", h.SelectStyle)
	sessions.PUT("/:id/palette", h.SelectPalette)
	sessions.POST("/:id/images/:imageId/approve", h.ApproveImage)
	sessions.POST("/:id/images/:imageId/dislike", h.DislikeImage)
	sessions.POST("/:id/advance", h.Advance)
	sessions.POST("/:id/back", h.Back)
	sessions.PUT("/:id/composition-guide", h.SetCompositionGuide)
	sessions.PUT("/:id/controls", h.UpdateControls)
	sessions.GET("/:id/negative-suggestion", h.NegativeSuggestion)
	sessions.POST("/:id/generate", h.Generate)
	sessions.DELETE("/:id/seed", h.ClearSeed)

	return router
}

// requestLogger はリクエストごとに1行の構造化ログを出します。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			slog.ErrorContext(ctx, "request", attrs...)
		case c.Writer.Status() >= http.StatusBadRequest:
			slog.WarnContext(ctx, "request", attrs...)
		default:
			slog.InfoContext(ctx, "request", attrs...)
		}
	}
}
