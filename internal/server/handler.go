package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shouni/vision-weaver-kit/internal/service"
	"github.com/shouni/vision-weaver-kit/internal/store"
	"github.com/shouni/vision-weaver-kit/pkg/composer"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

// Handler は HTTP リクエストを WeaverService に渡します。
type Handler struct {
	svc *service.WeaverService
}

// NewHandler は Handler を作ります。
func NewHandler(svc *service.WeaverService) *Handler {
	return &Handler{svc: svc}
}

// SessionResponse はセッションと、その時点で合成したプロンプトです。
type SessionResponse struct {
	*store.Record
	Prompt composer.Prompt `json:"prompt"`
	// Display はネガティブを連結した表示用の1行です。
	Display string `json:"display"`
}

func newSessionResponse(r *store.Record) SessionResponse {
	p := composer.Compose(r.Session)
	return SessionResponse{Record: r, Prompt: p, Display: p.Display()}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type quizRequest struct {
	Answers []domain.QuizAnswer `json:"answers" binding:"required"`
}

type styleRequest struct {
	StyleID string `json:"styleId"`
}

type paletteRequest struct {
	Name string `json:"name"`
}

type guideRequest struct {
	URL string `json:"url"`
}

type generateRequest struct {
	Prompt         string `json:"prompt" binding:"required"`
	NegativePrompt string `json:"negativePrompt"`
	AspectRatio    string `json:"aspectRatio"`
	ReferenceURL   string `json:"referenceUrl"`
	Seed           *int64 `json:"seed"`
}

// --- カタログ ---

func (h *Handler) ListStyles(c *gin.Context) {
	c.JSON(http.StatusOK, domain.ArtStyles())
}

func (h *Handler) ListPalettes(c *gin.Context) {
	c.JSON(http.StatusOK, domain.ColorPalettes())
}

func (h *Handler) ListQuiz(c *gin.Context) {
	c.JSON(http.StatusOK, domain.QuizQuestions())
}

// --- ステートレス ---

// Compose は送られたセッションのスナップショットからプロンプトを合成します。
func (h *Handler) Compose(c *gin.Context) {
	session := domain.NewCreativeSession()
	if err := c.ShouldBindJSON(&session); err != nil {
		respondBadRequest(c, err)
		return
	}
	p := h.svc.Compose(session)
	c.JSON(http.StatusOK, gin.H{"positive": p.Positive, "negative": p.Negative, "display": p.Display()})
}

func (h *Handler) ExpandTags(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	tags, err := h.svc.ExpandTags(c.Request.Context(), req.Prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *Handler) SearchImages(c *gin.Context) {
	images, err := h.svc.SearchImages(c.Request.Context(), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": images})
}

func (h *Handler) GenerateImages(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	images, err := h.svc.GenerateImages(c.Request.Context(), domain.ImageGenerationRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		ReferenceURL:   req.ReferenceURL,
		Seed:           req.Seed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

// --- セッション ---

func (h *Handler) CreateSession(c *gin.Context) {
	r := h.svc.CreateSession(c.Request.Context())
	c.JSON(http.StatusCreated, newSessionResponse(r))
}

func (h *Handler) GetSession(c *gin.Context) {
	h.respondRecord(c)(h.svc.GetSession(c.Param("id")))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.svc.DeleteSession(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ResetSession(c *gin.Context) {
	h.respondRecord(c)(h.svc.ResetSession(c.Param("id")))
}

func (h *Handler) SetPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.respondRecord(c)(h.svc.SetPrompt(c.Param("id"), req.Prompt))
}

func (h *Handler) GetPrompt(c *gin.Context) {
	p, err := h.svc.Prompt(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positive": p.Positive, "negative": p.Negative, "display": p.Display()})
}

func (h *Handler) ApplyQuiz(c *gin.Context) {
	var req quizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.respondRecord(c)(h.svc.ApplyQuiz(c.Param("id"), req.Answers))
}

func (h *Handler) Discover(c *gin.Context) {
	h.respondRecord(c)(h.svc.Discover(c.Request.Context(), c.Param("id")))
}

func (h *Handler) SelectStyle(c *gin.Context) {
	var req styleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.respondRecord(c)(h.svc.SelectStyle(c.Param("id"), req.StyleID))
}

func (h *Handler) SelectPalette(c *gin.Context) {
	var req paletteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.respondRecord(c)(h.svc.SelectPalette(c.Param("id"), req.Name))
}

func (h *Handler) ApproveImage(c *gin.Context) {
	h.respondRecord(c)(h.svc.ApproveImage(c.Param("id"), c.Param("imageId")))
}

func (h *Handler) DislikeImage(c *gin.Context) {
	h.respondRecord(c)(h.svc.DislikeImage(c.Param("id"), c.Param("imageId")))
}

func (h *Handler) Advance(c *gin.Context) {
	h.respondRecord(c)(h.svc.Advance(c.Param("id")))
}

func (h *Handler) Back(c *gin.Context) {
	h.respondRecord(c)(h.svc.Back(c.Param("id")))
}

func (h *Handler) SetCompositionGuide(c *gin.Context) {
	var req guideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.respondRecord(c)(h.svc.ToggleCompositionGuide(c.Param("id"), req.URL))
}

func (h *Handler) UpdateControls(c *gin.Context) {
	var req service.Controls
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.respondRecord(c)(h.svc.UpdateControls(c.Param("id"), req))
}

func (h *Handler) NegativeSuggestion(c *gin.Context) {
	s, err := h.svc.NegativeSuggestion(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"negativePrompt": s})
}

func (h *Handler) Generate(c *gin.Context) {
	h.respondRecord(c)(h.svc.Generate(c.Request.Context(), c.Param("id")))
}

func (h *Handler) ClearSeed(c *gin.Context) {
	h.respondRecord(c)(h.svc.ClearSeed(c.Param("id")))
}

// respondRecord は (record, err) をそのまま受け取ってレスポンスを書く関数を返します。
func (h *Handler) respondRecord(c *gin.Context) func(*store.Record, error) {
	return func(r *store.Record, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, newSessionResponse(r))
	}
}
