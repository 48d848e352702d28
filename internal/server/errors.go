package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shouni/vision-weaver-kit/internal/store"
	"github.com/shouni/vision-weaver-kit/pkg/domain"
)

var badRequestErrors = []error{
	domain.ErrEmptyPrompt,
	domain.ErrNoApprovedImages,
	domain.ErrOutOfRange,
	domain.ErrGuideNotApproved,
	domain.ErrUnknownStyle,
	domain.ErrUnknownPalette,
	domain.ErrUnknownQuizAnswer,
	domain.ErrInvalidImage,
	domain.ErrUnsupportedURL,
}

// statusFor はエラーを HTTP ステータスに対応づけます。
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func respondBadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
