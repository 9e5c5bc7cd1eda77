package handler

import (
	"net/http"

	"review-hub/api"
	"review-hub/internal/domain"

	"github.com/labstack/echo/v4"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ReviewHandler обрабатывает HTTP-запросы, связанные с запросами на ревью.
type ReviewHandler struct {
	*BaseHandler
	reviewUseCase domain.ReviewUseCase
}

// NewReviewHandler создает новый экземпляр ReviewHandler.
func NewReviewHandler(reviewUseCase domain.ReviewUseCase, base *BaseHandler) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler:   base,
		reviewUseCase: reviewUseCase,
	}
}

// PostReviews ставит новое ревью в очередь хаба.
func (h *ReviewHandler) PostReviews(c echo.Context) error {
	var req api.PostReviewsJSONBody
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind submit review request")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	logEntry := h.logRequest(c, "submit_review").WithField("payload_size", len(req.Payload))
	logEntry.Info("Submitting review")

	record, err := h.reviewUseCase.SubmitReview(c.Request().Context(), req.Payload)
	if err != nil {
		logEntry.WithError(err).Error("Failed to submit review")
		return h.respondError(c, err)
	}

	logEntry.WithField("review_id", record.ID).Info("Review queued")
	return c.JSON(http.StatusCreated, api.ReviewResponse{Review: toAPIReview(record)})
}

// GetReviewsReviewId возвращает текущее состояние ревью.
func (h *ReviewHandler) GetReviewsReviewId(c echo.Context, reviewId openapi_types.UUID) error {
	logEntry := h.logRequest(c, "get_review").WithField("review_id", reviewId.String())

	record, err := h.reviewUseCase.GetReview(c.Request().Context(), reviewId.String())
	if err != nil {
		logEntry.WithError(err).Warn("Failed to get review")
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, api.ReviewResponse{Review: toAPIReview(record)})
}

// DeleteReviewsReviewId отзывает ревью.
func (h *ReviewHandler) DeleteReviewsReviewId(c echo.Context, reviewId openapi_types.UUID) error {
	logEntry := h.logRequest(c, "withdraw_review").WithField("review_id", reviewId.String())
	logEntry.Info("Withdrawing review")

	if err := h.reviewUseCase.WithdrawReview(c.Request().Context(), reviewId.String()); err != nil {
		logEntry.WithError(err).Error("Failed to withdraw review")
		return h.respondError(c, err)
	}

	logEntry.Info("Review withdrawal accepted")
	return c.NoContent(http.StatusAccepted)
}
