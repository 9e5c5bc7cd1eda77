package domain

import "errors"

// Domain errors (для бизнес-логики)
var (
	// Validation errors
	ErrInvalidReviewID = errors.New("invalid review id")
	ErrInvalidPayload  = errors.New("invalid review payload")
	ErrInvalidClientID = errors.New("invalid client id")
	ErrInvalidCapacity = errors.New("invalid client capacity")
	ErrInvalidOutcome  = errors.New("invalid review outcome")

	// Review errors
	ErrReviewNotFound    = errors.New("review not found")
	ErrDuplicateReview   = errors.New("review already exists")
	ErrReviewNotAssigned = errors.New("review not assigned to this client")

	// Client errors
	ErrClientNotFound     = errors.New("client not found")
	ErrDuplicateClient    = errors.New("client already connected")
	ErrClientUnresponsive = errors.New("client unresponsive")

	// Invariant errors: означают, что нарушена единая область согласованности хаба
	ErrAssignmentConflict = errors.New("review already has an active assignment")
	ErrRegistryCorrupted  = errors.New("client registry out of sync with assignments")

	// Lifecycle errors
	ErrHubStopped = errors.New("review hub stopped")
)

// HTTPError для ответов API
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error HTTPError `json:"error"`
}

// Маппинг domain ошибок в HTTP ошибки
var ErrorMapping = map[error]HTTPError{
	ErrInvalidReviewID:   {Code: "INVALID_REVIEW_ID", Message: "review_id must be a UUID"},
	ErrInvalidPayload:    {Code: "INVALID_PAYLOAD", Message: "payload must be a non-empty JSON value"},
	ErrInvalidClientID:   {Code: "INVALID_CLIENT_ID", Message: "client_id must not be empty"},
	ErrInvalidCapacity:   {Code: "INVALID_CAPACITY", Message: "capacity must be positive"},
	ErrInvalidOutcome:    {Code: "INVALID_OUTCOME", Message: "outcome must be completed, failed or cancelled"},
	ErrReviewNotFound:    {Code: "NOT_FOUND", Message: "review not found"},
	ErrClientNotFound:    {Code: "NOT_FOUND", Message: "client not found"},
	ErrDuplicateReview:   {Code: "REVIEW_EXISTS", Message: "review id already exists"},
	ErrDuplicateClient:   {Code: "CLIENT_EXISTS", Message: "client id already connected"},
	ErrReviewNotAssigned: {Code: "NOT_ASSIGNED", Message: "review is not assigned to this client"},
	ErrHubStopped:        {Code: "HUB_STOPPED", Message: "review hub is shutting down"},
}

// ToHTTPError преобразует domain ошибку в HTTP ошибку
func ToHTTPError(err error) (HTTPError, bool) {
	for domainErr, httpErr := range ErrorMapping {
		if errors.Is(err, domainErr) {
			return httpErr, true
		}
	}
	return HTTPError{}, false
}
