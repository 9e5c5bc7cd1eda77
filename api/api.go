// Package api описывает HTTP API хаба: модели запросов и ответов,
// ServerInterface и привязку параметров для echo.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Defines values for ErrorResponseErrorCode.
const (
	CLIENTEXISTS    ErrorResponseErrorCode = "CLIENT_EXISTS"
	HUBSTOPPED      ErrorResponseErrorCode = "HUB_STOPPED"
	INTERNALERROR   ErrorResponseErrorCode = "INTERNAL_ERROR"
	INVALIDCAPACITY ErrorResponseErrorCode = "INVALID_CAPACITY"
	INVALIDCLIENTID ErrorResponseErrorCode = "INVALID_CLIENT_ID"
	INVALIDOUTCOME  ErrorResponseErrorCode = "INVALID_OUTCOME"
	INVALIDPAYLOAD  ErrorResponseErrorCode = "INVALID_PAYLOAD"
	INVALIDREQUEST  ErrorResponseErrorCode = "INVALID_REQUEST"
	INVALIDREVIEWID ErrorResponseErrorCode = "INVALID_REVIEW_ID"
	NOTASSIGNED     ErrorResponseErrorCode = "NOT_ASSIGNED"
	NOTFOUND        ErrorResponseErrorCode = "NOT_FOUND"
	REVIEWEXISTS    ErrorResponseErrorCode = "REVIEW_EXISTS"
)

// Defines values for ReviewStatus.
const (
	Assigned  ReviewStatus = "assigned"
	Completed ReviewStatus = "completed"
	Pending   ReviewStatus = "pending"
	Requeued  ReviewStatus = "requeued"
	Withdrawn ReviewStatus = "withdrawn"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error struct {
		Code    ErrorResponseErrorCode `json:"code"`
		Message string                 `json:"message"`
	} `json:"error"`
}

// ErrorResponseErrorCode defines model for ErrorResponse.Error.Code.
type ErrorResponseErrorCode string

// HubClients defines model for HubClients.
type HubClients struct {
	Clients     []ReviewerClient `json:"clients"`
	FreeClients []string         `json:"free_clients"`
}

// HubStats defines model for HubStats.
type HubStats struct {
	AssignedReviews       map[string]int `json:"assigned_reviews"`
	AssignedReviewsCount  int            `json:"assigned_reviews_count"`
	BusyClients           int            `json:"busy_clients"`
	CompletedReviewsCount int64          `json:"completed_reviews_count"`
	ConnectedClients      int            `json:"connected_clients"`
	FreeClients           int            `json:"free_clients"`
	PendingReviewsCount   int            `json:"pending_reviews_count"`
	ReviewDistribution    map[string]int `json:"review_distribution"`
}

// Review defines model for Review.
type Review struct {
	Attempts  int                `json:"attempts"`
	ClientId  *string            `json:"client_id,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	Payload   json.RawMessage    `json:"payload"`
	ReviewId  openapi_types.UUID `json:"review_id"`
	Status    ReviewStatus       `json:"status"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ReviewStatus defines model for Review.Status.
type ReviewStatus string

// ReviewResponse defines model for ReviewResponse.
type ReviewResponse struct {
	Review Review `json:"review"`
}

// ReviewerClient defines model for ReviewerClient.
type ReviewerClient struct {
	Capacity    int       `json:"capacity"`
	ClientId    string    `json:"client_id"`
	ConnectedAt time.Time `json:"connected_at"`
	Load        int       `json:"load"`
}

// PostReviewsJSONBody defines parameters for PostReviews.
type PostReviewsJSONBody struct {
	Payload json.RawMessage `json:"payload"`
}

// GetWsParams defines parameters for GetWs.
type GetWsParams struct {
	ClientId string `form:"client_id" json:"client_id"`
	Capacity *int   `form:"capacity,omitempty" json:"capacity,omitempty"`
}

// PostReviewsJSONRequestBody defines body for PostReviews for application/json ContentType.
type PostReviewsJSONRequestBody = PostReviewsJSONBody

// ServerInterface represents all server handlers.
type ServerInterface interface {

	// (POST /reviews)
	PostReviews(ctx echo.Context) error

	// (DELETE /reviews/{review_id})
	DeleteReviewsReviewId(ctx echo.Context, reviewId openapi_types.UUID) error

	// (GET /reviews/{review_id})
	GetReviewsReviewId(ctx echo.Context, reviewId openapi_types.UUID) error

	// (GET /hub/stats)
	GetHubStats(ctx echo.Context) error

	// (GET /hub/clients)
	GetHubClients(ctx echo.Context) error

	// (GET /ws)
	GetWs(ctx echo.Context, params GetWsParams) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// PostReviews converts echo context to params.
func (w *ServerInterfaceWrapper) PostReviews(ctx echo.Context) error {
	return w.Handler.PostReviews(ctx)
}

// DeleteReviewsReviewId converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteReviewsReviewId(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "review_id" -------------
	var reviewId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "review_id", ctx.Param("review_id"), &reviewId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter review_id: %s", err))
	}

	return w.Handler.DeleteReviewsReviewId(ctx, reviewId)
}

// GetReviewsReviewId converts echo context to params.
func (w *ServerInterfaceWrapper) GetReviewsReviewId(ctx echo.Context) error {
	var err error
	// ------------- Path parameter "review_id" -------------
	var reviewId openapi_types.UUID

	err = runtime.BindStyledParameterWithOptions("simple", "review_id", ctx.Param("review_id"), &reviewId, runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter review_id: %s", err))
	}

	return w.Handler.GetReviewsReviewId(ctx, reviewId)
}

// GetHubStats converts echo context to params.
func (w *ServerInterfaceWrapper) GetHubStats(ctx echo.Context) error {
	return w.Handler.GetHubStats(ctx)
}

// GetHubClients converts echo context to params.
func (w *ServerInterfaceWrapper) GetHubClients(ctx echo.Context) error {
	return w.Handler.GetHubClients(ctx)
}

// GetWs converts echo context to params.
func (w *ServerInterfaceWrapper) GetWs(ctx echo.Context) error {
	var err error

	// Parameter object where we will unmarshal all parameters from the context
	var params GetWsParams
	// ------------- Required query parameter "client_id" -------------

	err = runtime.BindQueryParameter("form", true, true, "client_id", ctx.QueryParams(), &params.ClientId)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter client_id: %s", err))
	}

	// ------------- Optional query parameter "capacity" -------------

	err = runtime.BindQueryParameter("form", true, false, "capacity", ctx.QueryParams(), &params.Capacity)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter capacity: %s", err))
	}

	return w.Handler.GetWs(ctx, params)
}

// EchoRouter is implemented by both the echo.Echo and echo.Group types.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers handlers, and prepends BaseURL to the paths.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST(baseURL+"/reviews", wrapper.PostReviews)
	router.DELETE(baseURL+"/reviews/:review_id", wrapper.DeleteReviewsReviewId)
	router.GET(baseURL+"/reviews/:review_id", wrapper.GetReviewsReviewId)
	router.GET(baseURL+"/hub/stats", wrapper.GetHubStats)
	router.GET(baseURL+"/hub/clients", wrapper.GetHubClients)
	router.GET(baseURL+"/ws", wrapper.GetWs)
}
