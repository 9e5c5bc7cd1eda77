package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Пути, которые опрашиваются постоянно (панель статистики, scrape метрик);
// успешные запросы к ним логируются на уровне Debug.
var pollingPaths = map[string]bool{
	"/hub/stats": true,
	"/metrics":   true,
	"/health":    true,
}

// LoggingMiddleware добавляет структурированное логирование
func LoggingMiddleware(logger *logrus.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Выполняем запрос
			err := next(c)

			// Логируем детали запроса
			latency := time.Since(start)
			status := c.Response().Status
			// Ошибку в ответ превратит HTTPErrorHandler уже после middleware
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				}
			}

			entry := logger.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().URL.Path,
				"status":     status,
				"latency":    latency,
				"user_agent": c.Request().UserAgent(),
				"ip":         c.RealIP(),
			})

			if err != nil {
				entry = entry.WithField("error", err.Error())
			}

			switch {
			case status >= 500:
				entry.Error("Server error")
			case status >= 400:
				entry.Warn("Client error")
			case pollingPaths[c.Path()]:
				entry.Debug("Request processed")
			default:
				entry.Info("Request processed")
			}

			return err
		}
	}
}
