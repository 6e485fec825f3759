package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/amm"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/cache"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/dex"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/fetch"
	"github.com/aman-zulfiqar/cardano-dex-aggregator/internal/models"
	"github.com/labstack/echo/v4"
)

// NotFoundJSON returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s and rate limiting) have consistent JSON format
func NotFoundJSON() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		code := statusFor(err)
		_ = c.JSON(code, ErrorResponse{
			Error: http.StatusText(code),
			Code:  code,
		})
	}
}

// statusFor maps domain errors onto HTTP status codes; anything unrecognised is an upstream failure
func statusFor(err error) int {
	switch {
	case errors.Is(err, dex.ErrNotFound), errors.Is(err, cache.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fetch.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, dex.ErrConfiguration),
		errors.Is(err, models.ErrTokenNotInPool),
		errors.Is(err, amm.ErrInvalidReserves),
		errors.Is(err, amm.ErrInvalidAmount),
		errors.Is(err, amm.ErrInvalidFee),
		errors.Is(err, amm.ErrInsufficientReserve),
		errors.Is(err, amm.ErrZeroOutput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
