package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/a3tai/farm-analyzer/internal/farm"
)

type errorResponse struct {
	Detail interface{} `json:"detail"`
}

// handleError renders every error as {"detail": ...}
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var detail interface{} = http.StatusText(http.StatusInternalServerError)

	var validation farm.ValidationErrors
	var he *echo.HTTPError
	switch {
	case errors.As(err, &validation):
		code = http.StatusUnprocessableEntity
		detail = validation
	case errors.As(err, &he):
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			detail = m
		case error:
			detail = m.Error()
		default:
			detail = fmt.Sprint(m)
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err), zap.String("uri", c.Request().RequestURI))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Detail: detail})
	}
	if err != nil {
		s.logger.Error("failed to write error response", zap.Error(err))
	}
}
