package respond

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_admin/internal/logging"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Envelope wraps every API response. Clients check Status before reading Data.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

func Success(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

func Failed(c echo.Context, code int, message string, data any) error {
	if message == "" {
		message = http.StatusText(code)
	}
	return c.JSON(code, Envelope{Status: StatusFailed, Message: message, Data: data})
}

// HTTPErrorHandler renders any error reaching echo as a failed envelope.
// Errors that are not *echo.HTTPError are reported as 500 without leaking details.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case nil:
			msg = http.StatusText(code)
		default:
			msg = fmt.Sprint(m)
		}
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = Failed(c, code, msg, nil)
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("write_error_response_failed", "error", werr)
	}
}
