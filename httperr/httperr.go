// Package httperr translates every error returned by a handler into one uniform JSON envelope.
//
// It is the single place where errors become HTTP responses.
// Install Handler.HandleError as echo's HTTPErrorHandler and register
// the sentinel errors of each context with Map.
package httperr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/go-arrower/productstore/alog"
)

// ErrorInfo is the error envelope every failing endpoint responds with.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

// internalMessage is sent instead of the actual error for all unmapped errors,
// so no internals leak to the client.
const internalMessage = "internal server error"

type mapping struct {
	target error
	status int
}

// Handler translates errors into ErrorInfo.
// All mappings have to be registered before the server starts.
type Handler struct {
	logger   alog.Logger
	now      func() time.Time
	mappings []mapping
}

func New(logger alog.Logger) *Handler {
	if logger == nil {
		logger = alog.NewNoop()
	}

	return &Handler{
		logger:   logger,
		now:      time.Now,
		mappings: []mapping{},
	}
}

// Map registers status for all errors matching target via errors.Is.
// Mappings are evaluated in the order of registration.
func (h *Handler) Map(target error, status int) *Handler {
	h.mappings = append(h.mappings, mapping{target: target, status: status})

	return h
}

// Translate returns the envelope for err.
func (h *Handler) Translate(err error, path string) ErrorInfo {
	status, message := h.classify(err)

	return ErrorInfo{
		Timestamp: h.now().UTC(),
		Path:      path,
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
	}
}

// HandleError has the signature of echo.HTTPErrorHandler.
func (h *Handler) HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	ctx := c.Request().Context()
	info := h.Translate(err, c.Request().URL.Path)

	h.log(ctx, info, err)

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(info.Status)
	} else {
		err = c.JSON(info.Status, info)
	}

	if err != nil {
		h.logger.InfoContext(ctx, "could not write error response", alog.Error(err))
	}
}

func (h *Handler) classify(err error) (int, string) {
	for _, m := range h.mappings {
		if errors.Is(err, m.target) {
			return m.status, err.Error()
		}
	}

	var verr validator.ValidationErrors
	if errors.As(err, &verr) && len(verr) > 0 {
		return http.StatusUnprocessableEntity, fmt.Sprintf("Invalid %s: %v", verr[0].Field(), verr[0].Value())
	}

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		return herr.Code, fmt.Sprint(herr.Message)
	}

	return http.StatusInternalServerError, internalMessage
}

func (h *Handler) log(ctx context.Context, info ErrorInfo, err error) {
	msg := fmt.Sprintf("Returning HTTP status %d for path %s, message %s", info.Status, info.Path, info.Message)

	if info.Status >= http.StatusInternalServerError {
		h.logger.InfoContext(ctx, msg, alog.Error(err))

		return
	}

	h.logger.DebugContext(ctx, msg, slog.Int("status", info.Status))
}
