package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/tipbit/tipbit-backend/internal/apperrors"
	"github.com/tipbit/tipbit-backend/internal/middleware"
)

// respondError maps a service error onto its HTTP shape and logs server-side
// faults. Client errors (4xx) are logged at warn level only.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	appErr := apperrors.FromError(err)
	if appErr.Code >= 500 {
		logger.Error("Request failed", slog.String("error", err.Error()), slog.Int("status", appErr.Code))
	} else {
		logger.Warn("Request rejected", slog.String("error", appErr.Message), slog.Int("status", appErr.Code))
	}
	c.JSON(appErr.Code, appErr)
}

// bindError rejects a request whose body failed binding or validation.
// Validation failures list the offending fields instead of the raw error.
func bindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, len(validationErrs))
		for i, fe := range validationErrs {
			fields[i] = fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag())
		}
		appErr := apperrors.NewBadRequestError("Validation failed: " + strings.Join(fields, ", "))
		c.JSON(appErr.Code, appErr)
		return
	}
	appErr := apperrors.NewBadRequestError("Invalid request format: " + err.Error())
	c.JSON(appErr.Code, appErr)
}
