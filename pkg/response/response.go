package response

import (
	"errors"
	"net/http"
	"time"

	"retail-banking-core/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey is the gin context key set by the request ID middleware.
const requestIDKey = "request_id"

// SuccessResponse wraps every 2xx JSON body.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse wraps every error body. ErrorCode is one of the apperror codes.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func OK(c *gin.Context, data interface{}) { success(c, http.StatusOK, data) }

func Created(c *gin.Context, data interface{}) { success(c, http.StatusCreated, data) }

// Accepted is used for staged operations that still await confirmation.
func Accepted(c *gin.Context, data interface{}) { success(c, http.StatusAccepted, data) }

// Attachment streams body as a file download, e.g. a CSV statement.
func Attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("X-Request-ID", RequestID(c))
	c.Data(http.StatusOK, contentType, body)
}

// Error renders err. Anything that is not an *apperror.AppError is reported as
// an internal error without leaking its text.
func Error(c *gin.Context, err error) {
	appErr := apperror.InternalError(err)
	var target *apperror.AppError
	if errors.As(err, &target) {
		appErr = target
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		RequestID: RequestID(c),
		Timestamp: timestamp(),
	})
}

// RequestID returns the ID assigned by the middleware, or a fresh one when the
// handler runs without it.
func RequestID(c *gin.Context) string {
	if s := c.GetString(requestIDKey); s != "" {
		return s
	}
	return uuid.NewString()
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: RequestID(c),
		Timestamp: timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
