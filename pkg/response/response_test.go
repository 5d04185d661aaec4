package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"retail-banking-core/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(requestID string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if requestID != "" {
		c.Set(requestIDKey, requestID)
	}
	return c, w
}

func TestSuccessEnvelopes(t *testing.T) {
	tests := []struct {
		name   string
		send   func(*gin.Context, interface{})
		status int
	}{
		{"ok", OK, http.StatusOK},
		{"created", Created, http.StatusCreated},
		{"accepted", Accepted, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-" + tt.name)

			tt.send(c, map[string]string{"state": "INITIATED"})

			assert.Equal(t, tt.status, w.Code)
			var resp SuccessResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "req-"+tt.name, resp.RequestID)
			assert.NotEmpty(t, resp.Timestamp)
			assert.Equal(t, "INITIATED", resp.Data.(map[string]interface{})["state"])
		})
	}
}

func TestAttachment_CSV(t *testing.T) {
	c, w := newContext("req-csv")

	Attachment(c, "statement-4000-20260101.csv", "text/csv", []byte("date,amount\n"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="statement-4000-20260101.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "req-csv", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "date,amount\n", w.Body.String())
}

func TestError_Mapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"app error", apperror.ErrInsufficientFunds(), http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient balance"},
		{"wrapped app error", fmt.Errorf("commit: %w", apperror.ErrNoStagedOperation()), http.StatusNotFound, "NO_STAGED_OPERATION", ""},
		{"plain error", fmt.Errorf("pq: relation does not exist"), http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext("req-err")

			Error(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.ErrorCode)
			assert.Equal(t, "req-err", resp.RequestID)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Message)
			}
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestRequestID_FallsBackToUUID(t *testing.T) {
	c, _ := newContext("")

	id := RequestID(c)

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, RequestID(c), "each call without middleware yields a new ID")
}
