package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famhealth-backend/models"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{models.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("lookup: %w", models.ErrMemberNotFound), http.StatusNotFound, "MEMBER_NOT_FOUND"},
		{&models.TransitionError{From: models.StatusDone, To: models.StatusDone}, http.StatusConflict, "INVALID_TRANSITION"},
		{models.ErrConflict, http.StatusConflict, "CONFLICT"},
		{models.ErrScheduledInPast, http.StatusUnprocessableEntity, "SCHEDULED_IN_PAST"},
		{fmt.Errorf("%w: medicine is required", models.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code := ErrorStatus(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestRespondWithAppError_HidesInternalText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithAppError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Error)
	assert.Equal(t, "INTERNAL", body.Code)
	assert.True(t, c.IsAborted())
}
