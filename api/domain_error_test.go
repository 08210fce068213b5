package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamalielACN/SMTDraft/generic"
)

func newErrorTestHandler() *Handler {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return &Handler{Log: log}
}

func TestDomainError_WrappedValidationKeepsField(t *testing.T) {
	// GIVEN: a validation error wrapped with call-site context
	h := newErrorTestHandler()
	err := fmt.Errorf("approve ticket: %w",
		&generic.ValidationError{Field: "endDate", Message: "end date must be after start date"})

	// WHEN: it is mapped onto an HTTP response
	rec := httptest.NewRecorder()
	h.domainError(rec, err)

	// THEN: still a 400, and the field survives the wrapping
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "endDate", body.Field)
	assert.Contains(t, body.Error, "end date must be after start date")
}

func TestDomainError_WrappedNotFoundMapsTo404(t *testing.T) {
	h := newErrorTestHandler()
	err := fmt.Errorf("approve ticket: %w", generic.ErrProjectNotFound)

	rec := httptest.NewRecorder()
	h.domainError(rec, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
