package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusCreated, struct{ ID int }{ID: 123})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ID":123}`, w.Body.String())
}

func TestJSON_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestOK_KeepsEmptyList(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, []string{})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestPaged(t *testing.T) {
	w := httptest.NewRecorder()
	meta := pagination.NewMetadata(pagination.Params{Page: 2, Limit: 10}, 25)
	Paged(w, []int{1, 2}, meta)

	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["success"])
	p := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, p["page"])
	assert.EqualValues(t, 3, p["totalPages"])
	assert.Equal(t, true, p["hasNext"])
	assert.Equal(t, true, p["hasPrev"])
}

func TestMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Message(w, "logged out")
	assert.JSONEq(t, `{"success":true,"message":"logged out"}`, w.Body.String())
}

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", &entity.ValidationError{Field: "title", Message: "title is required"}, http.StatusUnprocessableEntity, "validation failed"},
		{"not found", fmt.Errorf("get: %w", entity.NotFound("article not found")), http.StatusNotFound, "article not found"},
		{"unauthorized is uniform", entity.WrapError(entity.KindUnauthorized, "token expired", errors.New("exp")), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", entity.NewError(entity.KindForbidden, "forbidden"), http.StatusForbidden, "forbidden"},
		{"conflict hides cause", entity.WrapError(entity.KindConflict, "slug is already in use", errors.New("pq: duplicate key")), http.StatusConflict, "slug is already in use"},
		{"internal", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/articles", nil)
			Error(w, r, tt.err)

			assert.Equal(t, tt.code, w.Code)
			body := decodeEnvelope(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
			assert.NotContains(t, w.Body.String(), "pq:")
			assert.NotContains(t, w.Body.String(), "dial tcp")
		})
	}
}

func TestError_ValidationFields(t *testing.T) {
	var errs entity.ValidationErrors
	errs.Add("email", "invalid email format")
	errs.Add("password", "password must be at least 8 characters")

	w := httptest.NewRecorder()
	Error(w, httptest.NewRequest(http.MethodPost, "/credentials", nil), fmt.Errorf("register: %w", errs))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{
		"success": false,
		"message": "validation failed",
		"errors": [
			{"field": "email", "message": "invalid email format"},
			{"field": "password", "message": "password must be at least 8 characters"}
		]
	}`, w.Body.String())
}

func TestError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDecode(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty body", "", "body"},
		{"syntax error", `{"title":`, "body"},
		{"bad json", `{"title" "x"}`, "body"},
		{"wrong type", `{"count":"three"}`, "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := Decode(r, &p)
			require.Error(t, err)
			assert.Equal(t, entity.KindValidation, entity.KindOf(err))
			assert.Equal(t, tt.field, entity.FieldErrors(err)[0].Field)
		})
	}

	t.Run("ok", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"hi","count":2}`))
		var p payload
		require.NoError(t, Decode(r, &p))
		assert.Equal(t, payload{Title: "hi", Count: 2}, p)
	})

	t.Run("too large", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"`+strings.Repeat("x", 100)+`"}`))
		r.Body = http.MaxBytesReader(w, r.Body, 16)
		var p payload
		err := Decode(r, &p)
		require.Error(t, err)
		assert.Contains(t, entity.FieldErrors(err)[0].Message, "16 bytes")
	})
}
