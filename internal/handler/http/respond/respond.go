// Package respond writes the JSON envelope shared by every endpoint and maps
// classified domain errors to HTTP status codes. Internal error details are
// sanitized and logged, never returned to clients.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"knowledgebase/internal/common/pagination"
	"knowledgebase/internal/domain/entity"
	"knowledgebase/internal/observability/logging"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool                 `json:"success"`
	Data       any                  `json:"data,omitempty"`
	Pagination *pagination.Metadata `json:"pagination,omitempty"`
	Message    string               `json:"message,omitempty"`
	Errors     []FieldError         `json:"errors,omitempty"`
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// ヘッダー送信済みのためログのみ
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// OK writes a 200 envelope around data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope around data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes a 200 envelope that carries only a message.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

// Paged writes a 200 envelope with a list and its pagination block.
func Paged(w http.ResponseWriter, items any, meta pagination.Metadata) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: items, Pagination: &meta})
}

// StatusOf returns the HTTP status code for the classification of err.
func StatusOf(err error) int {
	switch entity.KindOf(err) {
	case entity.KindValidation:
		return http.StatusUnprocessableEntity
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindUnauthorized:
		return http.StatusUnauthorized
	case entity.KindForbidden:
		return http.StatusForbidden
	case entity.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes the error envelope for err. Validation failures list their
// fields, authentication failures always read "unauthorized", and anything
// unclassified becomes a generic 500 whose cause is logged with the request id.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	code := StatusOf(err)

	switch code {
	case http.StatusUnprocessableEntity:
		fields := entity.FieldErrors(err)
		out := make([]FieldError, 0, len(fields))
		for _, f := range fields {
			out = append(out, FieldError{Field: f.Field, Message: f.Message})
		}
		JSON(w, code, Envelope{Message: "validation failed", Errors: out})
	case http.StatusUnauthorized:
		JSON(w, code, Envelope{Message: entity.ErrUnauthorized.Message})
	case http.StatusInternalServerError:
		// 機密情報をマスクしてログ出力
		logging.FromContext(r.Context()).Error("internal server error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", SanitizeError(err)))
		JSON(w, code, Envelope{Message: "internal server error"})
	default:
		JSON(w, code, Envelope{Message: clientMessage(err)})
	}
}

// clientMessage returns the outermost domain message of err, which is safe to
// show. The wrapped cause is left out.
func clientMessage(err error) string {
	var de *entity.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return http.StatusText(StatusOf(err))
}

// Decode reads a JSON request body into dst. Malformed JSON, an empty body and
// an oversize body are validation failures on the "body" field.
func Decode(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var (
		maxErr    *http.MaxBytesError
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		return &entity.ValidationError{Field: "body", Message: "request body is required"}
	case errors.As(err, &maxErr):
		return &entity.ValidationError{Field: "body", Message: fmt.Sprintf("request body must not exceed %d bytes", maxErr.Limit)}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return &entity.ValidationError{Field: typeErr.Field, Message: "invalid type"}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &entity.ValidationError{Field: "body", Message: "invalid JSON"}
	default:
		return &entity.ValidationError{Field: "body", Message: "invalid request body"}
	}
}
