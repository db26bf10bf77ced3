// Package http provides HTTP server and handler implementations.
//
// This file implements the builder used for every JSON response, including
// the {"error": "..."} envelope.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	raw        []byte
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	b.raw = nil
	return b
}

// Raw sends already encoded JSON as the body.
func (b *JSONResponseBuilder) Raw(body []byte) *JSONResponseBuilder {
	b.raw = body
	b.payload = nil
	return b
}

// Attachment asks the client to save the body as filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	body := b.raw
	if body == nil && b.payload != nil {
		encoded, err := json.Marshal(b.payload)
		if err != nil {
			slog.Error("Response encoding failed", "error", err)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal error"}`))
			return
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if body == nil {
		w.Header().Del("Content-Type")
	}
	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates the standard error envelope.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NoContent creates an empty 204 response.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}

// Created wraps a new record id as {"id": n}.
func Created(id int64) *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusCreated).Data(map[string]int64{"id": id})
}
