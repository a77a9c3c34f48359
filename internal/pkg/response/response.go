package response

import (
	"encoding/json"
	"io"
	"net/http"
)

// DecodeJSON decodes JSON from request body into the provided struct
func DecodeJSON(body io.ReadCloser, v interface{}) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// Detail carries the machine-readable error code and a human message.
// Every non-2xx response from the internal API uses this envelope.
type Detail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope is the wire shape of all internal API errors.
type ErrorEnvelope struct {
	Detail Detail `json:"detail"`
}

// JSON sends a JSON response with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// OK sends a 200 OK response
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Error sends an error response carrying {detail:{code,message}}
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorEnvelope{Detail: Detail{Code: code, Message: message}})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusBadRequest, code, message)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "E_FORBIDDEN", "forbidden")
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusNotFound, code, message)
}

// Conflict sends a 409 Conflict response
func Conflict(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusConflict, code, message)
}

// UnprocessableEntity sends a 422 response for invalid input
func UnprocessableEntity(w http.ResponseWriter, code, message string) {
	Error(w, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "E_INTERNAL", "an unexpected error occurred")
}
