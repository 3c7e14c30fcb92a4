// Package httpx provides the JSON envelope used by every API response.
package httpx

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Envelope is the response shape shared by all API handlers.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// JSON sends a JSON response with the given status code. A value that cannot
// be encoded is replaced by the generic 500 envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{Success: false, Message: InternalErrorMessage})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// Message sends a bare envelope.
func Message(w http.ResponseWriter, status int, success bool, message string) {
	JSON(w, status, Envelope{Success: success, Message: message})
}

// Fail sends an envelope with success=false.
func Fail(w http.ResponseWriter, status int, message string) {
	Message(w, status, false, message)
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}

// DecodeBody accepts JSON as well as url-encoded forms. Form values are
// re-encoded as a flat JSON object so the same struct tags apply.
func DecodeBody(r *http.Request, target any) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return err
		}
		return decodeValues(r.PostForm, target)
	}
	return DecodeJSON(r, target)
}

func decodeValues(values url.Values, target any) error {
	flat := make(map[string]string, len(values))
	for k := range values {
		flat[k] = values.Get(k)
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}
