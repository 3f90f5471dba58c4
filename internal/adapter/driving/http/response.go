package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/passvault/internal/application"
	"github.com/ericfisherdev/passvault/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// GenerateRequest is the JSON body for the generate endpoint. Nil fields
// fall back to the generator defaults.
type GenerateRequest struct {
	Length           *int  `json:"length"`
	IncludeUppercase *bool `json:"include_uppercase"`
	IncludeLowercase *bool `json:"include_lowercase"`
	IncludeNumbers   *bool `json:"include_numbers"`
	IncludeSymbols   *bool `json:"include_symbols"`
}

func (req GenerateRequest) options() application.GenerateOptions {
	opts := application.DefaultGenerateOptions()
	if req.Length != nil {
		opts.Length = *req.Length
	}
	if req.IncludeUppercase != nil {
		opts.IncludeUppercase = *req.IncludeUppercase
	}
	if req.IncludeLowercase != nil {
		opts.IncludeLowercase = *req.IncludeLowercase
	}
	if req.IncludeNumbers != nil {
		opts.IncludeNumbers = *req.IncludeNumbers
	}
	if req.IncludeSymbols != nil {
		opts.IncludeSymbols = *req.IncludeSymbols
	}
	return opts
}

// GenerateResponse carries a generated password.
type GenerateResponse struct {
	Password string `json:"password"`
}

// SavePasswordRequest is the JSON body for the save endpoint.
type SavePasswordRequest struct {
	Label    string `json:"label"`
	Password string `json:"password"`
}

// SummaryResponse is returned after a save. It never carries secret material.
type SummaryResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
}

// PasswordResponse is one decrypted credential. Password is null and
// DecryptionError is true when the stored record could not be decrypted.
type PasswordResponse struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	Password        *string `json:"password"`
	DecryptionError bool    `json:"decryption_error"`
	Error           string  `json:"error,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   string            `json:"time"`
}

func toSummaryResponse(s model.RecordSummary) SummaryResponse {
	return SummaryResponse{
		ID:        s.ID,
		Label:     s.Label,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// toPasswordResponse converts a decrypted record to its JSON representation.
func toPasswordResponse(r model.DecryptedRecord) PasswordResponse {
	resp := PasswordResponse{
		ID:        r.ID,
		Label:     r.Label,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if r.OK() {
		pw := r.Plaintext
		resp.Password = &pw
	} else {
		resp.DecryptionError = true
		resp.Error = model.DecryptionErrorMarker
	}

	return resp
}

func toHealthResponse(r application.HealthReport) HealthResponse {
	checks := r.Checks
	if checks == nil {
		checks = map[string]string{}
	}
	return HealthResponse{
		Status: r.Status,
		Checks: checks,
		Time:   r.Time.Format(time.RFC3339),
	}
}
