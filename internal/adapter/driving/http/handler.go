package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ericfisherdev/passvault/internal/application"
	"github.com/ericfisherdev/passvault/internal/domain/model"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// Banner is the plain-text response served at the root path.
const Banner = "Password Generator API is running!"

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	credentials *application.CredentialService
	health      *application.HealthService
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	credentials *application.CredentialService,
	health *application.HealthService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		credentials: credentials,
		health:      health,
		logger:      logger,
	}
}

// Options configures the cross-cutting middleware around the API.
type Options struct {
	// ClientOrigin is echoed in Access-Control-Allow-Origin.
	ClientOrigin string
	// PrincipalHeader names the header carrying the authenticated principal.
	PrincipalHeader string
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with CORS, logging, and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger, opts Options) http.Handler {
	mux := http.NewServeMux()

	auth := func(fn http.HandlerFunc) http.Handler {
		return requirePrincipal(opts.PrincipalHeader, logger, fn)
	}

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("POST /api/v1/passwords/generate", auth(h.GeneratePassword))
	mux.Handle("POST /api/v1/passwords", auth(h.SavePassword))
	mux.Handle("GET /api/v1/passwords", auth(h.ListPasswords))
	mux.Handle("GET /api/v1/passwords/{id}", auth(h.GetPassword))
	mux.Handle("DELETE /api/v1/passwords/{id}", auth(h.DeletePassword))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = corsMiddleware(opts.ClientOrigin, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Root serves the liveness banner.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Banner))
}

// Health reports dependency health; 503 when any check fails.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, toHealthResponse(report))
}

// GeneratePassword returns a freshly generated password. Omitted fields take
// the defaults: length 12 with every character class.
func (h *Handler) GeneratePassword(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	opts := req.options()
	if opts.Length > application.MaxRequestLength {
		writeError(w, http.StatusBadRequest, "length must not exceed 4096")
		return
	}

	password, err := h.credentials.Generate(r.Context(), opts)
	if err != nil {
		h.writeServiceError(w, err, "failed to generate password")
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{Password: password})
}

// SavePassword encrypts and stores a credential for the caller.
func (h *Handler) SavePassword(w http.ResponseWriter, r *http.Request) {
	var req SavePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	summary, err := h.credentials.Save(r.Context(), principalFrom(r.Context()), req.Label, req.Password)
	if err != nil {
		h.writeServiceError(w, err, "failed to save password")
		return
	}

	writeJSON(w, http.StatusCreated, toSummaryResponse(summary))
}

// ListPasswords returns the caller's credentials, decrypted.
func (h *Handler) ListPasswords(w http.ResponseWriter, r *http.Request) {
	records, err := h.credentials.List(r.Context(), principalFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, err, "failed to list passwords")
		return
	}

	resp := make([]PasswordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toPasswordResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetPassword returns one of the caller's credentials, decrypted.
func (h *Handler) GetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.credentials.Get(r.Context(), principalFrom(r.Context()), id)
	if err != nil {
		h.writeServiceError(w, err, "failed to get password", "id", id)
		return
	}

	writeJSON(w, http.StatusOK, toPasswordResponse(rec))
}

// DeletePassword removes one of the caller's credentials.
func (h *Handler) DeletePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	if err := h.credentials.Delete(r.Context(), principalFrom(r.Context()), id); err != nil {
		h.writeServiceError(w, err, "failed to delete password", "id", id)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Password removed"})
}

// recordID reads the {id} path value. Record IDs are UUIDs, so anything else
// cannot exist and is answered with 404 directly.
func recordID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "password not found")
		return "", false
	}
	return id, true
}

// decode reads a bounded JSON body into v, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps a service error to a response. Unexpected errors are
// logged and reported as an opaque 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, logMsg string, args ...any) {
	switch {
	case model.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case model.IsNotFound(err):
		writeError(w, http.StatusNotFound, "password not found")
	default:
		h.logger.Error(logMsg, append(args, "error", err)...)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
