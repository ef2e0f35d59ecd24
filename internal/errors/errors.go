package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// Problem type URIs following RFC 7807
const (
	TypeValidation  = "/errors/validation"
	TypeNotFound    = "/errors/not-found"
	TypeRateLimit   = "/errors/rate-limit"
	TypeInternal    = "/errors/internal"
	TypeTimeout     = "/errors/timeout"
	TypeConflict    = "/errors/conflict"
	TypeRunFailed   = "/errors/consolidation/run-failed"
	TypeRunBusy     = "/errors/consolidation/already-running"
	TypeNoDataset   = "/errors/data/no-dataset"
	TypeBadDownload = "/errors/data/bad-download-format"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// Error implements the error interface so problems can travel as errors.
func (pd *ProblemDetails) Error() string {
	return pd.Title + ": " + pd.Detail
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// ErrValidation creates a validation problem for a single field.
func ErrValidation(field, detail string) *ProblemDetails {
	return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", detail, "").
		WithExtension("field", field)
}

// ErrNoDataset is returned when no consolidation run has produced a
// dataset yet.
func ErrNoDataset() *ProblemDetails {
	return NewProblemDetails(http.StatusServiceUnavailable, TypeNoDataset,
		"No Dataset Available",
		"No consolidation run has completed yet; try again after the first run finishes", "")
}

// ErrRunBusy is returned when a consolidation run is already in flight.
func ErrRunBusy() *ProblemDetails {
	return NewProblemDetails(http.StatusConflict, TypeRunBusy,
		"Consolidation Already Running",
		"A consolidation run is already in progress", "")
}
