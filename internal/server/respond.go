package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/shared"
	"github.com/desertthunder/foodgram/internal/validation"
)

// maxBodySize bounds request payloads, which carry base64 images.
const maxBodySize = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a JSON body into v. Malformed bodies become a 400 with a detail message.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if len(data) == 0 {
		data = []byte("{}")
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: JSON parse error - %v", shared.ErrInvalidInput, err)
	}
	return nil
}

// pathID parses the {id} URL parameter. Non-numeric ids are reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

// relationErrors are reported as {"errors": "..."}.
var relationErrors = []error{
	shared.ErrSelfSubscription,
	shared.ErrAlreadySubscribed,
	shared.ErrAlreadyFavorited,
	shared.ErrNotFavorited,
	shared.ErrAlreadyInCart,
	shared.ErrNotInCart,
}

// writeError maps domain errors onto status codes and response bodies.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	var (
		verr     *validation.RequestValidationError
		fieldErr *models.FieldError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Fields())
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, map[string][]string{fieldErr.Field: {fieldErr.Message}})
	case errors.Is(err, shared.ErrUnsupportedImage):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"image": {"Upload a valid image encoded as a base64 data URI."}})
	case errors.Is(err, shared.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Unable to log in with provided credentials."}})
	case isRelationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"errors": err.Error()})
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotAuthenticated):
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, shared.ErrInvalidToken):
		writeDetail(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, shared.ErrPermissionDenied):
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, errInvalidPage):
		writeDetail(w, http.StatusNotFound, "Invalid page.")
	case errors.Is(err, shared.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, shared.ErrTooManyRequests):
		writeDetail(w, http.StatusTooManyRequests, "Request was throttled.")
	case errors.Is(err, shared.ErrServiceUnavailable):
		writeDetail(w, http.StatusServiceUnavailable, "Service unavailable.")
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
	}
}

func isRelationError(err error) bool {
	for _, target := range relationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
