package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecgate/internal/domain"
	logpkg "github.com/kailas-cloud/vecgate/internal/logger"
)

// errorResponse is the un-enveloped error body. Detail is a message string,
// or a list of field errors for 422.
type errorResponse struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor translates an error kind into an HTTP status.
func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes err in the shape matching its kind.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	kind := domain.KindOf(err)
	status := statusFor(kind)

	switch kind {
	case domain.KindValidation:
		log.Debug("validation error", zap.Error(err))
		writeDetail(w, status, validationDetails(err))
	case domain.KindBackend:
		log.Error("store error", zap.Error(err))
		writeDetail(w, status, clientMessage(err))
	default:
		log.Debug("request failed", zap.String("kind", kind.String()), zap.Error(err))
		writeDetail(w, status, clientMessage(err))
	}
}

// clientMessage is the message of the innermost tagged error, or the raw text.
func clientMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func validationDetails(err error) []domain.FieldError {
	var de *domain.Error
	if !errors.As(err, &de) {
		return []domain.FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
	}
	if len(de.Details) > 0 {
		return de.Details
	}
	return []domain.FieldError{{Loc: []string{"body"}, Msg: de.Message, Type: "value_error"}}
}
