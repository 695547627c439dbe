package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/terra/internal/farm"
	"github.com/sells-group/terra/internal/field"
	"github.com/sells-group/terra/internal/store"
	"github.com/sells-group/terra/pkg/soilgrids"
)

// maxBodyBytes bounds request bodies; a boundary with a few thousand
// vertices fits comfortably.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

// requestError carries a status chosen by a handler.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// statusFor maps an error to an HTTP status and a client-facing message.
func statusFor(err error) (int, string) {
	var (
		reqErr    *requestError
		lookupErr *farm.SoilLookupError
	)
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.msg
	case eris.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "field not found"
	case eris.Is(err, farm.ErrNoFields):
		return http.StatusNotFound, "farm has no fields"
	case eris.Is(err, field.ErrUnknownCrop):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, soilgrids.ErrNoData):
		return http.StatusUnprocessableEntity, "no soil data at this location"
	case errors.As(err, &lookupErr):
		return http.StatusBadGateway, "soil service unavailable"
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
