package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/matheuscscp/declarative-oauth2/internal/flow"
	"github.com/matheuscscp/declarative-oauth2/internal/logging"
)

func baseURL(r *http.Request) string {
	return fmt.Sprintf("https://%s", r.Host)
}

func callbackPath(provider string) string {
	return pathCallbackPrefix + provider
}

func callbackURL(r *http.Request, provider string) string {
	return baseURL(r) + callbackPath(provider)
}

// callbackParams flattens the callback query keeping the first value of
// each parameter.
func callbackParams(r *http.Request) map[string]string {
	q := r.URL.Query()
	params := make(map[string]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

// flowErrorStatus maps an engine error to the status and message sent to
// the client. The error itself is only logged.
func flowErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, flow.ErrValidation):
		return http.StatusBadRequest, "Invalid OAuth configuration"
	case errors.Is(err, flow.ErrParamConfigNotFound):
		return http.StatusNotFound, "OAuth parameters not configured"
	default:
		return http.StatusBadGateway, "OAuth flow failed"
	}
}

func respondFlowError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.FromRequest(r).WithError(err).Error(msg)
	status, text := flowErrorStatus(err)
	http.Error(w, text, status)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write response")
	}
}
