package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/coal/valvegate/internal/filter"
	"github.com/coal/valvegate/internal/pipeline"
	"github.com/coal/valvegate/internal/settings"
)

// userHeader names the caller on chat requests. Requests without it are
// forwarded byte-for-byte; there are no settings to merge for an
// unattributed call.
const userHeader = "X-User-Id"

// ValveProxy is an HTTP reverse proxy that merges per-user settings into
// outgoing chat payloads before they reach the backend.
type ValveProxy struct {
	pipe    *pipeline.Pipeline
	store   *settings.Store
	backend *url.URL
	proxy   *httputil.ReverseProxy
	logger  zerolog.Logger
}

// New creates a new ValveProxy.
func New(pipe *pipeline.Pipeline, store *settings.Store, backendURL string, logger zerolog.Logger) (*ValveProxy, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, err
	}

	vp := &ValveProxy{
		pipe:    pipe,
		store:   store,
		backend: target,
		logger:  logger,
	}

	vp.proxy = &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host
		},
	}

	return vp, nil
}

// ServeHTTP handles incoming requests.
func (vp *ValveProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only chat completion endpoints carry payloads the filter understands
	if !isChatCompletionEndpoint(r.URL.Path) {
		vp.proxy.ServeHTTP(w, r)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	userID := r.Header.Get(userHeader)
	if userID == "" {
		// Unattributed call: nothing to merge, forward unchanged
		vp.forwardRaw(w, r, bodyBytes)
		return
	}

	body, err := DecodePayload(bodyBytes)
	if err != nil {
		// Not a JSON object, pass through untouched
		vp.forwardRaw(w, r, bodyBytes)
		return
	}

	userSettings := vp.store.ResolveUser(userID)
	result, err := vp.pipe.ProcessInlet(body, &filter.User{ID: userID}, &userSettings)
	if err != nil {
		if errors.Is(err, filter.ErrMetadataShape) {
			vp.logger.Warn().
				Str("user", userID).
				Err(err).
				Msg("rejected payload with malformed metadata")
			writeJSONError(w, http.StatusBadRequest, "metadata field must be an object")
			return
		}
		vp.logger.Error().Err(err).Msg("inlet chain failed")
		writeJSONError(w, http.StatusInternalServerError, "inlet processing failed")
		return
	}

	merged, err := json.Marshal(result.Body)
	if err != nil {
		vp.logger.Error().Err(err).Msg("failed to encode merged payload")
		writeJSONError(w, http.StatusInternalServerError, "failed to encode payload")
		return
	}

	vp.logger.Info().
		Str("request_id", result.RequestID).
		Str("user", userID).
		Bool("save_memories", userSettings.SaveMemories).
		Bool("anonymous_mode", userSettings.AnonymousMode).
		Bool("metadata_created", result.MetadataCreated).
		Msg("inlet")

	vp.forwardRaw(w, r, merged)
}

// forwardRaw rewinds the request with the given body and hands it to the
// reverse proxy.
func (vp *ValveProxy) forwardRaw(w http.ResponseWriter, r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
	vp.proxy.ServeHTTP(w, r)
}

// writeJSONError answers with a small JSON error body.
func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
