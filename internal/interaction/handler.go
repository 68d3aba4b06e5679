// Package interaction exposes the dialogue line endpoint: one POST per
// script node, answered with a newline-delimited stream of audio frames.
package interaction

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/neelparekh9/dialogue-gateway/internal/observability"
	"github.com/neelparekh9/dialogue-gateway/internal/script"
	"github.com/neelparekh9/dialogue-gateway/internal/stream"
)

// Handler serves dialogue line requests
type Handler struct {
	producer *stream.Producer
	logger   zerolog.Logger
}

// NewHandler creates an interaction handler backed by a line stream producer
func NewHandler(producer *stream.Producer, logger zerolog.Logger) *Handler {
	return &Handler{producer: producer, logger: logger}
}

// Register mounts the interaction routes on the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /interaction/{nodeId}", h.HandleLine)
}

// requestBody is what the client sends with each node request. The script is
// fixed, so the inputs only inform logging; they never change the branch taken.
type requestBody struct {
	UserInput string `json:"userInput"`
	AlexInput string `json:"alexInput"`
}

// HandleLine streams one scripted line as newline-delimited JSON frames.
// The first sentence is synthesized before the response status is committed,
// so a broken synthesis backend still yields a clean 500.
func (h *Handler) HandleLine(w http.ResponseWriter, r *http.Request) {
	logger := observability.WithCorrelationID(r.Header.Get("X-Correlation-ID"))

	nodeID, err := strconv.Atoi(r.PathValue("nodeId"))
	if err != nil {
		observability.RecordLineRequest("error")
		writeJSONError(w, http.StatusBadRequest, "node id must be an integer")
		return
	}

	var body requestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		// A malformed body is tolerated: the scripted flow ignores it anyway
		logger.Debug().Err(err).Msg("Ignoring unreadable request body")
	}
	if body.UserInput != "" || body.AlexInput != "" {
		logger.Info().
			Int("node_id", nodeID).
			Str("user_input", body.UserInput).
			Str("alex_input", body.AlexInput).
			Msg("Received interaction input")
	}

	line, err := script.Lookup(nodeID)
	if err != nil {
		logger.Warn().Int("node_id", nodeID).Msg("Requested node is not in the script")
		observability.RecordLineRequest("not_found")
		writeJSONError(w, http.StatusNotFound, "dialogue node not found")
		return
	}

	ls, err := h.producer.StartLine(r.Context(), line)
	if err != nil {
		var fsErr *stream.FirstSentenceError
		if errors.As(err, &fsErr) {
			logger.Error().Err(err).Int("node_id", nodeID).Msg("First sentence synthesis failed")
		} else {
			logger.Error().Err(err).Int("node_id", nodeID).Msg("Failed to start line stream")
		}
		observability.RecordLineRequest("error")
		writeJSONError(w, http.StatusInternalServerError, "failed to synthesize dialogue audio")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(stream.ResponseModeHeader, stream.ModeStreamed)
	w.WriteHeader(http.StatusOK)

	observability.RecordStreamStart()
	status := "ok"
	if err := ls.WriteTo(r.Context(), w); err != nil {
		// Headers are long gone; all we can do is note the broken stream
		status = "error"
		logger.Error().Err(err).Int("node_id", nodeID).Msg("Line stream aborted mid-flight")
	}
	observability.RecordStreamEnd(status)

	logger.Info().
		Int("node_id", nodeID).
		Int("sentences", ls.SentenceCount()).
		Str("status", status).
		Msg("Line stream finished")
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
