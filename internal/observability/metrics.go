package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Line streaming metrics
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialogue_gateway_active_streams",
		Help: "Number of dialogue line streams currently open",
	})

	lineRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_gateway_line_requests_total",
		Help: "Total number of dialogue line requests",
	}, []string{"status"}) // status: "ok", "not_found", "error"

	firstChunkLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dialogue_gateway_first_chunk_latency_seconds",
		Help:    "Latency from request start to the first audio chunk on the wire",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	framesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_gateway_frames_written_total",
		Help: "Total number of protocol frames written",
	}, []string{"type"}) // type: "new_audio", "chunk", "end"

	// Synthesis pipeline metrics
	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dialogue_gateway_sentence_synthesis_seconds",
		Help:    "End-to-end latency of one sentence synthesis job",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	synthesisFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_gateway_synthesis_failures_total",
		Help: "Total number of failed sentence synthesis jobs by stage",
	}, []string{"stage"}) // stage: "synthesis", "transform", "transcription"

	cleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialogue_gateway_cleanup_failures_total",
		Help: "Total number of temporary artifacts that could not be deleted",
	})

	audioBytesStreamed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialogue_gateway_audio_bytes_total",
		Help: "Total encoded audio bytes written to the wire",
	})
)

// RecordStreamStart marks a line stream as open
func RecordStreamStart() {
	activeStreams.Inc()
}

// RecordStreamEnd marks a line stream as closed and records the request status
func RecordStreamEnd(status string) {
	activeStreams.Dec()
	lineRequests.WithLabelValues(status).Inc()
}

// RecordLineRequest records a request that never opened a stream (404, early 500)
func RecordLineRequest(status string) {
	lineRequests.WithLabelValues(status).Inc()
}

// RecordFirstChunk records the time to the first audio chunk
func RecordFirstChunk(since time.Time) {
	firstChunkLatency.Observe(time.Since(since).Seconds())
}

// RecordFrame records one written protocol frame
func RecordFrame(frameType string, audioBytes int) {
	framesWritten.WithLabelValues(frameType).Inc()
	if audioBytes > 0 {
		audioBytesStreamed.Add(float64(audioBytes))
	}
}

// RecordSynthesis records the duration and outcome of one sentence job
func RecordSynthesis(start time.Time, failedStage string) {
	synthesisLatency.Observe(time.Since(start).Seconds())
	if failedStage != "" {
		synthesisFailures.WithLabelValues(failedStage).Inc()
	}
}

// RecordCleanupFailure records a temp artifact that survived a cleanup attempt
func RecordCleanupFailure() {
	cleanupFailures.Inc()
}
