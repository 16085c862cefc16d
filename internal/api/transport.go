package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"memochat/internal/logging"
)

// loggingRoundTripper tags every outbound call with an X-Request-Id and logs
// method, URL, status and duration to the file logger. It never touches
// stdout; the terminal belongs to the UI.
type loggingRoundTripper struct {
	inner http.RoundTripper
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
		req.Header.Set("X-Request-Id", requestID)
	}

	start := time.Now()
	resp, err := l.inner.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		logging.ErrorWithFields("request failed", logging.Fields{
			"method":     req.Method,
			"url":        req.URL.String(),
			"duration":   duration.String(),
			"request_id": requestID,
			"error":      err.Error(),
		})
		return nil, err
	}

	logging.DebugWithFields("request done", logging.Fields{
		"method":     req.Method,
		"url":        req.URL.String(),
		"status":     resp.StatusCode,
		"duration":   duration.String(),
		"request_id": requestID,
	})
	return resp, nil
}
