package api

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/patchme-dev/patchme/internal/ingest"
	"github.com/patchme-dev/patchme/internal/observability"
	"github.com/patchme-dev/patchme/internal/ratelimit"
)

// @Summary Ingest version report
// @Description Accepts a version report from an agent, identified by API key
// @Accept json
// @Produce json
// @Param X-API-Key header string false "System API key (alternative to body key)"
// @Param report body object true "Version report"
// @Success 200 {object} map[string]interface{} "Processed and skipped counts"
// @Failure 400 {object} map[string]string "Malformed payload"
// @Failure 401 {object} map[string]string "Unknown API key"
// @Failure 409 {object} map[string]string "Write conflict persisted across retries"
// @Failure 415 {object} map[string]string "Unsupported content type"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Failure 503 {object} map[string]string "Store timed out"
// @Router /api/ingest [post]
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "reading request body")
		return
	}

	// Admission happens before validation so malformed floods still count
	// against the sender's window.
	key := ingest.ExtractKey(body, r.Header.Get("X-API-Key"), clientIP(r))
	res := s.limiter.Check(key)
	setRateLimitHeaders(w, res)
	if !res.Allowed {
		observability.RateLimited.Inc()
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(res)))
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	payload, perr := ingest.ParsePayload(body, r.Header.Get("Content-Type"), r.Header.Get("X-API-Key"))
	if perr != nil {
		observability.IngestRequests.WithLabelValues("rejected").Inc()
		if perr == ingest.ErrUnsupportedMedia {
			writeError(w, r, http.StatusUnsupportedMediaType, perr.Msg)
			return
		}
		resp := map[string]string{"error": perr.Msg}
		if perr.Details != "" {
			resp["details"] = perr.Details
		}
		if perr.Preview != "" {
			resp["received"] = perr.Preview
		}
		writeJSON(w, r, http.StatusBadRequest, resp)
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrInvalidKey):
			observability.IngestRequests.WithLabelValues("unauthorized").Inc()
			writeError(w, r, http.StatusUnauthorized, "invalid API key")
		case errors.Is(err, ingest.ErrConflictExhausted):
			observability.IngestRequests.WithLabelValues("conflict").Inc()
			writeError(w, r, http.StatusConflict, "write conflict, please retry")
		case errors.Is(err, ingest.ErrTimeout):
			observability.IngestRequests.WithLabelValues("timeout").Inc()
			writeError(w, r, http.StatusServiceUnavailable, "store temporarily unavailable")
		default:
			observability.IngestRequests.WithLabelValues("error").Inc()
			slog.Error("ingest failed", "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	observability.IngestRequests.WithLabelValues("ok").Inc()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"ok":        true,
		"processed": result.Processed,
		"skipped":   result.Skipped,
	})
}

func setRateLimitHeaders(w http.ResponseWriter, res ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", res.ResetAt.UTC().Format(time.RFC3339))
}

func retryAfterSeconds(res ratelimit.Result) int {
	secs := int(time.Until(res.ResetAt).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// clientIP extracts the caller address for rate limiting when no API key is
// present. The first X-Forwarded-For entry wins behind a proxy.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(ip)
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
