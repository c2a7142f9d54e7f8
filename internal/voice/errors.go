package voice

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrMissingAudio is returned when a voice-note turn has no recording attached.
var ErrMissingAudio = errors.New("No audio file provided.")

// UpstreamError is a provider failure carrying the provider's status and message.
type UpstreamError struct {
	Op      string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Op, e.Status, e.Message)
}

// StatusOf extracts the HTTP status and human-readable message to report for err.
// Unknown failures map to 500 with the error text.
func StatusOf(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return statusOrDefault(upErr.Status), messageOrDefault(upErr.Message, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusOrDefault(apiErr.HTTPStatusCode), messageOrDefault(apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return statusOrDefault(reqErr.HTTPStatusCode), messageOrDefault(msg, err)
	}
	return http.StatusInternalServerError, messageOrDefault("", err)
}

func statusOrDefault(status int) int {
	if status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

func messageOrDefault(msg string, err error) string {
	if m := strings.TrimSpace(msg); m != "" {
		return m
	}
	if m := strings.TrimSpace(err.Error()); m != "" {
		return m
	}
	return "Unknown server error"
}
