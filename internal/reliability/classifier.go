package reliability

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"syscall"
)

// transientSignatures are matched case-insensitively against error text for
// failures that lost their typed cause on the way up (SDK wrapping, proxies).
var transientSignatures = []string{
	"connection error",
	"connection reset",
	"econnreset",
	"etimedout",
	"i/o timeout",
	"broken pipe",
}

// IsTransientNetworkError reports whether err looks like a dropped or timed-out
// connection. Provider responses (auth, validation, rate limits) are never transient.
func IsTransientNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// IsRetryableHTTPStatus classifies provider status codes worth retrying by the caller.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
