package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"strings"
)

type statusCheck struct {
	ID     string `json:"id"`
	Status string `json:"status"` // ok|warn|error
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Fix    string `json:"fix,omitempty"`
}

type statusResponse struct {
	VoiceProvider   string        `json:"voice_provider"`
	RealtimeEnabled bool          `json:"realtime_enabled"`
	Checks          []statusCheck `json:"checks"`
}

// handleStatus reports whether the service is set up well enough to hold a conversation.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.VoiceProvider))
	checks := make([]statusCheck, 0, 5)

	switch provider {
	case "openai":
		checks = append(checks, statusCheck{ID: "voice_provider", Status: "ok", Label: "Voice backend", Detail: "openai"})
		if strings.TrimSpace(s.cfg.OpenAIAPIKey) == "" {
			checks = append(checks, statusCheck{
				ID:     "openai_key",
				Status: "error",
				Label:  "OpenAI API key",
				Detail: "OPENAI_API_KEY is not set",
				Fix:    "Set OPENAI_API_KEY in the environment or .env, or use VOICE_PROVIDER=mock.",
			})
		} else {
			checks = append(checks, statusCheck{ID: "openai_key", Status: "ok", Label: "OpenAI API key", Detail: "present"})
		}
	case "mock":
		checks = append(checks, statusCheck{
			ID:     "voice_provider",
			Status: "warn",
			Label:  "Voice backend is mock",
			Detail: "Replies are canned and no real audio is generated.",
			Fix:    "Set OPENAI_API_KEY and VOICE_PROVIDER=openai.",
		})
	default:
		checks = append(checks, statusCheck{
			ID:     "voice_provider",
			Status: "error",
			Label:  "Voice backend",
			Detail: "unknown provider; expected openai|mock",
		})
	}

	if s.negotiator == nil {
		checks = append(checks, statusCheck{ID: "realtime", Status: "warn", Label: "Realtime sessions", Detail: "disabled"})
	} else {
		checks = append(checks, statusCheck{
			ID:     "realtime",
			Status: "ok",
			Label:  "Realtime sessions",
			Detail: fmt.Sprintf("%s (%s)", s.cfg.RealtimeModel, s.cfg.RealtimeVoice),
		})
	}

	checks = append(checks, s.uploadDirCheck())
	checks = append(checks, statusCheck{
		ID:     "retry_policy",
		Status: "ok",
		Label:  "Upstream retries",
		Detail: fmt.Sprintf("%d attempts, base delay %s", s.cfg.RetryAttempts, s.cfg.RetryBaseDelay),
	})

	respondJSON(w, http.StatusOK, statusResponse{
		VoiceProvider:   provider,
		RealtimeEnabled: s.negotiator != nil,
		Checks:          checks,
	})
}

func (s *Server) uploadDirCheck() statusCheck {
	dir := strings.TrimSpace(s.cfg.UploadDir)
	if dir == "" {
		dir = "tmp_uploads"
	}
	detail := dir
	if s.cfg.KeepUploads {
		detail += " (recordings kept)"
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return statusCheck{ID: "upload_dir", Status: "ok", Label: "Upload directory", Detail: detail + ", created on first voice note"}
	case err != nil:
		return statusCheck{ID: "upload_dir", Status: "error", Label: "Upload directory", Detail: err.Error(), Fix: "Point UPLOAD_DIR at a writable directory."}
	case !info.IsDir():
		return statusCheck{ID: "upload_dir", Status: "error", Label: "Upload directory", Detail: dir + " is not a directory", Fix: "Point UPLOAD_DIR at a writable directory."}
	}
	return statusCheck{ID: "upload_dir", Status: "ok", Label: "Upload directory", Detail: detail}
}
