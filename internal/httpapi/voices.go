package httpapi

import (
	"errors"
	"net/http"
	"strings"
)

type voiceSummary struct {
	VoiceID string `json:"voice_id"`
	Name    string `json:"name"`
	Usage   string `json:"usage"`
}

type listVoicesResponse struct {
	DefaultVoiceID  string         `json:"default_voice_id"`
	RealtimeVoiceID string         `json:"realtime_voice_id"`
	Recommended     []voiceSummary `json:"recommended"`
	Voices          []voiceSummary `json:"voices"`
}

// Voices offered by the speech and realtime endpoints. marin and cedar are realtime-only.
var knownVoices = []voiceSummary{
	{VoiceID: "alloy", Name: "Alloy (neutre)", Usage: "tts,realtime"},
	{VoiceID: "ash", Name: "Ash (posé)", Usage: "tts,realtime"},
	{VoiceID: "ballad", Name: "Ballad (doux)", Usage: "tts,realtime"},
	{VoiceID: "coral", Name: "Coral (chaleureux)", Usage: "tts,realtime"},
	{VoiceID: "echo", Name: "Echo (clair)", Usage: "tts,realtime"},
	{VoiceID: "sage", Name: "Sage (calme)", Usage: "tts,realtime"},
	{VoiceID: "shimmer", Name: "Shimmer (lumineux)", Usage: "tts,realtime"},
	{VoiceID: "verse", Name: "Verse (expressif)", Usage: "tts,realtime"},
	{VoiceID: "marin", Name: "Marin (naturel)", Usage: "realtime"},
	{VoiceID: "cedar", Name: "Cedar (grave)", Usage: "realtime"},
}

func (s *Server) handleListVoices(w http.ResponseWriter, _ *http.Request) {
	recommended := make([]voiceSummary, 0, 3)
	for _, v := range knownVoices {
		switch v.VoiceID {
		case "marin", "cedar", "coral":
			recommended = append(recommended, v)
		}
	}
	respondJSON(w, http.StatusOK, listVoicesResponse{
		DefaultVoiceID:  s.cfg.SpeechVoice,
		RealtimeVoiceID: s.cfg.RealtimeVoice,
		Recommended:     recommended,
		Voices:          knownVoices,
	})
}

type previewTTSRequest struct {
	Text string `json:"text"`
}

const previewText = "Bonjour ! Je suis votre compagnon. Comment puis-je vous aider ?"

// handlePreviewTTS voices a short sample with the configured speech voice.
func (s *Server) handlePreviewTTS(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		respondError(w, http.StatusNotImplemented, "turn pipeline not configured")
		return
	}
	var req previewTTSRequest
	if err := s.decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		s.respondDecodeError(w, r, err)
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = previewText
	}
	mp3, err := s.turns.Synthesize(r.Context(), text)
	if err != nil {
		s.respondTurnError(w, r, "/api/tts/preview", err)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(mp3)
}
