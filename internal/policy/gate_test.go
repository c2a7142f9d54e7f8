package policy

import "testing"

func TestParseReply(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		want   Reply
		wantOK bool
	}{
		{
			name:   "complete object",
			raw:    `{"intent":"greet","emotion":"happy","confidence":0.9,"replyText":"Bonjour !"}`,
			want:   Reply{Intent: "greet", Emotion: "happy", Confidence: 0.9, ReplyText: "Bonjour !"},
			wantOK: true,
		},
		{
			name:   "non numeric confidence",
			raw:    `{"intent":"greet","emotion":"happy","confidence":"high","replyText":"Salut"}`,
			want:   Reply{Intent: "greet", Emotion: "happy", Confidence: 0.5, ReplyText: "Salut"},
			wantOK: true,
		},
		{
			name:   "confidence out of range is kept",
			raw:    `{"intent":"greet","confidence":1.7}`,
			want:   Reply{Intent: "greet", Confidence: 1.7},
			wantOK: true,
		},
		{
			name:   "empty output",
			raw:    "",
			want:   Reply{Confidence: 0.5},
			wantOK: true,
		},
		{name: "not json", raw: "Bonjour, je suis le Compagnon.", wantOK: false},
		{name: "json array", raw: `["greet"]`, wantOK: false},
		{name: "json null", raw: `null`, wantOK: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseReply(tc.raw)
			if ok != tc.wantOK {
				t.Fatalf("ParseReply() ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("ParseReply() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestGateCoercesUnknownValues(t *testing.T) {
	in := Reply{Intent: "weather_forecast", Emotion: "angry", Confidence: 0.7, ReplyText: "Il fera beau."}
	got, coercions := Gate(in)
	if got.Intent != IntentRedirectToHumans || got.Emotion != EmotionNeutral {
		t.Fatalf("Gate() = %+v", got)
	}
	if got.ReplyText != in.ReplyText || got.Confidence != in.Confidence {
		t.Fatalf("Gate() changed untouched fields: %+v", got)
	}
	if len(coercions) != 2 || coercions[0].Field != "intent" || coercions[0].From != "weather_forecast" || coercions[1].Field != "emotion" {
		t.Fatalf("coercions = %+v", coercions)
	}
}

func TestGateKeepsValidReply(t *testing.T) {
	in := Reply{Intent: IntentMetaConversation, Emotion: EmotionCurious, Confidence: 0.8, ReplyText: "Je ne garde que les derniers échanges."}
	got, coercions := Gate(in)
	if got != in || len(coercions) != 0 {
		t.Fatalf("Gate() = %+v %+v, want unchanged", got, coercions)
	}
}

func TestGateRefusalText(t *testing.T) {
	got, coercions := Gate(Reply{Intent: IntentRefuseOutOfScope, Emotion: EmotionNeutral, ReplyText: "   "})
	if got.ReplyText != OutOfScopeReplyText {
		t.Fatalf("ReplyText = %q, want default refusal", got.ReplyText)
	}
	if len(coercions) != 1 || coercions[0].Field != "replyText" {
		t.Fatalf("coercions = %+v", coercions)
	}

	got, _ = Gate(Reply{Intent: IntentRefuseOutOfScope, Emotion: EmotionApologetic, ReplyText: "  équipe humaine, s'il vous plaît. "})
	if got.ReplyText != "Équipe humaine, s'il vous plaît." {
		t.Fatalf("ReplyText = %q, want trimmed and capitalized", got.ReplyText)
	}
}

func TestFallbackReplyPassesGate(t *testing.T) {
	fb := FallbackReply()
	got, coercions := Gate(fb)
	if got != fb || len(coercions) != 0 {
		t.Fatalf("fallback reply altered by gate: %+v %+v", got, coercions)
	}
	if fb.Confidence != 0.2 {
		t.Fatalf("fallback confidence = %v", fb.Confidence)
	}
}

func TestSpokenText(t *testing.T) {
	if got := SpokenText(Reply{}); got != SpokenFallbackText {
		t.Fatalf("SpokenText(empty) = %q", got)
	}
	if got := SpokenText(Reply{ReplyText: "Bonjour"}); got != "Bonjour" {
		t.Fatalf("SpokenText() = %q", got)
	}
}
