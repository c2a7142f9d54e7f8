package policy

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Intents the structured reply may carry.
const (
	IntentGreet             = "greet"
	IntentExplainProject    = "explain_project"
	IntentAnswerAboutDevice = "answer_about_device"
	IntentMetaConversation  = "meta_conversation"
	IntentClarifyQuestion   = "clarify_question"
	IntentRefuseOutOfScope  = "refuse_out_of_scope"
	IntentRedirectToHumans  = "redirect_to_humans"
)

// Emotions the structured reply may carry.
const (
	EmotionNeutral    = "neutral"
	EmotionHappy      = "happy"
	EmotionCurious    = "curious"
	EmotionConcerned  = "concerned"
	EmotionConfident  = "confident"
	EmotionApologetic = "apologetic"
	EmotionPlayful    = "playful"
)

var (
	Intents = []string{
		IntentGreet,
		IntentExplainProject,
		IntentAnswerAboutDevice,
		IntentMetaConversation,
		IntentClarifyQuestion,
		IntentRefuseOutOfScope,
		IntentRedirectToHumans,
	}
	Emotions = []string{
		EmotionNeutral,
		EmotionHappy,
		EmotionCurious,
		EmotionConcerned,
		EmotionConfident,
		EmotionApologetic,
		EmotionPlayful,
	}

	allowedIntents  = toSet(Intents)
	allowedEmotions = toSet(Emotions)
)

const (
	// DefaultConfidence replaces a missing or non-numeric confidence.
	DefaultConfidence = 0.5

	ParseFailureReplyText = "Je n'ai pas réussi à produire une réponse structurée. Pouvez-vous reformuler, ou demander à un membre de l'équipe ?"
	OutOfScopeReplyText   = "Cette question ne concerne pas directement le projet que je présente. Mon rôle est limité à l’explication du dispositif. Pour ce sujet, je vous invite à vous adresser à un membre de l’équipe humaine."
	SpokenFallbackText    = "D'accord."
)

// Reply is one structured turn as returned to the client.
type Reply struct {
	Intent     string  `json:"intent"`
	Emotion    string  `json:"emotion"`
	Confidence float64 `json:"confidence"`
	ReplyText  string  `json:"replyText"`
}

// Coercion records one field the gate had to correct.
type Coercion struct {
	Field string
	From  string
	To    string
}

// FallbackReply is used when the model output is not a JSON object.
func FallbackReply() Reply {
	return Reply{
		Intent:     IntentRedirectToHumans,
		Emotion:    EmotionNeutral,
		Confidence: 0.2,
		ReplyText:  ParseFailureReplyText,
	}
}

// ParseReply decodes raw model output. Empty output counts as an empty object;
// anything that is not a JSON object reports false.
func ParseReply(raw string) (Reply, bool) {
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	var fields map[string]any
	if err := sonic.UnmarshalString(raw, &fields); err != nil || fields == nil {
		return Reply{}, false
	}

	r := Reply{Confidence: DefaultConfidence}
	r.Intent, _ = fields["intent"].(string)
	r.Emotion, _ = fields["emotion"].(string)
	if c, ok := fields["confidence"].(float64); ok {
		r.Confidence = c
	}
	switch v := fields["replyText"].(type) {
	case nil:
	case string:
		r.ReplyText = v
	default:
		r.ReplyText = fmt.Sprint(v)
	}
	return r, true
}

// Gate forces r into the closed vocabularies. Unknown intents become
// redirect_to_humans and unknown emotions neutral; a refusal always carries a
// non-empty, capitalized reply text.
func Gate(r Reply) (Reply, []Coercion) {
	var coercions []Coercion
	if _, ok := allowedIntents[r.Intent]; !ok {
		coercions = append(coercions, Coercion{Field: "intent", From: r.Intent, To: IntentRedirectToHumans})
		r.Intent = IntentRedirectToHumans
	}
	if _, ok := allowedEmotions[r.Emotion]; !ok {
		coercions = append(coercions, Coercion{Field: "emotion", From: r.Emotion, To: EmotionNeutral})
		r.Emotion = EmotionNeutral
	}
	if r.Intent == IntentRefuseOutOfScope {
		text := strings.TrimSpace(r.ReplyText)
		if text == "" {
			coercions = append(coercions, Coercion{Field: "replyText", From: r.ReplyText, To: "default_refusal"})
			text = OutOfScopeReplyText
		}
		r.ReplyText = upperFirst(text)
	}
	return r, coercions
}

// SpokenText is what gets synthesized for r.
func SpokenText(r Reply) string {
	if r.ReplyText == "" {
		return SpokenFallbackText
	}
	return r.ReplyText
}

func upperFirst(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError || first == '\n' {
		return s
	}
	return string(unicode.ToUpper(first)) + s[size:]
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
