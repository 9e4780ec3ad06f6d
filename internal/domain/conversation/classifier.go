package conversation

import "strings"

// Urgency grades how pressing a user message is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:    0,
	UrgencyNormal: 1,
	UrgencyHigh:   2,
	UrgencyUrgent: 3,
}

// Outranks reports whether u is strictly more pressing than other.
func (u Urgency) Outranks(other Urgency) bool {
	return urgencyRank[u] > urgencyRank[other]
}

// Classifier extracts intent, sentiment and urgency signals from user
// messages. Implementations may be lexicon based or model backed.
type Classifier interface {
	ClassifyIntent(text string) string
	ScoreSentiment(text string) float64
	DetectUrgency(text string) Urgency
	ExtractEntities(text string) (symptoms, conditions []string)
}

// LanguageDetector guesses the language of a message.
type LanguageDetector interface {
	Detect(text string) string
}

// LexiconClassifier is a keyword driven Classifier. It stands in for an
// NLU model behind the same interface.
type LexiconClassifier struct{}

var intentLexicon = map[string][]string{
	"appointment":  {"appointment", "schedule", "book", "reschedule"},
	"prescription": {"prescription", "medication", "refill", "drug"},
	"symptoms":     {"symptom", "pain", "hurt", "feel", "sick"},
	"billing":      {"bill", "payment", "insurance", "cost", "charge"},
	"results":      {"result", "test", "lab", "report"},
	"general_info": {"what", "how", "when", "where", "why"},
}

// intentOrder fixes the evaluation order so overlapping lexicons resolve
// deterministically, most specific first.
var intentOrder = []string{
	"appointment", "prescription", "symptoms", "billing", "results", "general_info",
}

var (
	positiveWords = []string{"good", "great", "excellent", "happy", "satisfied", "better"}
	negativeWords = []string{"bad", "terrible", "awful", "frustrated", "angry", "worse"}

	urgentKeywords = []string{
		"emergency", "urgent", "severe", "serious", "critical",
		"chest pain", "can't breathe", "bleeding", "unconscious",
	}
	highKeywords = []string{
		"pain", "hurt", "worried", "concerned", "problem",
		"getting worse", "need help",
	}

	symptomLexicon = []string{
		"headache", "fever", "cough", "pain", "nausea", "fatigue",
		"dizziness", "shortness of breath", "chest pain", "rash",
	}
	conditionLexicon = []string{
		"diabetes", "hypertension", "asthma", "arthritis", "depression",
		"anxiety", "migraine", "allergies", "back pain",
	}
)

// ClassifyIntent returns the first matching intent or empty string.
func (LexiconClassifier) ClassifyIntent(text string) string {
	lower := strings.ToLower(text)
	for _, intent := range intentOrder {
		for _, kw := range intentLexicon[intent] {
			if strings.Contains(lower, kw) {
				return intent
			}
		}
	}
	return ""
}

// ScoreSentiment maps a message to 0.3 / 0.5 / 0.7 by keyword balance.
func (LexiconClassifier) ScoreSentiment(text string) float64 {
	lower := strings.ToLower(text)
	positive, negative := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}
	switch {
	case positive > negative:
		return 0.7
	case negative > positive:
		return 0.3
	default:
		return 0.5
	}
}

// DetectUrgency grades the message by keyword tier.
func (LexiconClassifier) DetectUrgency(text string) Urgency {
	lower := strings.ToLower(text)
	for _, kw := range urgentKeywords {
		if strings.Contains(lower, kw) {
			return UrgencyUrgent
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(lower, kw) {
			return UrgencyHigh
		}
	}
	return UrgencyNormal
}

// ExtractEntities pulls known symptom and condition mentions.
func (LexiconClassifier) ExtractEntities(text string) ([]string, []string) {
	lower := strings.ToLower(text)
	var symptoms, conditions []string
	for _, s := range symptomLexicon {
		if strings.Contains(lower, s) {
			symptoms = append(symptoms, s)
		}
	}
	for _, c := range conditionLexicon {
		if strings.Contains(lower, c) {
			conditions = append(conditions, c)
		}
	}
	return symptoms, conditions
}

// KeywordLanguageDetector guesses between a small set of supported
// languages by stop-word frequency, falling back to the default.
type KeywordLanguageDetector struct {
	Default string
}

var languageMarkers = map[string][]string{
	"es": {"hola", "gracias", "necesito", "ayuda", "cita", "dolor", "por favor"},
	"fr": {"bonjour", "merci", "besoin", "aide", "rendez-vous", "douleur"},
}

// Detect returns the best matching supported language.
func (d KeywordLanguageDetector) Detect(text string) string {
	lower := strings.ToLower(text)
	best, bestHits := d.Default, 0
	for lang, markers := range languageMarkers {
		hits := 0
		for _, m := range markers {
			if strings.Contains(lower, m) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = lang, hits
		}
	}
	if best == "" {
		return "en"
	}
	return best
}
