package conversation

import "testing"

func TestClassifyIntent(t *testing.T) {
	cls := LexiconClassifier{}

	tests := []struct {
		text string
		want string
	}{
		{"I need to book an appointment", "appointment"},
		{"can you refill my prescription", "prescription"},
		{"I feel sick and have a fever", "symptoms"},
		{"question about my insurance bill", "billing"},
		{"are my lab results ready", "results"},
		{"when are you open", "general_info"},
		{"hello there", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := cls.ClassifyIntent(tt.text); got != tt.want {
				t.Errorf("ClassifyIntent(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifyIntentPrecedence(t *testing.T) {
	cls := LexiconClassifier{}
	// "how" matches general_info but "reschedule" must win.
	if got := cls.ClassifyIntent("how do I reschedule"); got != "appointment" {
		t.Errorf("ClassifyIntent = %q, want appointment", got)
	}
}

func TestScoreSentiment(t *testing.T) {
	cls := LexiconClassifier{}

	tests := []struct {
		text string
		want float64
	}{
		{"the service was great and I am happy", 0.7},
		{"this is terrible and I am angry", 0.3},
		{"I have a question about my account", 0.5},
		{"good but also bad", 0.5},
	}

	for _, tt := range tests {
		if got := cls.ScoreSentiment(tt.text); got != tt.want {
			t.Errorf("ScoreSentiment(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestDetectUrgency(t *testing.T) {
	cls := LexiconClassifier{}

	tests := []struct {
		text string
		want Urgency
	}{
		{"I have severe chest pain", UrgencyUrgent},
		{"this is an emergency", UrgencyUrgent},
		{"my knee hurts and I am worried", UrgencyHigh},
		{"just checking my balance", UrgencyNormal},
	}

	for _, tt := range tests {
		if got := cls.DetectUrgency(tt.text); got != tt.want {
			t.Errorf("DetectUrgency(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestExtractEntities(t *testing.T) {
	cls := LexiconClassifier{}

	symptoms, conditions := cls.ExtractEntities("I have a headache and nausea from my migraine")
	if len(symptoms) != 2 || symptoms[0] != "headache" || symptoms[1] != "nausea" {
		t.Errorf("symptoms = %v, want [headache nausea]", symptoms)
	}
	if len(conditions) != 1 || conditions[0] != "migraine" {
		t.Errorf("conditions = %v, want [migraine]", conditions)
	}

	symptoms, conditions = cls.ExtractEntities("all good today")
	if len(symptoms) != 0 || len(conditions) != 0 {
		t.Errorf("expected no entities, got %v / %v", symptoms, conditions)
	}
}

func TestUrgencyOutranks(t *testing.T) {
	if !UrgencyUrgent.Outranks(UrgencyHigh) {
		t.Error("urgent should outrank high")
	}
	if !UrgencyHigh.Outranks(UrgencyNormal) {
		t.Error("high should outrank normal")
	}
	if UrgencyNormal.Outranks(UrgencyNormal) {
		t.Error("equal urgency should not outrank")
	}
	if UrgencyLow.Outranks(UrgencyNormal) {
		t.Error("low should not outrank normal")
	}
}

func TestKeywordLanguageDetector(t *testing.T) {
	detector := KeywordLanguageDetector{Default: "en"}

	tests := []struct {
		text string
		want string
	}{
		{"hola necesito ayuda con mi cita", "es"},
		{"bonjour je voudrais un rendez-vous merci", "fr"},
		{"I would like to book a visit", "en"},
	}

	for _, tt := range tests {
		if got := detector.Detect(tt.text); got != tt.want {
			t.Errorf("Detect(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}

	empty := KeywordLanguageDetector{}
	if got := empty.Detect("no markers here"); got != "en" {
		t.Errorf("zero-value detector should fall back to en, got %q", got)
	}
}
