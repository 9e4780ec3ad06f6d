// Package phi implements rule-based PHI detection and redaction for
// message content. It covers identifier formats (MRN, insurance, dates
// of birth, prescriptions, appointments), contact details, ICD-10 codes
// and lab values.
package phi

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

type pattern struct {
	name string
	re   *regexp.Regexp
	// group selects a capture group to redact; 0 redacts the full match.
	group int
}

var patterns = []pattern{
	{"mrn", regexp.MustCompile(`(?i)\b(?:mrn|medical\s+record|patient\s+id)[:\s#]*([a-z0-9\-]{6,})\b`), 1},
	{"insurance_id", regexp.MustCompile(`(?i)\b(?:insurance|policy|member)\s+(?:id|number)[:\s#]*([a-z0-9\-]{8,})\b`), 1},
	{"dob", regexp.MustCompile(`(?i)\b(?:dob|date\s+of\s+birth|born)[:\s]*(\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4})\b`), 1},
	{"prescription", regexp.MustCompile(`(?i)\b(?:rx|prescription)[:\s#]*([a-z0-9\-]{6,})\b`), 1},
	{"appointment_id", regexp.MustCompile(`(?i)\b(?:appointment|appt)[:\s#]*([a-z0-9\-]{6,})\b`), 1},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), 0},
	{"phone", regexp.MustCompile(`\b(?:\+?1[\s\-.]?)?\(?\d{3}\)?[\s\-.]\d{3}[\s\-.]\d{4}\b`), 0},
	{"email", regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`), 0},
	{"diagnosis_code", regexp.MustCompile(`\b[A-Z]\d{2}(?:\.\d{1,3})?\b`), 0},
	{"lab_value", regexp.MustCompile(`(?i)\b(?:glucose|cholesterol|blood\s+pressure)\s*:?\s*\d+(?:\.\d+)?(?:\s*mg/dl|mmhg)?\b`), 0},
}

// Redactor masks PHI in free text. Detection never fails; on any internal
// trouble the input passes through unchanged.
type Redactor struct {
	enabled bool
	log     zerolog.Logger
}

// NewRedactor creates a redactor. When disabled it passes text through.
func NewRedactor(enabled bool, log zerolog.Logger) *Redactor {
	return &Redactor{
		enabled: enabled,
		log:     log.With().Str("component", "phi-redactor").Logger(),
	}
}

// DetectAndRedact reports whether PHI was found and returns the text with
// every hit replaced by a [REDACTED_<KIND>] placeholder.
func (r *Redactor) DetectAndRedact(text string) (bool, string) {
	if !r.enabled || text == "" {
		return false, text
	}

	detected := false
	redacted := text
	for _, p := range patterns {
		placeholder := "[REDACTED_" + strings.ToUpper(p.name) + "]"
		if p.group == 0 {
			if p.re.MatchString(redacted) {
				detected = true
				redacted = p.re.ReplaceAllString(redacted, placeholder)
			}
			continue
		}
		matches := p.re.FindAllStringSubmatch(redacted, -1)
		if len(matches) == 0 {
			continue
		}
		detected = true
		for _, m := range matches {
			if len(m) > p.group && m[p.group] != "" {
				redacted = strings.ReplaceAll(redacted, m[p.group], placeholder)
			}
		}
	}

	if detected {
		r.log.Debug().Msg("PHI detected and redacted")
	}
	return detected, redacted
}
