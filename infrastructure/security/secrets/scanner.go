// Package secrets provides secret detection for sandbox output.
package secrets

import (
	"fmt"
	"regexp"
	"strings"
)

// RedactionMarker replaces an output stream when a secret is detected.
const RedactionMarker = "[REDACTED: SECURITY VIOLATION]"

// contextWindow is the number of characters captured around a match.
const contextWindow = 20

// pattern pairs a secret type name with its detection regex.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// Detected describes one secret found in scanned text. The raw value is
// never retained; only the redacted form and surrounding context survive.
type Detected struct {
	Type     string
	Redacted string
	Context  string
}

// Scanner scans text for secrets. The pattern set is fixed at
// construction and never mutated afterwards.
type Scanner struct {
	patterns []pattern
}

// NewScanner creates a scanner with the built-in pattern set.
func NewScanner() *Scanner {
	return &Scanner{
		patterns: []pattern{
			{"AWS Access Key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
			{"AWS Secret Key", regexp.MustCompile(`(?i)aws_secret_access_key[ =]+[a-zA-Z0-9/+]{40}`)},
			{"GitHub Token", regexp.MustCompile(`gh[pous]_[a-zA-Z0-9]{36,}`)},
			{"Generic Private Key", regexp.MustCompile(`-----BEGIN (RSA|DSA|EC|OPENSSH|PRIVATE) KEY-----`)},
			{"Slack Token", regexp.MustCompile(`xox[baprs]-[0-9a-zA-Z]{10,48}`)},
		},
	}
}

// Scan returns every secret match in the text. An empty slice means the
// text is clean.
func (s *Scanner) Scan(text string) []Detected {
	var detected []Detected

	for _, p := range s.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			matched := text[start:end]

			ctxStart := max(0, start-contextWindow)
			ctxEnd := min(len(text), end+contextWindow)

			detected = append(detected, Detected{
				Type:     p.name,
				Redacted: redact(matched),
				Context:  text[ctxStart:ctxEnd],
			})
		}
	}

	return detected
}

// HasSecrets reports whether any of the given texts contain a secret.
func (s *Scanner) HasSecrets(texts ...string) bool {
	for _, text := range texts {
		if len(s.Scan(text)) > 0 {
			return true
		}
	}
	return false
}

// ValidateClean returns an error naming the detected secret types if the
// text contains any secrets.
func (s *Scanner) ValidateClean(text string) error {
	detected := s.Scan(text)
	if len(detected) == 0 {
		return nil
	}

	types := make([]string, len(detected))
	for i, d := range detected {
		types[i] = d.Type
	}
	return fmt.Errorf("found %d secrets in content: %s", len(detected), strings.Join(types, ", "))
}

// redact keeps the first two characters and masks the rest. Short matches
// are fully masked.
func redact(matched string) string {
	if len(matched) > 4 {
		return matched[:2] + strings.Repeat("*", len(matched)-2)
	}
	return "****"
}
