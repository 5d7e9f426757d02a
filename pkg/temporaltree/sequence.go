package temporaltree

import (
	"regexp"
	"strings"

	"github.com/uttree-health/platform/pkg/common/models"
)

// Numeric disambiguators keep internal node names unique; they are never
// semantic content and must not reach the embedded document.
var nodeIDPattern = regexp.MustCompile(`-[1-9][0-9]*`)

var multiDelimiter = regexp.MustCompile(`_{2,}`)

// Serialize renders a root label as the clean document handed to the
// embedding provider: disambiguators stripped, repeated delimiters
// collapsed, ends trimmed. A zero-event admission serializes to "".
func Serialize(label string) string {
	s := nodeIDPattern.ReplaceAllString(label, "")
	s = multiDelimiter.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// CanonicalString runs the full tree pipeline for one admission's
// quadruples: build, relabel, serialize.
func CanonicalString(admissionID int64, quads []models.Quadruple) string {
	return Serialize(Build(admissionID, quads).Relabel())
}
