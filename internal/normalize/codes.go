package normalize

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// ProcedureCode trims whitespace, uppercases, and strips non-alphanumeric
// characters from a CPT/HCPCS code. Returns "" when nothing is left.
func ProcedureCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return nonAlphanumeric.ReplaceAllString(strings.ToUpper(s), "")
}

// ICD10 normalizes a diagnosis code to its dotted form: "e119" and "E11.9"
// both become "E11.9". Codes of three characters or fewer have no dot.
func ICD10(s string) string {
	s = nonAlphanumeric.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
	if len(s) <= 3 {
		return s
	}
	return s[:3] + "." + s[3:]
}

// PlaceOfService pads a CMS place-of-service code to two digits ("2" → "02").
func PlaceOfService(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// Status lowercases and trims a status value such as "Active ".
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
