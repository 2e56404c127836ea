package asup

import (
	"regexp"
	"strings"
)

// Scalar field names
const (
	FieldGeneratedOn = "GENERATED_ON"
	FieldSerialNo    = "SYSTEM_SERIALNO"
	FieldServiceTag  = "DELL_SERVICETAG"
	FieldModelNo     = "MODEL_NO"
	FieldHostname    = "HOSTNAME"
	FieldLocation    = "LOCATION"
)

// FieldNames is the allowlist of extracted scalar fields, in output order
var FieldNames = []string{
	FieldGeneratedOn,
	FieldSerialNo,
	FieldServiceTag,
	FieldModelNo,
	FieldHostname,
	FieldLocation,
}

var fieldPatterns = compileFieldPatterns(FieldNames)

func compileFieldPatterns(names []string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(names))
	for _, name := range names {
		patterns[name] = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + `=(.*)$`)
	}
	return patterns
}

// ExtractField returns the trimmed value of the first line-anchored
// NAME=value line, or NotAvailable.
func ExtractField(text, name string) string {
	re, ok := fieldPatterns[name]
	if !ok {
		re = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + `=(.*)$`)
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return NotAvailable
	}
	return strings.TrimSpace(m[1])
}

// ExtractFields extracts every allowlisted field
func ExtractFields(text string) []Field {
	fields := make([]Field, 0, len(FieldNames))
	for _, name := range FieldNames {
		fields = append(fields, Field{Name: name, Value: ExtractField(text, name)})
	}
	return fields
}

func sentinelFields() []Field {
	fields := make([]Field, 0, len(FieldNames))
	for _, name := range FieldNames {
		fields = append(fields, Field{Name: name, Value: NotAvailable})
	}
	return fields
}
