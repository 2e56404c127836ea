package asup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractField(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"simple", "HOSTNAME=ddr01\n", FieldHostname, "ddr01"},
		{"trimmed", "HOSTNAME=   ddr01   \n", FieldHostname, "ddr01"},
		{"missing", "MODEL_NO=DD6900\n", FieldHostname, NotAvailable},
		{"first wins", "HOSTNAME=a\nHOSTNAME=b\n", FieldHostname, "a"},
		{"line anchored", "  HOSTNAME=indented\nX_HOSTNAME=prefixed\n", FieldHostname, NotAvailable},
		{"value keeps equals", "LOCATION=row=3, rack=12\n", FieldLocation, "row=3, rack=12"},
		{"empty value", "LOCATION=\n", FieldLocation, ""},
		{"no trailing newline", "MODEL_NO=DD9400", FieldModelNo, "DD9400"},
		{"not allowlisted", "FOO=bar\n", "FOO", "bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractField(tt.text, tt.key))
		})
	}
}

func TestExtractFieldsKeepsOrderAndSentinels(t *testing.T) {
	fields := ExtractFields("MODEL_NO=DD6900\nGENERATED_ON=today\n")

	want := []Field{
		{FieldGeneratedOn, "today"},
		{FieldSerialNo, NotAvailable},
		{FieldServiceTag, NotAvailable},
		{FieldModelNo, "DD6900"},
		{FieldHostname, NotAvailable},
		{FieldLocation, NotAvailable},
	}
	assert.Equal(t, want, fields)
}

func TestExtractFieldsEmptyText(t *testing.T) {
	assert.Equal(t, sentinelFields(), ExtractFields(""))
}
