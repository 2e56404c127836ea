package asup

// NotAvailable is the placeholder for any field, cell or note that the
// report does not provide.
const NotAvailable = "N/A"

// Document is one raw autosupport report together with its provenance
type Document struct {
	Name    string `json:"name"`    // source document label (e.g. "autosupport")
	Archive string `json:"archive"` // originating archive label (e.g. "ddr01.tar.gz")
	Text    string `json:"-"`
}

// Source identifies where a record came from
type Source struct {
	Document string `json:"document"`
	Archive  string `json:"archive"`
}

// Field is a top-level KEY=value scalar
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Status is the enablement state of an appliance service
type Status string

const (
	StatusEnabled    Status = "Enabled"
	StatusDisabled   Status = "Disabled"
	StatusConfigured Status = "Configured"
	StatusUnknown    Status = "Unknown"
)

// ServiceStatus pairs a service name with its classified status
type ServiceStatus struct {
	Service string `json:"service"`
	Status  Status `json:"status"`
}

// Family groups tables that share a column layout and decoding strategy
type Family string

const (
	FamilyUsage             Family = "usage"
	FamilyCompression       Family = "compression"
	FamilyVolumeCompression Family = "volume_compression"
	FamilyVolumeList        Family = "volume_list"
	FamilyCloudProfile      Family = "cloud_profile"
	FamilyCloudMovement     Family = "cloud_movement"
)

// Row maps column name to the cell text exactly as it appeared in the report
type Row map[string]string

// Get returns the cell for column, or NotAvailable
func (r Row) Get(column string) string {
	if v, ok := r[column]; ok {
		return v
	}
	return NotAvailable
}

// clone returns a copy of r so callers can extend it without aliasing
func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is the decoded content of one report section
type Table struct {
	Name    string   `json:"name"`
	Family  Family   `json:"family"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Note    string   `json:"note"`
}

// Record is everything extracted from one document
type Record struct {
	Source        Source          `json:"source"`
	Fields        []Field         `json:"fields"`
	Services      []ServiceStatus `json:"services"`
	Tables        []Table         `json:"tables"`
	CloudProfiles Table           `json:"cloud_profiles"`
	CloudMovement Table           `json:"cloud_movement"`
}

// Field returns the value of a scalar field, or NotAvailable
func (r *Record) Field(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return NotAvailable
}

// Service returns the status of a service, or StatusUnknown
func (r *Record) Service(name string) Status {
	for _, s := range r.Services {
		if s.Service == name {
			return s.Status
		}
	}
	return StatusUnknown
}

// Table returns the named storage table. Unknown names yield an empty table.
func (r *Record) Table(name string) Table {
	for _, t := range r.Tables {
		if t.Name == name {
			return t
		}
	}
	return Table{Name: name, Rows: []Row{}, Note: NotAvailable}
}

// Result is the outcome of parsing one document. Err is non-nil only when
// Record is the degraded all-sentinel fallback.
type Result struct {
	Record Record
	Err    error
}

// Degraded reports whether the record could not be extracted
func (r Result) Degraded() bool {
	return r.Err != nil
}
