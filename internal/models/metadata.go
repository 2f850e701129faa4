package models

// Metadata datatypes with dedicated display conversion. Any other datatype
// renders its raw value.
const (
	DatatypeDatetime = "datetime"
	DatatypeCheckbox = "checkbox"
	DatatypeNumeric  = "numeric"
)

// MetadataField describes one course-module metadata field configured on the
// site.
type MetadataField struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Datatype string `db:"datatype" json:"datatype"`
}

// ModuleType is one trackable activity type (quiz, assignment, scorm, ...).
type ModuleType struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// MetadataConversion is the per-field rule turning a numeric total into an
// annotated display value: `counter <formula>` evaluated, then the label
// appended.
type MetadataConversion struct {
	Formula string `json:"formula"`
	Label   string `json:"label"`
}

// ReportSettings is the site configuration snapshot one report run works
// with. It is resolved once per request and read-only afterwards.
type ReportSettings struct {
	UseMetadata       bool                         `json:"use_metadata"`
	DisplayedMetadata []MetadataField              `json:"displayed_metadata"`
	NumericMetadata   []MetadataField              `json:"numeric_metadata"`
	TrackedModules    []int64                      `json:"tracked_modules"`
	Conversions       map[int64]MetadataConversion `json:"conversions"`
}

// NumericMetadataIDs returns the ids of the numeric subset in configured
// order.
func (s ReportSettings) NumericMetadataIDs() []int64 {
	ids := make([]int64, 0, len(s.NumericMetadata))
	for _, field := range s.NumericMetadata {
		ids = append(ids, field.ID)
	}
	return ids
}

// DisplayedMetadataIDs returns the ids of the displayed fields in configured
// order.
func (s ReportSettings) DisplayedMetadataIDs() []int64 {
	ids := make([]int64, 0, len(s.DisplayedMetadata))
	for _, field := range s.DisplayedMetadata {
		ids = append(ids, field.ID)
	}
	return ids
}
