package record

// Canonical field names used by the cleaning pipelines.
const (
	FieldImageIndex    = "Image Index"
	FieldGender        = "Gender"
	FieldPatientAge    = "patient_age"
	FieldFindingLabels = "finding_labels"
	FieldFindingLabel  = "Finding Label"
	FieldBBoxX         = "bbox_x"
	FieldBBoxY         = "bbox_y"
	FieldWidth         = "width"
	FieldHeight        = "height"

	// FieldRejectionReason is appended to rejected rows on output.
	FieldRejectionReason = "rejection_reason"
)

// Aliases lists, per canonical field, the header spellings seen in the
// source exports, in lookup order.
var Aliases = map[string][]string{
	FieldImageIndex:   {FieldImageIndex},
	FieldFindingLabel: {FieldFindingLabel},
	FieldBBoxX:        {"bbox_x ", FieldBBoxX},
	FieldBBoxY:        {"bbox-y", FieldBBoxY},
	FieldWidth:        {FieldWidth},
	FieldHeight:       {FieldHeight},
}

// AliasesFor returns the known spellings of field, or the field itself.
func AliasesFor(field string) []string {
	if a, ok := Aliases[field]; ok {
		return a
	}
	return []string{field}
}

// BBoxHeader is the column order of accepted bounding-box rows.
var BBoxHeader = []string{FieldImageIndex, FieldFindingLabel, FieldBBoxX, FieldBBoxY, FieldWidth, FieldHeight}

var knownFields = []string{
	FieldImageIndex, FieldGender, FieldPatientAge, FieldFindingLabels,
	FieldFindingLabel, FieldBBoxX, FieldBBoxY, FieldWidth, FieldHeight,
}

// Resolve reports which canonical field a source header name stands for.
func Resolve(header string) (string, bool) {
	c := CanonicalKey(header)
	for _, f := range knownFields {
		for _, a := range AliasesFor(f) {
			if header == a || c == CanonicalKey(a) {
				return f, true
			}
		}
	}
	return "", false
}
