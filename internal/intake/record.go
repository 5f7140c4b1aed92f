// Package intake assembles triage records for inbound clinical
// documents. Four independent extractors run concurrently against the
// document text, their fields are merged deterministically, routing
// rules rewrite the merged record, and remembered operator corrections
// are applied last.
package intake

// Record is the triage outcome for one document. Empty strings mean
// the field could not be determined.
type Record struct {
	SourceText   string `json:"source_text"`
	DateOfBirth  string `json:"date_of_birth"`
	PatientName  string `json:"patient_name"`
	ProviderName string `json:"provider_name"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory"`
	Comment      string `json:"comment"`
}

// RequiresReview reports whether the record is too incomplete to route
// automatically and should be queued for a human.
func (r Record) RequiresReview() bool {
	return r.PatientName == "" || r.Category == "" || r.ProviderName == ""
}
