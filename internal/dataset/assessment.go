package dataset

// Assessment is the damage classification derived from one record.
type Assessment struct {
	RecordID   string
	DamageType string

	// Severity is only meaningful when HasSeverity is set.
	Severity    float64
	HasSeverity bool

	// Matched lists "<damage_type>/<adjustment>" for every adjustment that fired.
	Matched []string

	// Anomalies notes field values that were clamped or passed through
	// outside their physical bounds.
	Anomalies []string
}
