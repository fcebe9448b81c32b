package domain

// Upstream source names.
const (
	SourceCultureDataPortal  = "CULTURE_DATA_PORTAL"
	SourceCulturalDataPortal = "CULTURAL_DATA_PORTAL"
)

// SourceResult reports one source's contribution to an ingestion run.
type SourceResult struct {
	SourceName string   `json:"sourceName" yaml:"sourceName"`
	Processed  int      `json:"processed" yaml:"processed"`
	Saved      int      `json:"saved" yaml:"saved"`
	Errors     []string `json:"errors" yaml:"errors"`
}

// IngestionResult is the aggregate outcome of one ingestion run. It always
// describes what succeeded and what failed; partial failure is not an error.
type IngestionResult struct {
	TotalProcessed int            `json:"totalProcessed" yaml:"totalProcessed"`
	TotalSaved     int            `json:"totalSaved" yaml:"totalSaved"`
	SourceResults  []SourceResult `json:"sourceResults" yaml:"sourceResults"`
	Errors         []string       `json:"errors" yaml:"errors"`
}

// Aggregate sums per-source results. The totals are order-independent;
// SourceResults and Errors keep the order of results.
func Aggregate(results []SourceResult) IngestionResult {
	out := IngestionResult{
		SourceResults: make([]SourceResult, 0, len(results)),
		Errors:        []string{},
	}
	for _, r := range results {
		if r.Errors == nil {
			r.Errors = []string{}
		}
		out.TotalProcessed += r.Processed
		out.TotalSaved += r.Saved
		out.Errors = append(out.Errors, r.Errors...)
		out.SourceResults = append(out.SourceResults, r)
	}
	return out
}

// UpsertOutcome is what a store write did with one event.
type UpsertOutcome int

const (
	// UpsertSkipped means an identical (or immaterially different) row exists.
	UpsertSkipped UpsertOutcome = iota
	UpsertInserted
	UpsertUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// Saved reports whether the outcome counts toward "saved".
func (o UpsertOutcome) Saved() bool {
	return o == UpsertInserted || o == UpsertUpdated
}
