package backfill

// FileSummary is the per-file result of a backfill run.
type FileSummary struct {
	Path        string
	AnalysisID  string
	MeetingType string // empty when the analysis failed
	Succeeded   bool
	ParseFailed bool
	Details     string // failure details
	Date        string // file modification date, 2006-01-02
}

// Report totals a backfill run.
type Report struct {
	Discovered int
	Analyzed   int
	Sales      int
	General    int
	ParseFails int
	Failed     int
	Skipped    int
	Duplicates int
	Files      []FileSummary
}
