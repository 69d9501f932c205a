package model

// RunExport is the top-level JSON structure for a results file.
type RunExport struct {
	Run     Run        `json:"run"`
	Summary RunSummary `json:"summary"`
	Results []Result   `json:"results"`
}

// RunSummary aggregates a run's results.
type RunSummary struct {
	Rows        int     `json:"rows"`
	Graded      int     `json:"graded"`
	MissingData int     `json:"missing_data"`
	ModelErrors int     `json:"model_errors"`
	TotalMarks  float64 `json:"total_marks"`
	MaxMarks    float64 `json:"max_marks"`
}

// Summarize counts results by status and totals their marks.
func Summarize(results []Result) RunSummary {
	s := RunSummary{Rows: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusGraded:
			s.Graded++
		case StatusMissingData:
			s.MissingData++
		case StatusModelError:
			s.ModelErrors++
		}
		s.TotalMarks += r.Marks
		s.MaxMarks += r.MaxMarks
	}
	return s
}
