package library

// Stats summarizes a row set.
type Stats struct {
	Total   int   `json:"total"`
	SumMins int   `json:"sum_mins"`
	Last    int64 `json:"last"`
}

// ComputeStats counts rows, sums playtime and finds the most recent
// last-played timestamp (0 when none).
func ComputeStats(rows []Row) Stats {
	s := Stats{Total: len(rows)}
	for _, r := range rows {
		s.SumMins += r.PlayMins
		if r.LastPlayed > s.Last {
			s.Last = r.LastPlayed
		}
	}
	return s
}
