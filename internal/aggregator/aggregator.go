package aggregator

import (
	"math"
	"sort"
	"time"

	"survey-recon-go/internal/types"
)

const topN = 5

type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Metrics are the KPIs for one file or for the whole run.
type Metrics struct {
	RowsTotal         int      `json:"rows_total"`
	RowsCompleted     int      `json:"rows_completed"`
	CompletionRatePct *float64 `json:"completion_rate_pct"`
	ByRegionTop5      []Count  `json:"by_region_top5"`
	ByResearcherTop5  []Count  `json:"by_researcher_top5"`
	GeneratedAt       string   `json:"generated_at"`
}

// FileMetrics adds the source identifier and daily rollup of one file.
type FileMetrics struct {
	Source string `json:"source"`
	Metrics
	Daily []types.DailyBucket `json:"daily"`
}

// Summary is the cross-file metrics document.
type Summary struct {
	Metrics
	FilesProcessed []string            `json:"files_processed"`
	RunID          string              `json:"run_id,omitempty"`
	Daily          []types.DailyBucket `json:"daily"`
	Files          []FileMetrics       `json:"files"`
}

// Summarize computes the KPIs over records.
func Summarize(records []types.Record, now time.Time) Metrics {
	completed := 0
	regions := make([]types.Value, 0, len(records))
	researchers := make([]types.Value, 0, len(records))
	for _, r := range records {
		completed += r.IsComplete
		regions = append(regions, r.Region)
		researchers = append(researchers, r.ResearcherID)
	}
	return Metrics{
		RowsTotal:         len(records),
		RowsCompleted:     completed,
		CompletionRatePct: CompletionRate(completed, len(records)),
		ByRegionTop5:      Top(regions, topN),
		ByResearcherTop5:  Top(researchers, topN),
		GeneratedAt:       now.UTC().Format(time.RFC3339),
	}
}

// CompletionRate is round(100*completed/total, 2), or nil when total is 0.
func CompletionRate(completed, total int) *float64 {
	if total == 0 {
		return nil
	}
	pct := math.Round(10000*float64(completed)/float64(total)) / 100
	return &pct
}

// Top counts non-null values and returns the n most frequent. Equal counts
// keep first-seen order.
func Top(values []types.Value, n int) []Count {
	counts := map[string]int{}
	var order []string
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		k := v.String()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	out := make([]Count, 0, len(order))
	for _, k := range order {
		out = append(out, Count{Value: k, Count: counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Daily groups records by start_date. Records without a date are skipped.
func Daily(records []types.Record) []types.DailyBucket {
	byDate := map[string]*types.DailyBucket{}
	for _, r := range records {
		if r.StartDate == nil {
			continue
		}
		b, ok := byDate[*r.StartDate]
		if !ok {
			b = &types.DailyBucket{Date: *r.StartDate}
			byDate[*r.StartDate] = b
		}
		b.Total++
		b.Completed += r.IsComplete
	}
	out := make([]types.DailyBucket, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// FileInput is one processed source in merge order.
type FileInput struct {
	ID         string
	SourceFile string
	Records    []types.Record
}

// SummarizeFile computes one file's metrics and daily rollup.
func SummarizeFile(in FileInput, now time.Time) FileMetrics {
	daily := Daily(in.Records)
	for i := range daily {
		daily[i].SourceFile = in.SourceFile
	}
	return FileMetrics{Source: in.ID, Metrics: Summarize(in.Records, now), Daily: daily}
}

// Combine recomputes the metrics and the daily rollup over the union of all
// files, in the order given. It does not average per-file rates.
func Combine(files []FileInput, runID string, now time.Time) Summary {
	var all []types.Record
	ids := make([]string, 0, len(files))
	perFile := make([]FileMetrics, 0, len(files))
	for _, f := range files {
		all = append(all, f.Records...)
		ids = append(ids, f.ID)
		perFile = append(perFile, SummarizeFile(f, now))
	}
	return Summary{
		Metrics:        Summarize(all, now),
		FilesProcessed: ids,
		RunID:          runID,
		Daily:          Daily(all),
		Files:          perFile,
	}
}
