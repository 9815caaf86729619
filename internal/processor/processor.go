package processor

import (
	"strings"

	"survey-recon-go/internal/config"
	"survey-recon-go/internal/normalize"
	"survey-recon-go/internal/resolver"
	"survey-recon-go/internal/types"
)

// Result is the canonical form of one source table.
type Result struct {
	Schema     types.Schema
	Records    []types.Record
	Resolution resolver.Resolution
	Duplicates int
	Clipped    int
}

var passthroughFields = []types.Field{
	types.FieldRespondentID,
	types.FieldResponseID,
	types.FieldSurveyID,
	types.FieldProjectID,
	types.FieldRegion,
	types.FieldResearcherID,
}

// Build resolves the table's columns, normalizes every row into a record,
// drops exact duplicates (first kept) and clips duration outliers.
func Build(table types.RawTable, cfg config.Config) Result {
	res := resolver.Resolve(table.Headers, cfg.Synonyms())
	limits := cfg.Limits()
	n := len(table.Rows)

	column := func(f types.Field) []types.Value {
		idx, ok := res.Column(f)
		if !ok {
			return nil
		}
		out := make([]types.Value, n)
		for i := range out {
			out[i] = table.Cell(i, idx)
		}
		return out
	}

	ids := map[types.Field][]types.Value{}
	for _, f := range passthroughFields {
		ids[f] = column(f)
	}
	starts := column(types.FieldStartTime)
	ends := column(types.FieldEndTime)
	statuses := column(types.FieldStatus)
	durations := normalize.Durations(n, normalize.DurationInputs{
		Duration: column(types.FieldDurationSec),
		Start:    starts,
		End:      ends,
	}, limits.MinutesThreshold)

	records := make([]types.Record, n)
	for i := range records {
		rec := types.Record{DurationSec: durations[i]}
		for f, col := range ids {
			if col != nil {
				setPassthrough(&rec, f, col[i])
			}
		}
		if starts != nil {
			rec.StartTime = normalize.Datetime(starts[i])
		}
		if ends != nil {
			rec.EndTime = normalize.Datetime(ends[i])
		}
		if statuses != nil {
			rec.Status = normalize.Status(statuses[i])
		}
		rec.IsComplete = IsComplete(rec.Status)
		if rec.StartTime != nil {
			date := rec.StartTime.Format(types.DateLayout)
			hour := rec.StartTime.Hour()
			rec.StartDate = &date
			rec.StartHour = &hour
		}
		records[i] = rec
	}

	out := Result{Schema: schemaFor(res), Resolution: res}
	out.Records, out.Duplicates = Dedupe(records, out.Schema)
	out.Clipped = ClipDurations(out.Records, limits.MaxDurationSec)
	return out
}

func setPassthrough(rec *types.Record, f types.Field, v types.Value) {
	switch f {
	case types.FieldRespondentID:
		rec.RespondentID = v
	case types.FieldResponseID:
		rec.ResponseID = v
	case types.FieldSurveyID:
		rec.SurveyID = v
	case types.FieldProjectID:
		rec.ProjectID = v
	case types.FieldRegion:
		rec.Region = v
	case types.FieldResearcherID:
		rec.ResearcherID = v
	}
}

func schemaFor(res resolver.Resolution) types.Schema {
	var s types.Schema
	for _, f := range res.Fields() {
		if f != types.FieldDurationSec {
			s = append(s, f)
		}
	}
	if res.Has(types.FieldDurationSec) || (res.Has(types.FieldStartTime) && res.Has(types.FieldEndTime)) {
		s = append(s, types.FieldDurationSec)
	}
	s = append(s, types.FieldIsComplete)
	if res.Has(types.FieldStartTime) {
		s = append(s, types.FieldStartDate, types.FieldStartHour)
	}
	return types.UnionSchema(s)
}

// IsComplete is 1 when the status mentions "complete", except for the
// normalized "incomplete" status itself. Free-text statuses are matched by
// substring, so "Completed - late" and "Incomplete - callback" both count.
func IsComplete(status *string) int {
	if status == nil {
		return 0
	}
	s := strings.ToLower(strings.TrimSpace(*status))
	if s == normalize.StatusIncomplete {
		return 0
	}
	if strings.Contains(s, "complete") {
		return 1
	}
	return 0
}

// Dedupe collapses records equal on every schema field, keeping the first.
func Dedupe(records []types.Record, schema types.Schema) ([]types.Record, int) {
	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, rec := range records {
		k := rowKey(rec, schema)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}

func rowKey(rec types.Record, schema types.Schema) string {
	var b strings.Builder
	for _, f := range schema {
		b.WriteString(rec.Get(f).Key())
		b.WriteByte(0x1f)
	}
	return b.String()
}

// ClipDurations nulls durations outside [0, max] in place and reports how
// many were cleared. Records are never removed.
func ClipDurations(records []types.Record, max float64) int {
	n := 0
	for i := range records {
		d := records[i].DurationSec
		if d != nil && (*d < 0 || *d > max) {
			records[i].DurationSec = nil
			n++
		}
	}
	return n
}

// AttachSource stamps every record with its source file and adds the
// column to the schema.
func (r *Result) AttachSource(name string) {
	for i := range r.Records {
		r.Records[i].SourceFile = name
	}
	if !r.Schema.Has(types.FieldSourceFile) {
		r.Schema = append(r.Schema, types.FieldSourceFile)
	}
}
