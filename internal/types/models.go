package types

import "time"

// Field names a canonical response attribute.
type Field string

const (
	FieldRespondentID Field = "respondent_id"
	FieldResponseID   Field = "response_id"
	FieldSurveyID     Field = "survey_id"
	FieldProjectID    Field = "project_id"
	FieldRegion       Field = "region"
	FieldResearcherID Field = "researcher_id"
	FieldStartTime    Field = "start_time"
	FieldEndTime      Field = "end_time"
	FieldStatus       Field = "status"
	FieldDurationSec  Field = "duration_sec"

	// derived
	FieldIsComplete Field = "is_complete"
	FieldStartDate  Field = "start_date"
	FieldStartHour  Field = "start_hour"
	FieldSourceFile Field = "source_file"
)

// CanonicalFields lists the fields a synonym map can resolve, in resolution order.
var CanonicalFields = []Field{
	FieldRespondentID,
	FieldResponseID,
	FieldSurveyID,
	FieldProjectID,
	FieldRegion,
	FieldResearcherID,
	FieldStartTime,
	FieldEndTime,
	FieldStatus,
	FieldDurationSec,
}

// OutputOrder is the physical column order of the canonical table.
var OutputOrder = []Field{
	FieldRespondentID,
	FieldResponseID,
	FieldSurveyID,
	FieldProjectID,
	FieldRegion,
	FieldResearcherID,
	FieldStartTime,
	FieldEndTime,
	FieldStatus,
	FieldDurationSec,
	FieldIsComplete,
	FieldStartDate,
	FieldStartHour,
	FieldSourceFile,
}

// IsCanonical reports whether f can be bound to a raw column.
func (f Field) IsCanonical() bool {
	for _, c := range CanonicalFields {
		if c == f {
			return true
		}
	}
	return false
}

// Schema is the ordered set of fields present for a run.
type Schema []Field

func (s Schema) Has(f Field) bool {
	for _, x := range s {
		if x == f {
			return true
		}
	}
	return false
}

// UnionSchema merges schemas and returns the result in OutputOrder.
func UnionSchema(schemas ...Schema) Schema {
	var out Schema
	for _, f := range OutputOrder {
		for _, s := range schemas {
			if s.Has(f) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// RawTable is one sheet or CSV as read from disk.
type RawTable struct {
	Headers []string
	Rows    [][]Value
}

// Cell returns the value at (row, col), or Null when the row is short.
func (t RawTable) Cell(row, col int) Value {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Null()
	}
	return t.Rows[row][col]
}

// Record is one canonical response. Nil pointers are nulls.
type Record struct {
	RespondentID Value
	ResponseID   Value
	SurveyID     Value
	ProjectID    Value
	Region       Value
	ResearcherID Value
	StartTime    *time.Time
	EndTime      *time.Time
	Status       *string
	DurationSec  *float64
	IsComplete   int
	StartDate    *string
	StartHour    *int
	SourceFile   string
}

// Get returns the field as a tagged value for output and comparison.
func (r Record) Get(f Field) Value {
	switch f {
	case FieldRespondentID:
		return r.RespondentID
	case FieldResponseID:
		return r.ResponseID
	case FieldSurveyID:
		return r.SurveyID
	case FieldProjectID:
		return r.ProjectID
	case FieldRegion:
		return r.Region
	case FieldResearcherID:
		return r.ResearcherID
	case FieldStartTime:
		if r.StartTime != nil {
			return Timestamp(*r.StartTime)
		}
	case FieldEndTime:
		if r.EndTime != nil {
			return Timestamp(*r.EndTime)
		}
	case FieldStatus:
		if r.Status != nil {
			return Text(*r.Status)
		}
	case FieldDurationSec:
		if r.DurationSec != nil {
			return Number(*r.DurationSec)
		}
	case FieldIsComplete:
		return Number(float64(r.IsComplete))
	case FieldStartDate:
		if r.StartDate != nil {
			return Text(*r.StartDate)
		}
	case FieldStartHour:
		if r.StartHour != nil {
			return Number(float64(*r.StartHour))
		}
	case FieldSourceFile:
		return Text(r.SourceFile)
	}
	return Null()
}

// DailyBucket is one row of the daily rollup.
type DailyBucket struct {
	Date       string `json:"start_date"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	SourceFile string `json:"source_file,omitempty"`
}
