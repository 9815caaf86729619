package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-recon-go/internal/config"
	"survey-recon-go/internal/types"
)

func surveyConfig() config.Config {
	return config.New(config.SynonymMap{
		types.FieldRespondentID: {"Respondent ID", "resp_id"},
		types.FieldRegion:       {"Region"},
		types.FieldResearcherID: {"Interviewer"},
		types.FieldStartTime:    {"Started"},
		types.FieldEndTime:      {"Ended"},
		types.FieldStatus:       {"Completed?", "Status"},
		types.FieldDurationSec:  {"LOI"},
	}, nil, config.Limits{})
}

func row(vals ...types.Value) []types.Value { return vals }

func TestBuild(t *testing.T) {
	table := types.RawTable{
		Headers: []string{"Respondent ID", "Region", "Started", "Ended", "Completed?", "LOI", "Notes"},
		Rows: [][]types.Value{
			row(types.Text("R1"), types.Text("North"), types.Text("10/03/2024 09:00"), types.Text("10/03/2024 09:20"), types.Text("YES"), types.Number(15), types.Text("a")),
			row(types.Text("R2"), types.Text("South"), types.Text("11/03/2024 14:00"), types.Text("11/03/2024 14:30"), types.Text("0"), types.Null(), types.Text("b")),
			row(types.Text("R3"), types.Null(), types.Text("garbage"), types.Null(), types.Text("maybe"), types.Number(30000), types.Null()),
		},
	}

	res := Build(table, surveyConfig())
	require.Len(t, res.Records, 3)

	assert.Equal(t, types.Schema{
		types.FieldRespondentID,
		types.FieldRegion,
		types.FieldStartTime,
		types.FieldEndTime,
		types.FieldStatus,
		types.FieldDurationSec,
		types.FieldIsComplete,
		types.FieldStartDate,
		types.FieldStartHour,
	}, res.Schema)

	r1 := res.Records[0]
	assert.Equal(t, "R1", r1.RespondentID.String())
	require.NotNil(t, r1.Status)
	assert.Equal(t, "completed", *r1.Status)
	assert.Equal(t, 1, r1.IsComplete)
	require.NotNil(t, r1.DurationSec)
	assert.Equal(t, 900.0, *r1.DurationSec)
	require.NotNil(t, r1.StartDate)
	assert.Equal(t, "2024-03-10", *r1.StartDate)
	require.NotNil(t, r1.StartHour)
	assert.Equal(t, 9, *r1.StartHour)

	r2 := res.Records[1]
	assert.Equal(t, "incomplete", *r2.Status)
	assert.Equal(t, 0, r2.IsComplete)
	require.NotNil(t, r2.DurationSec, "falls back to end-start")
	assert.Equal(t, 1800.0, *r2.DurationSec)

	r3 := res.Records[2]
	assert.Equal(t, "maybe", *r3.Status)
	assert.Equal(t, 0, r3.IsComplete)
	assert.Nil(t, r3.DurationSec, "30000s is clipped")
	assert.Nil(t, r3.StartTime)
	assert.Nil(t, r3.StartDate)
	assert.Nil(t, r3.StartHour)
	assert.True(t, r3.Region.IsNull())
	assert.Equal(t, 1, res.Clipped)
}

func TestBuildUnresolvedFieldsAreAbsent(t *testing.T) {
	table := types.RawTable{
		Headers: []string{"Region", "Something"},
		Rows:    [][]types.Value{row(types.Text("East"), types.Text("x"))},
	}
	res := Build(table, surveyConfig())

	assert.Equal(t, types.Schema{types.FieldRegion, types.FieldIsComplete}, res.Schema)
	require.Len(t, res.Records, 1)
	assert.Nil(t, res.Records[0].Status)
	assert.Nil(t, res.Records[0].DurationSec)
	assert.Equal(t, 0, res.Records[0].IsComplete)
}

func TestBuildEmptyConfig(t *testing.T) {
	table := types.RawTable{
		Headers: []string{"Region"},
		Rows:    [][]types.Value{row(types.Text("East")), row(types.Text("West"))},
	}
	res := Build(table, config.Empty())

	assert.Equal(t, types.Schema{types.FieldIsComplete}, res.Schema)
	assert.Len(t, res.Records, 1, "with nothing resolved every row is identical")
	assert.Equal(t, 1, res.Duplicates)
}

func TestBuildDeduplicatesKeepingFirst(t *testing.T) {
	table := types.RawTable{
		Headers: []string{"Respondent ID", "Region", "Notes"},
		Rows: [][]types.Value{
			row(types.Text("R1"), types.Text("North"), types.Text("first")),
			row(types.Text("R2"), types.Text("North"), types.Text("x")),
			row(types.Text("R1"), types.Text("North"), types.Text("second")),
		},
	}
	res := Build(table, surveyConfig())

	require.Len(t, res.Records, 2)
	assert.Equal(t, "R1", res.Records[0].RespondentID.String())
	assert.Equal(t, "R2", res.Records[1].RespondentID.String())
	assert.Equal(t, 1, res.Duplicates)
}

func TestBuildKeepsRowsDifferingInMilliseconds(t *testing.T) {
	table := types.RawTable{
		Headers: []string{"Respondent ID", "Started"},
		Rows: [][]types.Value{
			row(types.Text("R1"), types.Text("2024-03-04 10:00:00.100")),
			row(types.Text("R1"), types.Text("2024-03-04 10:00:00.900")),
			row(types.Text("R1"), types.Text("2024-03-04 10:00:00.900")),
		},
	}
	res := Build(table, surveyConfig())

	require.Len(t, res.Records, 2)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, "2024-03-04 10:00:00.1", res.Records[0].Get(types.FieldStartTime).String())
	assert.Equal(t, "2024-03-04 10:00:00.9", res.Records[1].Get(types.FieldStartTime).String())
}

func TestDedupeDistinguishesKinds(t *testing.T) {
	schema := types.Schema{types.FieldRespondentID}
	recs := []types.Record{
		{RespondentID: types.Number(1)},
		{RespondentID: types.Text("1")},
		{RespondentID: types.Number(1)},
	}
	out, dropped := Dedupe(recs, schema)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, dropped)
}

func TestClipDurationsKeepsRows(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	recs := []types.Record{
		{DurationSec: f(30000)},
		{DurationSec: f(-5)},
		{DurationSec: f(28800)},
		{DurationSec: f(0)},
		{},
	}
	n := ClipDurations(recs, 28800)

	assert.Equal(t, 2, n)
	require.Len(t, recs, 5)
	assert.Nil(t, recs[0].DurationSec)
	assert.Nil(t, recs[1].DurationSec)
	assert.Equal(t, 28800.0, *recs[2].DurationSec)
	assert.Equal(t, 0.0, *recs[3].DurationSec)
}

func TestIsComplete(t *testing.T) {
	s := func(v string) *string { return &v }
	assert.Equal(t, 1, IsComplete(s("completed")))
	assert.Equal(t, 1, IsComplete(s("Completed - late")))
	assert.Equal(t, 0, IsComplete(s("incomplete")))
	assert.Equal(t, 0, IsComplete(s(" Incomplete ")))
	assert.Equal(t, 1, IsComplete(s("Incomplete - callback")), "free text is matched by substring")
	assert.Equal(t, 0, IsComplete(s("maybe")))
	assert.Equal(t, 0, IsComplete(s("done")))
	assert.Equal(t, 0, IsComplete(nil))
}

func TestAttachSource(t *testing.T) {
	res := Result{
		Schema:  types.Schema{types.FieldIsComplete},
		Records: []types.Record{{}, {}},
	}
	res.AttachSource("wave1.csv")
	res.AttachSource("wave1.csv")

	assert.Equal(t, types.Schema{types.FieldIsComplete, types.FieldSourceFile}, res.Schema)
	for _, r := range res.Records {
		assert.Equal(t, "wave1.csv", r.SourceFile)
	}
}
