package schedule

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwikdrytn/kwikdry-sub000/core/model"
)

// one degree of latitude is ~69.1 miles
const milesPerDegree = 69.09

func north(miles float64) *model.Coordinate {
	return &model.Coordinate{Latitude: miles / milesPerDegree}
}

func date(s string) *model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func booking(id string, at *model.Coordinate, on *model.Date) model.ExistingJob {
	s, e := model.MustTimeOfDay("11:00"), model.MustTimeOfDay("14:00")
	return model.ExistingJob{ID: id, Coordinate: at, ScheduledDate: on, ScheduledStart: &s, ScheduledEnd: &e, City: "Denver", TechnicianID: "t1"}
}

func TestBuildViews(t *testing.T) {
	wed, thu := date("2026-10-21"), date("2026-10-22")
	jobs := []model.ExistingJob{
		booking("near-wed", north(2), wed),
		booking("mid-wed", north(12), wed),
		booking("far-wed", north(40), wed),
		booking("nocoord-wed", nil, wed),
		booking("near-thu", north(5), thu),
		booking("closer-thu", north(1), thu),
		booking("undated", north(0.5), nil),
	}
	ctx := Build(model.Coordinate{}, jobs, DefaultPolicy())

	assert.Equal(t, DateTotals{Total: 4, Nearby: 2}, ctx.ByDate[*wed])
	assert.Equal(t, DateTotals{Total: 2, Nearby: 2}, ctx.ByDate[*thu])
	assert.Len(t, ctx.ByDate, 2)

	require.Len(t, ctx.Buckets[*wed], 1)
	assert.Equal(t, "near-wed", ctx.Buckets[*wed][0].Job.ID)
	require.Len(t, ctx.Buckets[*thu], 2)
	assert.Equal(t, "closer-thu", ctx.Buckets[*thu][0].Job.ID)
	assert.Equal(t, "near-thu", ctx.Buckets[*thu][1].Job.ID)
	assert.InDelta(t, 1.0, ctx.Buckets[*thu][0].Miles, 0.01)

	require.NotNil(t, ctx.Closest)
	assert.Equal(t, "undated", ctx.Closest.Job.ID)
	assert.Equal(t, []model.Date{*wed, *thu}, ctx.Dates())
}

func TestBuildWithoutCoordinates(t *testing.T) {
	wed := date("2026-10-21")
	jobs := []model.ExistingJob{booking("a", nil, wed), booking("b", nil, wed)}
	ctx := Build(model.Coordinate{}, jobs, DefaultPolicy())
	assert.Nil(t, ctx.Closest)
	assert.Empty(t, ctx.Buckets)
	assert.Equal(t, DateTotals{Total: 2}, ctx.ByDate[*wed])
	assert.Empty(t, ctx.NearestDates())
	assert.Contains(t, ctx.Narrative(), "No existing jobs within 10 miles")

	empty := Build(model.Coordinate{}, nil, DefaultPolicy())
	assert.Nil(t, empty.Closest)
	assert.Empty(t, empty.ByDate)
	assert.Empty(t, empty.Dates())
}

func TestNarrativeCaps(t *testing.T) {
	start := *date("2026-11-01")
	var jobs []model.ExistingJob
	for day := 0; day < 9; day++ {
		d := start.AddDays(day)
		for k := 0; k < 7; k++ {
			// later days are closer so the date order differs from the calendar
			miles := float64(9-day)*0.5 + float64(k)*0.1
			jobs = append(jobs, booking(d.String(), north(miles), &d))
		}
	}
	ctx := Build(model.Coordinate{}, jobs, DefaultPolicy())

	dates := ctx.NearestDates()
	require.Len(t, dates, 7)
	assert.Equal(t, start.AddDays(8), dates[0])
	assert.Equal(t, start.AddDays(2), dates[6])

	text := ctx.Narrative()
	assert.Equal(t, 35, strings.Count(text, "  - "))
	assert.NotContains(t, text, start.String())
	assert.Contains(t, text, "2026-11-09 (Monday)")
	assert.Contains(t, text, "11:00-14:00 | Denver | tech t1")
}

func TestNearestDatesTieBreaksByDate(t *testing.T) {
	a, b := date("2026-10-23"), date("2026-10-21")
	jobs := []model.ExistingJob{booking("x", north(3), a), booking("y", north(3), b)}
	ctx := Build(model.Coordinate{}, jobs, DefaultPolicy())
	assert.Equal(t, []model.Date{*b, *a}, ctx.NearestDates())
}

func TestWindow(t *testing.T) {
	from, to := Window(*date("2026-10-19"), 14)
	assert.Equal(t, "2026-10-19", from.String())
	assert.Equal(t, "2026-11-02", to.String())
}
