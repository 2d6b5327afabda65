package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, tod.Minutes())
	assert.Equal(t, "08:30", tod.String())

	tod, err = ParseTimeOfDay("14:00:00")
	require.NoError(t, err)
	assert.Equal(t, "14:00", tod.String())

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("noon")
	assert.Error(t, err)

	tod, err = ParseTimeOfDay(" 8:05 ")
	require.NoError(t, err)
	assert.Equal(t, "08:05", tod.String())
}

func TestParseTimeOfDayRejectsTrailingText(t *testing.T) {
	for _, s := range []string{"11:00 PM", "2:00 PM", "08:00junk", "08:00:00Z", "08:00-10:00", "8:5", ""} {
		_, err := ParseTimeOfDay(s)
		assert.Error(t, err, s)
	}
}

func TestTimeOfDayWithinDay(t *testing.T) {
	end := MustTimeOfDay("14:00").Add(600)
	assert.False(t, end.WithinDay())
	assert.Equal(t, "24:00", end.String())
	assert.True(t, MustTimeOfDay("14:00").Add(599).WithinDay())

	_, err := ParseTimeOfDay(end.String())
	assert.Error(t, err)
}

func TestDateArithmetic(t *testing.T) {
	d, err := ParseDate("2026-10-30")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", d.AddDays(3).String())
	assert.Equal(t, time.Friday, d.Weekday())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
}

func TestDateAndTimeJSON(t *testing.T) {
	type payload struct {
		Date Date       `json:"date"`
		Slot TimeWindow `json:"slot"`
	}
	in := `{"date":"2026-10-21","slot":{"start":"11:00","end":"14:00"}}`
	var p payload
	require.NoError(t, json.Unmarshal([]byte(in), &p))
	assert.Equal(t, 180, p.Slot.Minutes())
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestTimeWindowOverlaps(t *testing.T) {
	a := TimeWindow{Start: MustTimeOfDay("08:00"), End: MustTimeOfDay("11:00")}
	b := TimeWindow{Start: MustTimeOfDay("11:00"), End: MustTimeOfDay("14:00")}
	c := TimeWindow{Start: MustTimeOfDay("10:00"), End: MustTimeOfDay("12:00")}
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}

func TestParseWeekdayAndLevels(t *testing.T) {
	d, err := ParseWeekday("wed")
	require.NoError(t, err)
	assert.Equal(t, Weekday(time.Wednesday), d)
	_, err = ParseWeekday("someday")
	assert.Error(t, err)

	l, err := ParseSkillLevel(" Never ")
	require.NoError(t, err)
	assert.Equal(t, SkillNever, l)
	assert.Less(t, SkillPreferred.Rank(), SkillStandard.Rank())
	assert.Less(t, SkillStandard.Rank(), SkillAvoid.Rank())
	assert.Equal(t, ConfidenceLow, NormalizeConfidence("certain"))
	assert.Equal(t, ConfidenceHigh, NormalizeConfidence("HIGH"))
}

func TestRingValid(t *testing.T) {
	open := Ring{{0, 0}, {0, 1}, {1, 1}}
	assert.False(t, open.Closed())
	assert.False(t, open.Valid())
	closed := append(append(Ring{}, open...), Coordinate{0, 0})
	assert.True(t, closed.Valid())
	var b *Boundary
	assert.Nil(t, b.First())
}
