package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{"suggestions":[{"date":"2026-10-21","day_name":"Wednesday","time_slot":{"start":"08:00","end":"11:00"},"confidence":"high","technician_id":"b","nearby_job_count":3,"skill_match":"preferred","justification":"right before the {anchor} job"}],"analysis":"cluster on Wednesday","warnings":["tight day"]}`

func TestParseResponsePlainJSON(t *testing.T) {
	res := ParseResponse(validBody)
	p, ok := res.(Parsed)
	require.True(t, ok, "got %#v", res)
	require.Len(t, p.Suggestions, 1)
	s := p.Suggestions[0]
	assert.Equal(t, "2026-10-21", s.Date)
	require.NotNil(t, s.TimeSlot)
	assert.Equal(t, "08:00", s.TimeSlot.Start)
	require.NotNil(t, s.NearbyJobCount)
	assert.Equal(t, 3, *s.NearbyJobCount)
	assert.Equal(t, "right before the {anchor} job", s.Justification)
	assert.Equal(t, "cluster on Wednesday", p.Analysis)
	assert.Equal(t, []string{"tight day"}, p.Warnings)
}

func TestParseResponseFencesAndProse(t *testing.T) {
	fenced := "```json\n" + validBody + "\n```"
	_, ok := ParseResponse(fenced).(Parsed)
	assert.True(t, ok)

	prose := "Here are my suggestions:\n\n" + validBody + "\n\nLet me know if you need more."
	_, ok = ParseResponse(prose).(Parsed)
	assert.True(t, ok)

	mixed := "Sure!\n```\n" + validBody + "\n```\nthanks"
	_, ok = ParseResponse(mixed).(Parsed)
	assert.True(t, ok)
}

func TestParseResponseMissingOptionalFields(t *testing.T) {
	res := ParseResponse(`{"suggestions":[{"technician_id":"b"},{"time_slot":{"start":"11:00"}}]}`)
	p, ok := res.(Parsed)
	require.True(t, ok, "got %#v", res)
	require.Len(t, p.Suggestions, 2)
	assert.Nil(t, p.Suggestions[0].TimeSlot)
	assert.Nil(t, p.Suggestions[0].NearbyJobCount)
	assert.Empty(t, p.Analysis)
	assert.Nil(t, p.Warnings)

	p2, ok := ParseResponse(`{"suggestions":[],"analysis":null,"warnings":null}`).(Parsed)
	require.True(t, ok)
	assert.Empty(t, p2.Suggestions)
}

func TestParseResponseRejectsInvalidStructure(t *testing.T) {
	cases := map[string]string{
		"no json":              "I could not find a slot, sorry.",
		"unbalanced":           `{"suggestions":[{"date":"2026-10-21"}`,
		"missing suggestions":  `{"analysis":"nothing"}`,
		"suggestions not list": `{"suggestions":{"date":"2026-10-21"}}`,
		"slot wrong type":      `{"suggestions":[{"time_slot":"08:00-11:00"}]}`,
		"count wrong type":     `{"suggestions":[{"nearby_job_count":"three"}]}`,
		"warnings wrong type":  `{"suggestions":[],"warnings":"careful"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res := ParseResponse(body)
			u, ok := res.(Unparseable)
			require.True(t, ok, "got %#v", res)
			assert.Equal(t, body, u.Raw)
			assert.NotEmpty(t, u.Reason)
		})
	}
}

func TestFirstObject(t *testing.T) {
	obj, ok := firstObject(`prefix {"a":"}{","b":{"c":"\"}"}} trailing {"x":1}`)
	require.True(t, ok)
	assert.Equal(t, `{"a":"}{","b":{"c":"\"}"}}`, obj)

	_, ok = firstObject("no braces")
	assert.False(t, ok)
}
