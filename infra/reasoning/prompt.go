// Package reasoning provides assembler.Reasoner implementations: a Gemini
// backed reasoner and a deterministic heuristic one used offline.
package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kwikdrytn/kwikdry-sub000/core/assembler"
)

const systemInstruction = `You schedule field service jobs for a cleaning company.
Propose appointment options for a new job that minimise technician travel by
clustering the job next to existing bookings, and that respect technician
skills. Reply with a single JSON object and nothing else.`

// BuildPrompt renders the ranking context as the user prompt.
func BuildPrompt(rc assembler.RankingContext) (string, error) {
	data, err := json.MarshalIndent(rc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("reasoning: encode context: %w", err)
	}
	starts := make([]string, len(rc.StandardStartTimes))
	for i, s := range rc.StandardStartTimes {
		starts[i] = s.String()
	}

	var sb strings.Builder
	sb.WriteString("New job and scheduling context:\n")
	sb.Write(data)
	sb.WriteString("\n\nExisting jobs near the new job, by date:\n")
	sb.WriteString(rc.Narrative)
	sb.WriteString("\n\nRules:\n")
	fmt.Fprintf(&sb, "- Start times must be one of %s. The job lasts %d minutes.\n", strings.Join(starts, ", "), rc.DurationMinutes)
	fmt.Fprintf(&sb, "- Dates must fall between %s and %s (exclusive).\n", rc.WindowStart, rc.WindowEnd)
	sb.WriteString("- Only use technicians from the shortlist. Prefer technicians whose skill_match is preferred.\n")
	sb.WriteString("- Prefer dates where the anchor or other nearby jobs are booked, in a slot adjacent to them.\n")
	if len(rc.PreferredDays) > 0 || rc.PreferredWindow != nil {
		sb.WriteString("- Honour the customer's preferred days and time window when possible.\n")
	}
	if rc.Restrictions != "" {
		fmt.Fprintf(&sb, "- Customer restrictions: %s\n", rc.Restrictions)
	}
	fmt.Fprintf(&sb, "- Return between 3 and %d suggestions, best first.\n", rc.MaxSuggestions)
	sb.WriteString(`
Respond with JSON of the form:
{"suggestions":[{"date":"YYYY-MM-DD","day_name":"Monday","time_slot":{"start":"HH:MM","end":"HH:MM"},` +
		`"confidence":"high|medium|low","technician_id":"...","nearby_job_count":0,` +
		`"skill_match":"preferred|standard|avoid","justification":"..."}],"analysis":"...","warnings":["..."]}`)
	return sb.String(), nil
}
