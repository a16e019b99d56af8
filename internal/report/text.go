package report

import (
	"fmt"
	"strings"

	"github.com/raysh454/proctor/internal/score"
)

// RenderText produces the plain-text report. It needs nothing but the
// record, so it is always available when storage is not.
func RenderText(r Record) string {
	var b strings.Builder

	b.WriteString("INTERVIEW INTEGRITY REPORT\n")
	b.WriteString("==========================\n\n")
	candidate := r.CandidateName
	if candidate == "" {
		candidate = "(unnamed)"
	}
	fmt.Fprintf(&b, "Candidate:        %s\n", candidate)
	if r.ID != "" {
		fmt.Fprintf(&b, "Report ID:        %s\n", r.ID)
	}
	fmt.Fprintf(&b, "Interview start:  %s\n", r.StartTime)
	fmt.Fprintf(&b, "Interview end:    %s\n", r.EndTime)
	fmt.Fprintf(&b, "Duration:         %s\n\n", r.InterviewDuration)

	b.WriteString("FOCUS\n")
	fmt.Fprintf(&b, "  Looking away:     %d\n", r.FocusIssues.LookAwayCount)
	fmt.Fprintf(&b, "  No face:          %d\n", r.FocusIssues.NoFaceCount)
	fmt.Fprintf(&b, "  Multiple faces:   %d\n\n", r.FocusIssues.MultipleFacesCount)

	b.WriteString("PROHIBITED ITEMS\n")
	fmt.Fprintf(&b, "  Phones:           %d\n", r.ProhibitedItems.PhonesDetected)
	fmt.Fprintf(&b, "  Books:            %d\n", r.ProhibitedItems.BooksDetected)
	fmt.Fprintf(&b, "  Devices:          %d\n\n", r.ProhibitedItems.DevicesDetected)

	fmt.Fprintf(&b, "INTEGRITY SCORE: %d/100 (%s)\n", r.IntegrityScore, score.Label(r.IntegrityScore))
	fmt.Fprintf(&b, "Recommendation:  %s\n\n", score.Recommendation(r.IntegrityScore))

	b.WriteString("EVENT LOG\n")
	if len(r.Events) == 0 {
		b.WriteString("  (no events)\n")
	}
	for _, ev := range r.Events {
		fmt.Fprintf(&b, "  [%s] %-7s %s\n", ev.Timestamp, strings.ToUpper(string(ev.Severity)), ev.Message)
	}
	return b.String()
}
