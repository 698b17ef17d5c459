// Package format projects accepted completions into the LMS import shape.
//
// A pure structural projection: no filtering or validation happens here.
package format

import (
	"strconv"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
)

// Row maps one accepted completion onto the fixed output schema. Required
// key fields are copied; every other column gets its defined constant or an
// empty placeholder.
func Row(c record.Completion) record.OutputRow {
	row := record.OutputRow{
		EmployeeNumber:   c.Identity,
		ActivityCode:     c.ActivityCode,
		Score:            strconv.Itoa(c.Score),
		Passed:           record.OutputPassed,
		Timezone:         record.OutputTimezone,
		Status:           record.OutputStatus,
		CompletionStatus: record.OutputCompletionStatus,
	}
	if c.HasDate() {
		row.CompletionDate = c.CompletionDate.Format(record.OutputDateLayout) + " " + record.OutputTimeOfDay
	}
	if c.EmpID != 0 {
		row.EmpID = strconv.FormatInt(c.EmpID, 10)
	}
	return row
}

// Rows projects a whole batch, preserving order.
func Rows(batch []record.Completion) []record.OutputRow {
	rows := make([]record.OutputRow, len(batch))
	for i, c := range batch {
		rows[i] = Row(c)
	}
	return rows
}
