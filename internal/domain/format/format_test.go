package format_test

import (
	"testing"
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/format"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFormatRow(t *testing.T) {
	Convey("Given an accepted completion", t, func() {
		c := record.Completion{
			ActivityCode:   "LAW1000",
			CompletionDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Score:          85,
			Identity:       "jane.doe@ex.com",
			EmpID:          4500,
		}

		Convey("When projecting it to the output schema", func() {
			row := format.Row(c)

			Convey("Then key fields are copied and constants applied", func() {
				So(row.EmployeeNumber, ShouldEqual, "jane.doe@ex.com")
				So(row.ActivityCode, ShouldEqual, "LAW1000")
				So(row.CompletionDate, ShouldEqual, "01/15/2024 09:00")
				So(row.Score, ShouldEqual, "85")
				So(row.Passed, ShouldEqual, "1")
				So(row.Status, ShouldEqual, "4")
				So(row.CompletionStatus, ShouldEqual, "1")
				So(row.Timezone, ShouldEqual, "America/Phoenix")
				So(row.EmpID, ShouldEqual, "4500")
			})

			Convey("Then unused columns stay empty placeholders", func() {
				So(row.ClassStartDate, ShouldEqual, "")
				So(row.RegistrationDate, ShouldEqual, "")
				So(row.PaymentTerm, ShouldEqual, "")
				So(row.Notes, ShouldEqual, "")
				So(row.SlotendDate, ShouldEqual, "")
			})
		})

		Convey("When the employee id is unset", func() {
			c.EmpID = 0
			row := format.Row(c)

			Convey("Then the EmpID column is empty", func() {
				So(row.EmpID, ShouldEqual, "")
			})
		})

		Convey("When projecting a batch", func() {
			rows := format.Rows([]record.Completion{c, {ActivityCode: "MGT1000", Identity: "b@ex.com"}})

			Convey("Then order is preserved", func() {
				So(rows, ShouldHaveLength, 2)
				So(rows[0].ActivityCode, ShouldEqual, "LAW1000")
				So(rows[1].ActivityCode, ShouldEqual, "MGT1000")
				So(rows[1].CompletionDate, ShouldEqual, "")
			})
		})
	})
}
