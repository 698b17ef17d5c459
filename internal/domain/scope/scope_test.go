package scope_test

import (
	"context"
	"testing"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/scope"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScopeFilter(t *testing.T) {
	Convey("Given an active-activity filter", t, func() {
		f := scope.New([]string{"LAW1000", "MGT1000"})
		ctx := context.Background()

		Convey("When applying it to a mixed batch", func() {
			batch := []record.Completion{
				{ActivityCode: "LAW1000", Identity: "a@ex.com"},
				{ActivityCode: "RETIRED01", Identity: "b@ex.com"},
				{ActivityCode: "MGT1000", Identity: "c@ex.com"},
				{ActivityCode: "", Identity: "d@ex.com"},
			}

			kept := f.Apply(ctx, batch)

			Convey("Then only in-scope codes survive, in order", func() {
				So(kept, ShouldHaveLength, 2)
				So(kept[0].Identity, ShouldEqual, "a@ex.com")
				So(kept[1].Identity, ShouldEqual, "c@ex.com")
			})
		})

		Convey("When checking membership directly", func() {
			So(f.Contains("LAW1000"), ShouldBeTrue)
			So(f.Contains("law1000"), ShouldBeFalse)
			So(f.Contains(""), ShouldBeFalse)
			So(f.Len(), ShouldEqual, 2)
		})

		Convey("When the configured set is empty", func() {
			empty := scope.New(nil)
			kept := empty.Apply(ctx, []record.Completion{{ActivityCode: "LAW1000"}})

			Convey("Then nothing survives", func() {
				So(kept, ShouldBeEmpty)
			})
		})
	})
}
