package dedupe_test

import (
	"testing"
	"time"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/dedupe"
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func completion(code, identity string, day int) record.Completion {
	return record.Completion{
		ActivityCode:   code,
		Identity:       identity,
		CompletionDate: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Score:          80,
	}
}

func TestKeySet(t *testing.T) {
	Convey("Given a key set", t, func() {
		s := dedupe.NewKeySet()

		Convey("When adding keys", func() {
			k := completion("LAW1000", "a@ex.com", 15).Key()
			s.Add(k)
			s.Add(k)

			Convey("Then membership and size reflect distinct keys", func() {
				So(s.Contains(k), ShouldBeTrue)
				So(s.Size(), ShouldEqual, 1)
				So(s.Contains(completion("LAW1000", "a@ex.com", 16).Key()), ShouldBeFalse)
			})
		})
	})
}

func TestDistinct(t *testing.T) {
	Convey("Given a candidate batch and a ledger", t, func() {
		ledger := dedupe.NewKeySet(completion("LAW1000", "seen@ex.com", 15).Key())

		candidates := []record.Completion{
			completion("LAW1000", "seen@ex.com", 15),  // already ledgered
			completion("LAW1000", "new@ex.com", 15),   // new
			completion("MGT1000", "seen@ex.com", 15),  // new: different activity
			completion("LAW1000", "seen@ex.com", 16),  // new: different date
			completion("LAW1000", record.BlankIdentity, 15), // sentinel, never accepted
			completion("LAW1000", "", 15),             // unusable identity
			{ActivityCode: "LAW1000", Identity: "undated@ex.com"}, // no date, no key
			completion("LAW1000", "new@ex.com", 15),   // duplicate within batch
		}

		Convey("When computing the distinct set", func() {
			accepted := dedupe.Distinct(candidates, ledger)

			Convey("Then only genuinely new, usable completions survive", func() {
				So(accepted, ShouldHaveLength, 3)
				So(accepted[0].Identity, ShouldEqual, "new@ex.com")
				So(accepted[1].ActivityCode, ShouldEqual, "MGT1000")
				So(accepted[2].Key().Date, ShouldEqual, "2024-01-16")
			})

			Convey("Then the computation is idempotent", func() {
				again := dedupe.Distinct(candidates, ledger)
				So(again, ShouldResemble, accepted)
			})

			Convey("Then re-running after appending the accepted set yields nothing", func() {
				for _, c := range accepted {
					ledger.Add(c.Key())
				}
				So(dedupe.Distinct(candidates, ledger), ShouldBeEmpty)
			})

			Convey("Then accepted keys are unique and absent from the prior ledger", func() {
				prior := dedupe.NewKeySet(completion("LAW1000", "seen@ex.com", 15).Key())
				seen := dedupe.NewKeySet()
				for _, c := range accepted {
					So(prior.Contains(c.Key()), ShouldBeFalse)
					So(seen.Contains(c.Key()), ShouldBeFalse)
					seen.Add(c.Key())
				}
			})
		})
	})
}
