package record

// Fixed values the LMS import format requires on every row.
const (
	OutputPassed           = "1"
	OutputStatus           = "4"
	OutputCompletionStatus = "1"
	OutputTimezone         = "America/Phoenix"

	// OutputTimeOfDay is appended to every completion date; the LMS wants a
	// timestamp even though the feeds only carry dates.
	OutputTimeOfDay = "09:00"

	// OutputDateLayout renders dates the way the LMS import expects.
	OutputDateLayout = "01/02/2006"
)

// OutputColumns is the column order of the LMS import file.
var OutputColumns = []string{
	"EmployeeNumber",
	"ActivityCode",
	"ClassStartDate",
	"RegistrationDate",
	"CompletionDate",
	"FirstLaunchDate",
	"Score",
	"Passed",
	"CancellationDate",
	"PaymentTerm",
	"Cost",
	"Currency",
	"Timezone",
	"Status",
	"Notes",
	"SubscriptionSourceActivityCode",
	"SubscriptionSourceActivityStartDate",
	"ElapsedTime",
	"CompletionStatus",
	"Location_Name",
	"Slotstart_Date",
	"Slotend_Date",
	"EmpID",
}

// OutputRow is one row of the LMS import file. Fields not supplied by this
// system stay empty placeholders.
type OutputRow struct {
	EmployeeNumber                      string
	ActivityCode                        string
	ClassStartDate                      string
	RegistrationDate                    string
	CompletionDate                      string
	FirstLaunchDate                     string
	Score                               string
	Passed                              string
	CancellationDate                    string
	PaymentTerm                         string
	Cost                                string
	Currency                            string
	Timezone                            string
	Status                              string
	Notes                               string
	SubscriptionSourceActivityCode      string
	SubscriptionSourceActivityStartDate string
	ElapsedTime                         string
	CompletionStatus                    string
	LocationName                        string
	SlotstartDate                       string
	SlotendDate                         string
	EmpID                               string
}

// Values returns the row's fields in OutputColumns order.
func (r OutputRow) Values() []string {
	return []string{
		r.EmployeeNumber,
		r.ActivityCode,
		r.ClassStartDate,
		r.RegistrationDate,
		r.CompletionDate,
		r.FirstLaunchDate,
		r.Score,
		r.Passed,
		r.CancellationDate,
		r.PaymentTerm,
		r.Cost,
		r.Currency,
		r.Timezone,
		r.Status,
		r.Notes,
		r.SubscriptionSourceActivityCode,
		r.SubscriptionSourceActivityStartDate,
		r.ElapsedTime,
		r.CompletionStatus,
		r.LocationName,
		r.SlotstartDate,
		r.SlotendDate,
		r.EmpID,
	}
}
