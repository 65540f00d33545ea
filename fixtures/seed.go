/*
Package fixtures seeds demo and test data through the public store
interfaces.

PURPOSE:
  Provides an explicit, opt-in seeding mechanism for development servers and
  integration tests. Nothing here is loaded implicitly: a caller invokes
  Seed, or the server is started with -seed. Production deployments simply
  never call it.

WHAT GETS SEEDED:
  - A small leave-type catalog (casual, sick, earned, leave-without-pay)
  - Ledger rows for two demo employees for the seed year
  - The public holidays of the seed year

SEE ALSO:
  - cmd/server: the -seed flag
  - api tests: use Seed against the memory store
*/
package fixtures

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/ledger"
)

// Stores is the slice of the storage surface Seed writes to.
type Stores struct {
	Balances ledger.Store
	Catalog  leave.Catalog
}

// DemoEmployees are the employee IDs provisioned by Seed.
var DemoEmployees = []string{"emp-100", "emp-200"}

// Seed installs the demo data set for the given year.
func Seed(ctx context.Context, stores Stores, year int) error {
	tenDays := decimal.NewFromInt(10)

	leaveTypes := []leave.LeaveType{
		{
			Code:                   "CL",
			Name:                   "Casual Leave",
			RequiresHalfDaySupport: true,
		},
		{
			Code:                   "SL",
			Name:                   "Sick Leave",
			RequiresHalfDaySupport: true,
		},
		{
			Code:                   "EL",
			Name:                   "Earned Leave",
			IsCarryForwardEligible: true,
			MaxCarryForwardDays:    &tenDays,
			IsEncashable:           true,
			RequiresHalfDaySupport: true,
		},
		{
			Code: "LWP",
			Name: "Leave Without Pay",
		},
	}
	for _, lt := range leaveTypes {
		if err := stores.Catalog.PutLeaveType(ctx, lt); err != nil {
			return err
		}
	}

	openings := map[string]decimal.Decimal{
		"CL":  decimal.NewFromInt(12),
		"SL":  decimal.NewFromInt(10),
		"EL":  decimal.NewFromInt(15),
		"LWP": decimal.Zero,
	}
	for _, employeeID := range DemoEmployees {
		for code, opening := range openings {
			balance := &ledger.Balance{
				Key: ledger.Key{
					EmployeeID:    employeeID,
					LeaveTypeCode: code,
					Year:          year,
				},
				OpeningBalance: opening,
			}
			if err := stores.Balances.Create(ctx, balance); err != nil {
				return err
			}
		}
	}

	holidays := []leave.Holiday{
		{Date: leave.NewDate(year, time.January, 14), Name: "Makar Sankranti", Kind: leave.HolidayState},
		{Date: leave.NewDate(year, time.January, 26), Name: "Republic Day", Kind: leave.HolidayNational},
		{Date: leave.NewDate(year, time.August, 15), Name: "Independence Day", Kind: leave.HolidayNational},
		{Date: leave.NewDate(year, time.October, 2), Name: "Gandhi Jayanti", Kind: leave.HolidayNational},
		{Date: leave.NewDate(year, time.December, 25), Name: "Christmas Day", Kind: leave.HolidayNational},
	}
	for _, h := range holidays {
		if err := stores.Catalog.AddHoliday(ctx, h); err != nil {
			return err
		}
	}
	return nil
}
