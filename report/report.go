// Package report aggregates issuance records into the exports, exception
// reports and dashboard counters served to admins and attendants.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

// TenDayWindow is how far back the exception reports look.
const TenDayWindow = 10

// Filter narrows an export. Dates are inclusive YYYY-MM-DD bounds.
type Filter struct {
	From      string `form:"startDate"`
	To        string `form:"endDate"`
	Shift     string `form:"shift"`
	Attendant string `form:"-"`
}

// ScopedTo restricts f to what u may see: attendants only get their own
// issuances, admins get everything.
func (f Filter) ScopedTo(u *models.User) Filter {
	if !u.IsAdmin() {
		f.Attendant = u.Username
	}
	return f
}

func (f Filter) issuanceFilter() store.IssuanceFilter {
	return store.IssuanceFilter{
		FromDate:  f.From,
		ToDate:    f.To,
		Shift:     f.Shift,
		Attendant: f.Attendant,
	}
}

type Statistics struct {
	TotalTools      int `json:"totalTools"`
	TotalAttendants int `json:"totalAttendants"`
	IssuedTools     int `json:"issuedTools"`
	OverdueTools    int `json:"overdueTools"`
}

type AttendantSummary struct {
	Attendant      string `json:"attendant"`
	Date           string `json:"date"`
	IssuedToday    int    `json:"issuedToday"`
	ReturnedToday  int    `json:"returnedToday"`
	PendingReturns int    `json:"pendingReturns"`
}

type Aggregator struct {
	issuances store.IssuanceStore
	tools     store.ToolStore
	users     store.UserStore
	loc       *time.Location
}

// New builds an aggregator. Report windows are cut at calendar days in loc;
// nil means time.Local.
func New(st store.Store, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	return &Aggregator{issuances: st, tools: st, users: st, loc: loc}
}

func (a *Aggregator) day(t time.Time) string {
	return t.In(a.loc).Format(models.DateLayout)
}

// Issuances returns the records matching f, newest first.
func (a *Aggregator) Issuances(ctx context.Context, f Filter) ([]models.Issuance, error) {
	rows, err := a.issuances.ListIssuances(ctx, f.issuanceFilter())
	if err != nil {
		return nil, fmt.Errorf("list issuances: %w", err)
	}
	return rows, nil
}

func isException(is *models.Issuance) bool {
	if is.Status == models.StatusIssued {
		return true
	}
	if is.ConditionReturned == nil {
		return false
	}
	switch *is.ConditionReturned {
	case models.ConditionDamaged, models.ConditionNeedsRepair, models.ConditionLost:
		return true
	}
	return false
}

// TenDayExceptions lists the records of the last ten days that are still out
// or came back damaged, needing repair or not at all.
func (a *Aggregator) TenDayExceptions(ctx context.Context, now time.Time) ([]models.Issuance, error) {
	rows, err := a.since(ctx, now.AddDate(0, 0, -TenDayWindow), "")
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for i := range rows {
		if isException(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

// AttendantTenDay is the per-attendant shift report: every record the
// attendant handled during the last ten days.
func (a *Aggregator) AttendantTenDay(ctx context.Context, attendant string, now time.Time) ([]models.Issuance, error) {
	return a.since(ctx, now.AddDate(0, 0, -TenDayWindow), attendant)
}

// Monthly lists every record dated in now's calendar month so far.
func (a *Aggregator) Monthly(ctx context.Context, now time.Time) ([]models.Issuance, error) {
	local := now.In(a.loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, a.loc)
	return a.since(ctx, first, "")
}

func (a *Aggregator) since(ctx context.Context, from time.Time, attendant string) ([]models.Issuance, error) {
	rows, err := a.issuances.ListIssuances(ctx, store.IssuanceFilter{
		FromDate:  a.day(from),
		Attendant: attendant,
	})
	if err != nil {
		return nil, fmt.Errorf("list issuances since %s: %w", a.day(from), err)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date > rows[j].Date })
	return rows, nil
}

func (a *Aggregator) Statistics(ctx context.Context) (*Statistics, error) {
	tools, err := a.tools.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	attendants, err := a.users.ListUsers(ctx, models.RoleAttendant)
	if err != nil {
		return nil, fmt.Errorf("list attendants: %w", err)
	}
	issued, err := a.issuances.ListIssuances(ctx, store.IssuanceFilter{Statuses: []models.IssuanceStatus{models.StatusIssued}})
	if err != nil {
		return nil, fmt.Errorf("list issued: %w", err)
	}
	overdue, err := a.issuances.ListIssuances(ctx, store.IssuanceFilter{Overdue: store.Bool(true)})
	if err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}
	return &Statistics{
		TotalTools:      len(tools),
		TotalAttendants: len(attendants),
		IssuedTools:     len(issued),
		OverdueTools:    len(overdue),
	}, nil
}

// AttendantSummary gives the attendant dashboard counters for the calendar
// day of today.
func (a *Aggregator) AttendantSummary(ctx context.Context, attendant string, today time.Time) (*AttendantSummary, error) {
	rows, err := a.issuances.ListIssuances(ctx, store.IssuanceFilter{Attendant: attendant})
	if err != nil {
		return nil, fmt.Errorf("list issuances of %s: %w", attendant, err)
	}

	sum := &AttendantSummary{Attendant: attendant, Date: a.day(today)}
	for _, is := range rows {
		if is.Date == sum.Date {
			sum.IssuedToday++
			if is.Status == models.StatusReturned || is.TimeIn != nil {
				sum.ReturnedToday++
			}
		}
		if is.Status == models.StatusIssued && is.TimeIn == nil {
			sum.PendingReturns++
		}
	}
	return sum, nil
}
