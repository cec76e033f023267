package store

import (
	"sort"

	"Gin_postgres_redis_tool_issuance/models"
)

// IssuanceFilter narrows ListIssuances. Zero values match everything.
// FromDate and ToDate are inclusive YYYY-MM-DD bounds on Issuance.Date.
type IssuanceFilter struct {
	Statuses  []models.IssuanceStatus
	Overdue   *bool
	Attendant string
	Shift     string
	ToolCode  string
	FromDate  string
	ToDate    string
}

func (f IssuanceFilter) Match(is *models.Issuance) bool {
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if is.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.Overdue != nil && is.IsOverdue != *f.Overdue {
		return false
	}
	if f.Attendant != "" && is.AttendantName != f.Attendant {
		return false
	}
	if f.Shift != "" && is.AttendantShift != f.Shift {
		return false
	}
	if f.ToolCode != "" && is.ToolCode != f.ToolCode {
		return false
	}
	// YYYY-MM-DD compares correctly as a string.
	if f.FromDate != "" && is.Date < f.FromDate {
		return false
	}
	if f.ToDate != "" && is.Date > f.ToDate {
		return false
	}
	return true
}

// SortNewestFirst orders by CreatedAt descending, then id descending, which is
// the order every listing is served in.
func SortNewestFirst(list []models.Issuance) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func Bool(b bool) *bool { return &b }
