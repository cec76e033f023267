// Package issuance drives an issuance record from check-out to its terminal
// status and keeps the tool ledger in step with every transition.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"Gin_postgres_redis_tool_issuance/ledger"
	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/metrics"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/shift"
	"Gin_postgres_redis_tool_issuance/store"
)

// Applied when the acting attendant has no shift on record.
const (
	DefaultShift     = "A"
	DefaultShiftTime = shift.Morning
)

type Service struct {
	issuances store.IssuanceStore
	tools     store.ToolStore
	users     store.UserStore
	ledger    *ledger.Ledger
	loc       *time.Location
	now       func() time.Time
}

// New wires the lifecycle. Issuance dates and clock times are read in loc;
// nil means time.Local. A nil now means time.Now.
func New(st store.Store, l *ledger.Ledger, loc *time.Location, now func() time.Time) *Service {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Service{issuances: st, tools: st, users: st, ledger: l, loc: loc, now: now}
}

type IssueRequest struct {
	Date            string `json:"date"`
	ToolCode        string `json:"tool_code"`
	ToolDescription string `json:"tool_description"`
	Quantity        int    `json:"quantity"`
	IssuedToName    string `json:"issued_to_name"`
	IssuedToID      string `json:"issued_to_id"`
	Department      string `json:"department"`
	TimeOut         string `json:"time_out"`
	Comments        string `json:"comments"`

	// Username of the acting attendant, taken from the session.
	Attendant string `json:"-"`
}

type ReturnInput struct {
	TimeIn            string `json:"time_in"`
	ConditionReturned string `json:"condition_returned"`
	Comments          string `json:"comments"`
}

type OverdueIssuance struct {
	models.Issuance
	HoursOverdue decimal.Decimal `json:"hours_overdue"`
}

func (s *Service) validateIssue(req *IssueRequest) (time.Time, error) {
	req.Date = strings.TrimSpace(req.Date)
	req.ToolCode = strings.TrimSpace(req.ToolCode)
	req.IssuedToName = strings.TrimSpace(req.IssuedToName)
	req.Department = strings.TrimSpace(req.Department)
	req.TimeOut = strings.TrimSpace(req.TimeOut)

	verr := &ValidationError{}
	if req.Date == "" {
		verr.missing("date")
	}
	if req.ToolCode == "" {
		verr.missing("tool_code")
	}
	if req.Quantity <= 0 {
		verr.missing("quantity")
	}
	if req.IssuedToName == "" {
		verr.missing("issued_to_name")
	}
	if req.Department == "" {
		verr.missing("department")
	}
	if req.TimeOut == "" {
		verr.missing("time_out")
	}

	var date time.Time
	if req.Date != "" {
		d, err := time.ParseInLocation(models.DateLayout, req.Date, s.loc)
		if err != nil {
			verr.invalid("date")
		}
		date = d
	}
	if req.TimeOut != "" && !validClock(req.TimeOut) {
		verr.invalid("time_out")
	}

	if !verr.empty() {
		return time.Time{}, verr
	}
	return date, nil
}

func validClock(v string) bool {
	if _, err := time.Parse(models.ClockLayout, v); err == nil {
		return true
	}
	_, err := time.Parse(models.ClockLayoutSecs, v)
	return err == nil
}

// attendantContext resolves shift, shift time and shift day of the acting
// attendant. An unknown attendant gets the defaults.
func (s *Service) attendantContext(ctx context.Context, username string, now time.Time) (string, shift.TimeOfDay, int, error) {
	shiftLabel, tod, day := DefaultShift, DefaultShiftTime, 1
	if username == "" {
		return shiftLabel, tod, day, nil
	}

	u, err := s.users.GetUser(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return shiftLabel, tod, day, nil
	}
	if err != nil {
		return "", "", 0, fmt.Errorf("load attendant %s: %w", username, err)
	}

	if u.Shift != "" {
		shiftLabel = u.Shift
	}
	if u.ShiftTime != "" {
		tod = u.ShiftTime
	}
	if !u.CreatedAt.IsZero() && now.After(u.CreatedAt) {
		day = int(now.Sub(u.CreatedAt)/(24*time.Hour)) + 1
	}
	return shiftLabel, tod, day, nil
}

// Issue checks a tool out. Requesting more than is available is allowed: the
// ledger clamps stock at zero and the occurrence is logged and counted.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*models.Issuance, error) {
	date, err := s.validateIssue(&req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	shiftLabel, tod, shiftDay, err := s.attendantContext(ctx, req.Attendant, now)
	if err != nil {
		return nil, err
	}

	window, err := shift.ComputeWindow(tod, date)
	if err != nil {
		return nil, fmt.Errorf("attendant %s: %w", req.Attendant, err)
	}

	tool, err := s.tools.GetTool(ctx, req.ToolCode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrToolNotFound, req.ToolCode)
	}
	if err != nil {
		return nil, fmt.Errorf("load tool %s: %w", req.ToolCode, err)
	}
	if req.Quantity > tool.AvailableQuantity {
		metrics.OverIssuance.Inc()
		logger.Warn(ctx).
			Str("tool_code", req.ToolCode).
			Int("requested", req.Quantity).
			Int("available", tool.AvailableQuantity).
			Str("attendant", req.Attendant).
			Msg("Issuing more than the available quantity")
	}

	_, applied, err := s.ledger.ApplyDelta(ctx, req.ToolCode, -req.Quantity)
	if err != nil {
		return nil, err
	}

	desc := req.ToolDescription
	if desc == "" {
		desc = tool.Description
	}

	is := &models.Issuance{
		Date:            req.Date,
		ToolCode:        req.ToolCode,
		ToolDescription: desc,
		Quantity:        req.Quantity,
		IssuedToName:    req.IssuedToName,
		IssuedToID:      strings.TrimSpace(req.IssuedToID),
		Department:      req.Department,
		TimeOut:         req.TimeOut,
		AttendantName:   req.Attendant,
		AttendantShift:  shiftLabel,
		ShiftTimeOfDay:  tod,
		ShiftDay:        shiftDay,
		Comments:        strings.TrimSpace(req.Comments),
		Status:          models.StatusIssued,
		ShiftStartTime:  window.Start,
		ShiftEndTime:    window.End,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.issuances.CreateIssuance(ctx, is); err != nil {
		s.compensate(ctx, req.ToolCode, -applied)
		return nil, fmt.Errorf("save issuance: %w", err)
	}

	metrics.IssuanceTransitions.WithLabelValues(string(models.StatusIssued)).Inc()
	logger.Info(ctx).
		Int64("issuance_id", is.ID).
		Str("tool_code", is.ToolCode).
		Int("quantity", is.Quantity).
		Str("issued_to", is.IssuedToName).
		Str("attendant", is.AttendantName).
		Time("shift_end", is.ShiftEndTime).
		Msg("Tool issued")
	return is, nil
}

// compensate undoes a ledger delta whose issuance write failed.
func (s *Service) compensate(ctx context.Context, code string, delta int) {
	if _, _, err := s.ledger.ApplyDelta(ctx, code, delta); err != nil {
		logger.Error(ctx).Err(err).
			Str("tool_code", code).
			Int("delta", delta).
			Msg("Failed to revert ledger delta")
	}
}

func statusFor(condition string) models.IssuanceStatus {
	switch condition {
	case models.ConditionLost:
		return models.StatusLost
	case models.ConditionDamaged:
		return models.StatusDamaged
	default:
		return models.StatusReturned
	}
}

// Return closes an issued record as returned, damaged or lost. The quantity
// goes back to available stock in all three cases. The overdue flag is left
// as it was. Time in and condition are optional; a record closed without a
// condition counts as returned.
func (s *Service) Return(ctx context.Context, id int64, in ReturnInput) (*models.Issuance, error) {
	is, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if is.Status != models.StatusIssued {
		return nil, fmt.Errorf("%w: issuance %d is %s", ErrNotIssued, id, is.Status)
	}

	in.ConditionReturned = strings.TrimSpace(in.ConditionReturned)
	in.TimeIn = strings.TrimSpace(in.TimeIn)
	status := statusFor(in.ConditionReturned)

	if in.TimeIn != "" && !validClock(in.TimeIn) {
		return nil, &ValidationError{Invalid: []string{"time_in"}}
	}

	_, applied, err := s.ledger.ApplyDelta(ctx, is.ToolCode, is.Quantity)
	if err != nil {
		return nil, err
	}

	cond := in.ConditionReturned
	is.ConditionReturned = nil
	if cond != "" {
		is.ConditionReturned = &cond
	}
	is.TimeIn = nil
	if in.TimeIn != "" {
		timeIn := in.TimeIn
		is.TimeIn = &timeIn
	}
	if c := strings.TrimSpace(in.Comments); c != "" {
		is.Comments = strings.TrimSpace(is.Comments + " " + c)
	}
	is.Status = status
	is.UpdatedAt = s.now()

	if err := s.issuances.PutIssuance(ctx, is); err != nil {
		s.compensate(ctx, is.ToolCode, -applied)
		return nil, fmt.Errorf("save issuance %d: %w", id, err)
	}

	metrics.IssuanceTransitions.WithLabelValues(string(status)).Inc()
	logger.Info(ctx).
		Int64("issuance_id", is.ID).
		Str("tool_code", is.ToolCode).
		Int("quantity", is.Quantity).
		Str("condition", cond).
		Str("status", string(status)).
		Bool("was_overdue", is.IsOverdue).
		Msg("Tool returned")
	return is, nil
}

// MarkLost records the tool as lost/missing; no check-in time is kept.
func (s *Service) MarkLost(ctx context.Context, id int64, comments string) (*models.Issuance, error) {
	return s.Return(ctx, id, ReturnInput{ConditionReturned: models.ConditionLost, Comments: comments})
}

// ClearOverdue silences the overdue alert of any record. Stock is not
// touched. Clearing an already cleared record returns it unchanged.
func (s *Service) ClearOverdue(ctx context.Context, id int64) (*models.Issuance, error) {
	is, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if is.Status == models.StatusClearedOverdue {
		return is, nil
	}

	prev := is.Status
	is.Status = models.StatusClearedOverdue
	is.UpdatedAt = s.now()
	if err := s.issuances.PutIssuance(ctx, is); err != nil {
		return nil, fmt.Errorf("save issuance %d: %w", id, err)
	}

	metrics.IssuanceTransitions.WithLabelValues(string(models.StatusClearedOverdue)).Inc()
	logger.Info(ctx).
		Int64("issuance_id", is.ID).
		Str("previous_status", string(prev)).
		Bool("is_overdue", is.IsOverdue).
		Msg("Overdue status cleared")
	return is, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Issuance, error) {
	is, err := s.issuances.GetIssuance(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrIssuanceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load issuance %d: %w", id, err)
	}
	return is, nil
}

func (s *Service) List(ctx context.Context, f store.IssuanceFilter) ([]models.Issuance, error) {
	return s.issuances.ListIssuances(ctx, f)
}

// ListOverdue returns the flagged records whose alert has not been cleared,
// most recently flagged first.
func (s *Service) ListOverdue(ctx context.Context, now time.Time) ([]OverdueIssuance, error) {
	rows, err := s.issuances.ListIssuances(ctx, store.IssuanceFilter{Overdue: store.Bool(true)})
	if err != nil {
		return nil, err
	}

	out := make([]OverdueIssuance, 0, len(rows))
	for _, is := range rows {
		if is.Status == models.StatusClearedOverdue {
			continue
		}
		out = append(out, OverdueIssuance{Issuance: is, HoursOverdue: HoursOverdue(is.ShiftEndTime, now)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].OverdueSince, out[j].OverdueSince
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.After(*b)
	})
	return out, nil
}

// HoursOverdue is the time past end in hours, to one decimal place.
func HoursOverdue(end, now time.Time) decimal.Decimal {
	if !now.After(end) {
		return decimal.Zero
	}
	ms := decimal.NewFromInt(now.Sub(end).Milliseconds())
	return ms.Div(decimal.NewFromInt(int64(time.Hour / time.Millisecond))).Round(1)
}
