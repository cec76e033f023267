// models/issuance.go
package models

import (
	"time"

	"Gin_postgres_redis_tool_issuance/shift"
)

const IssuanceTable = "tool_issuances"

// Calendar date and clock layouts of Issuance.Date, TimeOut and TimeIn.
const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	ClockLayoutSecs = "15:04:05"
)

type IssuanceStatus string

const (
	StatusIssued         IssuanceStatus = "issued"
	StatusReturned       IssuanceStatus = "returned"
	StatusLost           IssuanceStatus = "lost"
	StatusDamaged        IssuanceStatus = "damaged"
	StatusClearedOverdue IssuanceStatus = "cleared_overdue"
)

func (s IssuanceStatus) Terminal() bool { return s != StatusIssued }

// Conditions an attendant can record on return.
const (
	ConditionGood        = "Good"
	ConditionFair        = "Fair"
	ConditionNeedsRepair = "Needs Repair"
	ConditionDamaged     = "Damaged"
	ConditionLost        = "Lost/Missing"
)

type Issuance struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Date            string `gorm:"size:10;index;not null" json:"date"`
	ToolCode        string `gorm:"size:100;index;not null" json:"tool_code"`
	ToolDescription string `gorm:"type:text" json:"tool_description"`
	Quantity        int    `gorm:"not null" json:"quantity"`

	IssuedToName string `gorm:"size:255;not null" json:"issued_to_name"`
	IssuedToID   string `gorm:"size:100" json:"issued_to_id"`
	Department   string `gorm:"size:100;not null" json:"department"`

	TimeOut           string  `gorm:"size:8;not null" json:"time_out"`
	TimeIn            *string `gorm:"size:8" json:"time_in"`
	ConditionReturned *string `gorm:"size:100" json:"condition_returned"`

	AttendantName  string          `gorm:"size:255;index;not null" json:"attendant_name"`
	AttendantShift string          `gorm:"size:10" json:"attendant_shift"`
	ShiftTimeOfDay shift.TimeOfDay `gorm:"column:shift_time;size:20" json:"shift_time"`
	ShiftDay       int             `json:"shift_day"`
	Comments       string          `gorm:"type:text" json:"comments"`

	Status       IssuanceStatus `gorm:"size:50;index;not null;default:'issued'" json:"status"`
	IsOverdue    bool           `gorm:"index;not null;default:false" json:"is_overdue"`
	OverdueSince *time.Time     `json:"overdue_since"`

	// Fixed when the issuance is created.
	ShiftStartTime time.Time `gorm:"not null" json:"shift_start_time"`
	ShiftEndTime   time.Time `gorm:"index;not null" json:"shift_end_time"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (Issuance) TableName() string { return IssuanceTable }
