// models/tool.go
package models

import "time"

const ToolTable = "tools"

type Tool struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Code              string    `gorm:"column:tool_code;size:100;uniqueIndex;not null" json:"tool_code"`
	Description       string    `gorm:"type:text;not null" json:"description"`
	Quantity          int       `gorm:"not null;default:0" json:"quantity"`
	AvailableQuantity int       `gorm:"not null;default:0" json:"available_quantity"` // only moved by the ledger
	CreatedAt         time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

func (Tool) TableName() string { return ToolTable }
