package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RuleEvent is one saved version of a table's DQ rule set. Rows are never
// updated after insert except for the is_active flag, and never deleted.
type RuleEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Table      string         `gorm:"column:table_name;type:varchar(500);not null;uniqueIndex:uq_dq_rule_events_table_version,priority:1;index:idx_dq_rule_events_table_name;index:idx_dq_rule_events_active,priority:1" json:"table_name"`
	Version    int            `gorm:"column:version;not null;uniqueIndex:uq_dq_rule_events_table_version,priority:2" json:"version"`
	Rules      datatypes.JSON `gorm:"column:rules;type:jsonb;not null" json:"rules"`
	UserPrompt string         `gorm:"column:user_prompt;type:text" json:"user_prompt"`
	AISummary  datatypes.JSON `gorm:"column:ai_summary;type:jsonb" json:"ai_summary,omitempty"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	CreatedBy  string         `gorm:"column:created_by;type:varchar(255)" json:"created_by"`
	IsActive   bool           `gorm:"column:is_active;not null;default:true;index:idx_dq_rule_events_active,priority:2" json:"is_active"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
}

func (RuleEvent) TableName() string { return "dq_rule_events" }
