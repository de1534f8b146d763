package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// JSONMap is a jsonb column holding arbitrary structured metadata.
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to assert jsonb value to byte slice")
	}

	return json.Unmarshal(bytes, &j)
}

// SystemLog represents a record in the system_logs audit table. Trade
// resolutions and bot lifecycle changes each leave a row.
type SystemLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    string    `gorm:"column:user_id;size:64;index" json:"user_id"`
	Network   string    `gorm:"column:network;size:8" json:"network"`
	Level     string    `gorm:"column:level;size:10;not null" json:"level"` // DEBUG, INFO, WARN, ERROR
	Message   string    `gorm:"column:message;type:text;not null" json:"message"`
	Module    string    `gorm:"column:module;size:100" json:"module"`
	Meta      JSONMap   `gorm:"column:meta;type:jsonb" json:"meta"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SystemLog) TableName() string {
	return "system_logs"
}
