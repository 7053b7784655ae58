package model

import (
	"time"
)

const NameMaxLength = 255

type Duty struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" db:"id" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" db:"name" json:"name"`
	CreatedAt time.Time `gorm:"column:createdAt;autoCreateTime" db:"createdAt" json:"createdAt"`
}

func (Duty) TableName() string {
	return "duties"
}

// DutyCreate is the payload accepted on create and update.
type DutyCreate struct {
	Name string `json:"name"`
}
