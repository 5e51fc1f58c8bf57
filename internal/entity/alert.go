package entity

import (
	"time"
)

// Alert is one fired volume-spike detection.
type Alert struct {
	Id          int64  `gorm:"primaryKey;autoIncrement"`
	Symbol      string `gorm:"index"`
	VolumeRatio float64
	PctAboveLow float64
	Price       string
	Source      string
	Delivered   bool      `gorm:"index"`
	CreatedAt   time.Time `gorm:"index"`
}
