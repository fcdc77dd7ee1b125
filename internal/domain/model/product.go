package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// チェックアウトが参照するカタログ（名前・単価のスナップショット元）
type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsAvailable bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"`
}
