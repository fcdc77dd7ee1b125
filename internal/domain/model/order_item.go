package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文時点の商品名・単価を保存（以後カタログが変わっても更新しない）
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"not null;index"`
	ProductID   int64           `gorm:"not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int64           `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}
