package model

import "time"

type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//注文の顧客情報を修正した操作。
	AuditActionUpdateOrderDetails AuditAction = "UPDATE_ORDER_DETAILS"
	//店舗設定を更新した操作。
	AuditActionUpdateSettings AuditAction = "UPDATE_SETTINGS"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceSetting AuditResourceType = "setting"
)

// 誰が操作したか
type AuditActorType string

const (
	AuditActorStaff  AuditActorType = "staff"
	AuditActorSystem AuditActorType = "system"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//systemの場合はnil
	ActorUserID *int64         `gorm:"index" json:"actor_user_id"`
	ActorType   AuditActorType `gorm:"type:varchar(20);not null" json:"actor_type"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
