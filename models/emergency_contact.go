package models

import (
	"time"
)

// EmergencyContact 表示紧急联系人信息
type EmergencyContact struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index" json:"user_id"`
	Name         string    `gorm:"type:varchar(50);not null" json:"name"`
	PhoneNumber  string    `gorm:"type:varchar(20);not null" json:"phone_number"`
	Email        string    `gorm:"type:varchar(100)" json:"email,omitempty"`
	Relationship string    `gorm:"type:varchar(30)" json:"relationship"` // 如：配偶、父母、朋友等
	Priority     int       `gorm:"default:0" json:"priority"`            // 联系优先级，数字越大优先级越高
	Verified     bool      `gorm:"default:false" json:"verified"`        // 是否已验证可达
	Remark       string    `gorm:"type:text" json:"remark,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
