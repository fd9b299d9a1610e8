package models

import (
	"time"
)

// IncidentSeverity 事件严重程度
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "low"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityHigh     IncidentSeverity = "high"
	SeverityCritical IncidentSeverity = "critical"
)

// IncidentReport 社区安全事件上报
type IncidentReport struct {
	BaseModel
	Category    string           `gorm:"type:varchar(30);not null" json:"category"` // 如：theft(盗窃)、harassment(骚扰)、scam(诈骗)等
	Severity    IncidentSeverity `gorm:"type:varchar(10);not null" json:"severity"`
	Description string           `gorm:"type:text" json:"description"`
	Location    string           `gorm:"type:varchar(100)" json:"location"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	ReportedBy  uint             `json:"reported_by"` // 0表示匿名上报
	Anonymous   bool             `gorm:"default:false" json:"anonymous"`
	Resolved    bool             `gorm:"default:false" json:"resolved"`
	Upvotes     int              `gorm:"default:0" json:"upvotes"`
}

// SafeHaven 已验证的安全场所（警局、医院、使馆等）
type SafeHaven struct {
	BaseModel
	Name          string  `gorm:"type:varchar(100);not null" json:"name"`
	Type          string  `gorm:"type:varchar(20);not null" json:"type"` // police/hospital/embassy/hotel/store
	Verified      bool    `gorm:"default:false" json:"verified"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Open          bool    `gorm:"default:true" json:"open"`
	Hours         string  `gorm:"type:varchar(50)" json:"hours"`
	Languages     string  `gorm:"type:varchar(100)" json:"languages"` // 逗号分隔
	Accessibility bool    `gorm:"default:false" json:"accessibility"`
	Phone         string  `gorm:"type:varchar(20)" json:"phone"`
	Rating        float64 `gorm:"default:0" json:"rating"`
}

// Helper 社区志愿协助者
type Helper struct {
	BaseModel
	Name        string    `gorm:"type:varchar(50);not null" json:"name"`
	Verified    bool      `gorm:"default:false" json:"verified"`
	Available   bool      `gorm:"default:false" json:"available"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Languages   string    `gorm:"type:varchar(100)" json:"languages"`
	Specialties string    `gorm:"type:varchar(200)" json:"specialties"`
	Rating      float64   `gorm:"default:0" json:"rating"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}
