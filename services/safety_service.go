package services

import (
	"time"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// SafetyScore 区域安全评分
type SafetyScore struct {
	Score     int      `json:"score"` // 0-100，越高越安全
	Level     string   `json:"level"` // green/yellow/orange/red
	Incidents int      `json:"incidents"`
	Reasons   []string `json:"reasons,omitempty"`
}

// InterfaceSafetyService defines the area safety scoring interface
type InterfaceSafetyService interface {
	ScoreArea(lat, lng, radiusMeters float64) (*SafetyScore, error)
}

// SafetyService 根据附近事件计算区域安全评分
type SafetyService struct {
	Config    *config.Config
	Incidents InterfaceIncidentService
}

// NewSafetyService 创建新的安全评分服务
func NewSafetyService(cfg *config.Config, incidents InterfaceIncidentService) InterfaceSafetyService {
	return &SafetyService{
		Config:    cfg,
		Incidents: incidents,
	}
}

// 各严重程度的基础扣分
var severityWeights = map[models.IncidentSeverity]float64{
	models.SeverityLow:      2,
	models.SeverityMedium:   5,
	models.SeverityHigh:     10,
	models.SeverityCritical: 20,
}

// ScoreArea 计算指定坐标周边的安全评分
// 最近7天内的事件按严重程度扣分，事件越久远权重越低，已解决的事件减半
func (s *SafetyService) ScoreArea(lat, lng, radiusMeters float64) (*SafetyScore, error) {
	window := 7 * 24 * time.Hour
	reports, err := s.Incidents.ListNearby(lat, lng, radiusMeters, window)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	penalty := 0.0
	reasons := []string{}

	for _, r := range reports {
		weight, ok := severityWeights[r.Severity]
		if !ok {
			weight = severityWeights[models.SeverityMedium]
		}

		// 时间衰减：刚发生的事件权重1.0，窗口末端衰减到0.2
		age := now.Sub(r.CreatedAt)
		decay := 1.0 - 0.8*(float64(age)/float64(window))
		if decay < 0.2 {
			decay = 0.2
		}

		if r.Resolved {
			weight /= 2
		}

		penalty += weight * decay

		if r.Severity == models.SeverityHigh || r.Severity == models.SeverityCritical {
			reasons = append(reasons, r.Category)
		}
	}

	score := 100 - int(penalty)
	if score < 0 {
		score = 0
	}

	return &SafetyScore{
		Score:     score,
		Level:     scoreLevel(score),
		Incidents: len(reports),
		Reasons:   reasons,
	}, nil
}

func scoreLevel(score int) string {
	switch {
	case score >= 80:
		return "green"
	case score >= 60:
		return "yellow"
	case score >= 40:
		return "orange"
	default:
		return "red"
	}
}
