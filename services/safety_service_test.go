package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardian-angel-http-service/models"
)

// stubIncidents 固定返回一组附近事件
type stubIncidents struct {
	reports []models.IncidentReport
}

func (s *stubIncidents) CreateReport(report *models.IncidentReport) error     { return nil }
func (s *stubIncidents) GetReportByID(id uint) (*models.IncidentReport, error) { return nil, nil }
func (s *stubIncidents) ListReports(p *models.PaginationQuery) ([]models.IncidentReport, int64, error) {
	return s.reports, int64(len(s.reports)), nil
}
func (s *stubIncidents) ListNearby(lat, lng, radiusMeters float64, since time.Duration) ([]models.IncidentReport, error) {
	return s.reports, nil
}
func (s *stubIncidents) Upvote(id uint) error  { return nil }
func (s *stubIncidents) Resolve(id uint) error { return nil }
func (s *stubIncidents) ListSafeHavens(lat, lng, radiusMeters float64) ([]models.SafeHaven, error) {
	return nil, nil
}
func (s *stubIncidents) ListHelpers(onlyAvailable bool) ([]models.Helper, error) { return nil, nil }

func incidentAt(severity models.IncidentSeverity, age time.Duration, resolved bool, category string) models.IncidentReport {
	return models.IncidentReport{
		BaseModel: models.BaseModel{CreatedAt: time.Now().Add(-age)},
		Category:  category,
		Severity:  severity,
		Resolved:  resolved,
	}
}

func TestScoreAreaEmptyIsGreen(t *testing.T) {
	svc := NewSafetyService(testConfig(), &stubIncidents{})

	score, err := svc.ScoreArea(39.9, 116.4, 500)
	require.NoError(t, err)

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, "green", score.Level)
	assert.Zero(t, score.Incidents)
}

func TestScoreAreaPenalizesBySeverity(t *testing.T) {
	svc := NewSafetyService(testConfig(), &stubIncidents{reports: []models.IncidentReport{
		incidentAt(models.SeverityCritical, time.Hour, false, "assault"),
		incidentAt(models.SeverityHigh, time.Hour, false, "robbery"),
		incidentAt(models.SeverityLow, time.Hour, false, "noise"),
	}})

	score, err := svc.ScoreArea(39.9, 116.4, 500)
	require.NoError(t, err)

	// 刚发生的critical+high+low ≈ 32分扣减
	assert.Less(t, score.Score, 80)
	assert.Equal(t, 3, score.Incidents)

	// 高危事件的类别进入原因列表
	assert.Contains(t, score.Reasons, "assault")
	assert.Contains(t, score.Reasons, "robbery")
	assert.NotContains(t, score.Reasons, "noise")
}

func TestScoreAreaDecaysOldIncidents(t *testing.T) {
	fresh := NewSafetyService(testConfig(), &stubIncidents{reports: []models.IncidentReport{
		incidentAt(models.SeverityCritical, time.Hour, false, "assault"),
	}})
	old := NewSafetyService(testConfig(), &stubIncidents{reports: []models.IncidentReport{
		incidentAt(models.SeverityCritical, 6*24*time.Hour, false, "assault"),
	}})

	freshScore, err := fresh.ScoreArea(39.9, 116.4, 500)
	require.NoError(t, err)
	oldScore, err := old.ScoreArea(39.9, 116.4, 500)
	require.NoError(t, err)

	// 越久远的事件扣分越少
	assert.Greater(t, oldScore.Score, freshScore.Score)
}

func TestScoreAreaHalvesResolvedIncidents(t *testing.T) {
	active := NewSafetyService(testConfig(), &stubIncidents{reports: []models.IncidentReport{
		incidentAt(models.SeverityCritical, time.Hour, false, "assault"),
	}})
	resolved := NewSafetyService(testConfig(), &stubIncidents{reports: []models.IncidentReport{
		incidentAt(models.SeverityCritical, time.Hour, true, "assault"),
	}})

	activeScore, err := active.ScoreArea(39.9, 116.4, 500)
	require.NoError(t, err)
	resolvedScore, err := resolved.ScoreArea(39.9, 116.4, 500)
	require.NoError(t, err)

	assert.Greater(t, resolvedScore.Score, activeScore.Score)
}

func TestScoreLevelBoundaries(t *testing.T) {
	assert.Equal(t, "green", scoreLevel(80))
	assert.Equal(t, "yellow", scoreLevel(79))
	assert.Equal(t, "yellow", scoreLevel(60))
	assert.Equal(t, "orange", scoreLevel(59))
	assert.Equal(t, "orange", scoreLevel(40))
	assert.Equal(t, "red", scoreLevel(39))
	assert.Equal(t, "red", scoreLevel(0))
}
