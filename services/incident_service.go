package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"guardian-angel-http-service/config"
	"guardian-angel-http-service/models"
)

// InterfaceIncidentService defines the incident report service interface
type InterfaceIncidentService interface {
	CreateReport(report *models.IncidentReport) error
	GetReportByID(reportID uint) (*models.IncidentReport, error)
	ListReports(pagination *models.PaginationQuery) ([]models.IncidentReport, int64, error)
	ListNearby(lat, lng, radiusMeters float64, since time.Duration) ([]models.IncidentReport, error)
	Upvote(reportID uint) error
	Resolve(reportID uint) error
	ListSafeHavens(lat, lng, radiusMeters float64) ([]models.SafeHaven, error)
	ListHelpers(onlyAvailable bool) ([]models.Helper, error)
}

// IncidentService 社区事件上报服务
type IncidentService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewIncidentService 创建新的事件上报服务
func NewIncidentService(db *gorm.DB, cfg *config.Config) InterfaceIncidentService {
	return &IncidentService{
		DB:     db,
		Config: cfg,
	}
}

// CreateReport 创建事件上报
func (s *IncidentService) CreateReport(report *models.IncidentReport) error {
	if report.Category == "" {
		return errors.New("事件类别不能为空")
	}
	if report.Severity == "" {
		report.Severity = models.SeverityMedium
	}
	if err := s.DB.Create(report).Error; err != nil {
		return fmt.Errorf("创建事件上报失败: %v", err)
	}
	return nil
}

// GetReportByID 获取单个事件
func (s *IncidentService) GetReportByID(reportID uint) (*models.IncidentReport, error) {
	var report models.IncidentReport
	err := s.DB.First(&report, reportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("事件不存在")
	}
	if err != nil {
		return nil, fmt.Errorf("查询事件失败: %v", err)
	}
	return &report, nil
}

// ListReports 分页获取事件列表
func (s *IncidentService) ListReports(pagination *models.PaginationQuery) ([]models.IncidentReport, int64, error) {
	var reports []models.IncidentReport
	var total int64

	query := s.DB.Model(&models.IncidentReport{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计事件数量失败: %v", err)
	}

	offset := (pagination.PageNum - 1) * pagination.PageSize
	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(pagination.PageSize).
		Find(&reports).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询事件列表失败: %v", err)
	}
	return reports, total, nil
}

// ListNearby 查询附近一段时间内的事件，按距离排序
func (s *IncidentService) ListNearby(lat, lng, radiusMeters float64, since time.Duration) ([]models.IncidentReport, error) {
	var reports []models.IncidentReport
	cutoff := time.Now().Add(-since)

	// 先按时间过滤，再在内存中做半径过滤
	err := s.DB.Where("created_at > ?", cutoff).Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("查询附近事件失败: %v", err)
	}

	nearby := make([]models.IncidentReport, 0, len(reports))
	for _, r := range reports {
		if models.HaversineMeters(lat, lng, r.Latitude, r.Longitude) <= radiusMeters {
			nearby = append(nearby, r)
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		di := models.HaversineMeters(lat, lng, nearby[i].Latitude, nearby[i].Longitude)
		dj := models.HaversineMeters(lat, lng, nearby[j].Latitude, nearby[j].Longitude)
		return di < dj
	})
	return nearby, nil
}

// Upvote 事件点赞确认
func (s *IncidentService) Upvote(reportID uint) error {
	result := s.DB.Model(&models.IncidentReport{}).
		Where("id = ?", reportID).
		UpdateColumn("upvotes", gorm.Expr("upvotes + 1"))
	if result.Error != nil {
		return fmt.Errorf("事件点赞失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("事件不存在")
	}
	return nil
}

// Resolve 标记事件已解决
func (s *IncidentService) Resolve(reportID uint) error {
	result := s.DB.Model(&models.IncidentReport{}).
		Where("id = ?", reportID).
		Update("resolved", true)
	if result.Error != nil {
		return fmt.Errorf("更新事件状态失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("事件不存在")
	}
	return nil
}

// ListSafeHavens 查询附近的安全场所，按距离排序
func (s *IncidentService) ListSafeHavens(lat, lng, radiusMeters float64) ([]models.SafeHaven, error) {
	var havens []models.SafeHaven
	if err := s.DB.Find(&havens).Error; err != nil {
		return nil, fmt.Errorf("查询安全场所失败: %v", err)
	}

	nearby := make([]models.SafeHaven, 0, len(havens))
	for _, h := range havens {
		if models.HaversineMeters(lat, lng, h.Latitude, h.Longitude) <= radiusMeters {
			nearby = append(nearby, h)
		}
	}

	sort.Slice(nearby, func(i, j int) bool {
		di := models.HaversineMeters(lat, lng, nearby[i].Latitude, nearby[i].Longitude)
		dj := models.HaversineMeters(lat, lng, nearby[j].Latitude, nearby[j].Longitude)
		return di < dj
	})
	return nearby, nil
}

// ListHelpers 查询社区帮助者
func (s *IncidentService) ListHelpers(onlyAvailable bool) ([]models.Helper, error) {
	var helpers []models.Helper
	query := s.DB.Model(&models.Helper{})
	if onlyAvailable {
		query = query.Where("available = ?", true)
	}
	err := query.Order("rating DESC").Find(&helpers).Error
	if err != nil {
		return nil, fmt.Errorf("查询帮助者失败: %v", err)
	}
	return helpers, nil
}
