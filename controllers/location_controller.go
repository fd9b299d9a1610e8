package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"guardian-angel-http-service/internal/error/code"
	"guardian-angel-http-service/internal/error/response"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/services"
	"guardian-angel-http-service/services/container"
)

// LocationController 处理位置相关的请求
type LocationController struct {
	BaseControllerImpl
}

// NewLocationController 创建一个新的位置控制器
func (f *ControllerFactory) NewLocationController(ctx *gin.Context) *LocationController {
	return &LocationController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// PositionRequest 位置上报请求
type PositionRequest struct {
	Latitude       float64 `json:"latitude" binding:"required" example:"39.9042"`
	Longitude      float64 `json:"longitude" binding:"required" example:"116.4074"`
	AccuracyMeters float64 `json:"accuracy_meters" example:"15"`
}

// ShareRequest 创建位置共享请求
type ShareRequest struct {
	Recipients      []string `json:"recipients" example:"13800138000"`
	DurationMinutes int      `json:"duration_minutes" example:"30"`
	IsPublic        bool     `json:"is_public" example:"false"`
}

// SafeZoneRequest 安全区创建请求
type SafeZoneRequest struct {
	Name         string  `json:"name" binding:"required" example:"家"`
	Latitude     float64 `json:"latitude" binding:"required" example:"39.9042"`
	Longitude    float64 `json:"longitude" binding:"required" example:"116.4074"`
	RadiusMeters float64 `json:"radius_meters" example:"200"`
	NotifyEnter  bool    `json:"notify_on_enter" example:"false"`
	NotifyExit   bool    `json:"notify_on_exit" example:"true"`
}

func (c *LocationController) locationService() services.InterfaceLocationService {
	return c.Container.GetService("location").(services.InterfaceLocationService)
}

// UpdatePosition 上报位置
// @Summary      上报当前位置
// @Description  上报设备当前位置，返回命中的安全区状态
// @Tags         Location
// @Accept       json
// @Produce      json
// @Param        request body PositionRequest true "位置信息"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /location/position [post]
func (c *LocationController) UpdatePosition() {
	var req PositionRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	pos := &models.Position{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		Timestamp:      time.Now(),
	}

	userID := currentUserID(c.Context)
	transitions, err := c.locationService().UpdatePosition(userID, pos)
	if err != nil {
		response.Fail(c.Context, code.ErrUnknown, nil)
		return
	}

	response.Success(c.Context, gin.H{
		"position": pos,
		"zones":    transitions,
	})
}

// CreateShare 创建位置共享
// @Summary      创建实时位置共享
// @Description  生成共享令牌，接收方可在有效期内通过令牌查看共享者位置
// @Tags         Location
// @Accept       json
// @Produce      json
// @Param        request body ShareRequest true "共享参数"
// @Success      200  {object}  response.Response
// @Router       /location/shares [post]
func (c *LocationController) CreateShare() {
	var req ShareRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	userID := currentUserID(c.Context)
	share, err := c.locationService().CreateShare(userID, req.Recipients, duration, req.IsPublic)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, share)
}

// GetShare 查看共享位置
// @Summary      通过令牌查看共享位置
// @Description  接收方通过共享令牌查看共享详情和共享者当前位置，无需认证
// @Tags         Location
// @Produce      json
// @Param        token  path  string  true  "共享令牌"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /location/shares/{token} [get]
func (c *LocationController) GetShare() {
	token := c.Context.Param("token")
	share, pos, err := c.locationService().GetShareByToken(token)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrShareNotFound, err.Error(), nil)
		return
	}
	response.Success(c.Context, gin.H{
		"share":    share,
		"position": pos,
	})
}

// StopShare 停止位置共享
// @Summary      停止位置共享
// @Tags         Location
// @Produce      json
// @Param        token  path  string  true  "共享令牌"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /location/shares/{token} [delete]
func (c *LocationController) StopShare() {
	token := c.Context.Param("token")
	userID := currentUserID(c.Context)
	if err := c.locationService().StopShare(userID, token); err != nil {
		response.FailWithMessage(c.Context, code.ErrShareNotFound, err.Error(), nil)
		return
	}
	response.Success(c.Context, nil)
}

// ListShares 列出进行中的共享
// @Summary      列出当前有效的位置共享
// @Tags         Location
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /location/shares [get]
func (c *LocationController) ListShares() {
	userID := currentUserID(c.Context)
	shares, err := c.locationService().ListActiveShares(userID)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, shares)
}

// CreateSafeZone 创建安全区
// @Summary      创建安全区
// @Tags         Location
// @Accept       json
// @Produce      json
// @Param        request body SafeZoneRequest true "安全区参数"
// @Success      200  {object}  response.Response
// @Router       /location/zones [post]
func (c *LocationController) CreateSafeZone() {
	var req SafeZoneRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	zone := &models.SafeZone{
		UserID:        currentUserID(c.Context),
		Name:          req.Name,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		RadiusMeters:  req.RadiusMeters,
		Enabled:       true,
		NotifyOnEnter: req.NotifyEnter,
		NotifyOnExit:  req.NotifyExit,
	}

	if err := c.locationService().CreateSafeZone(zone); err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, err.Error(), nil)
		return
	}
	response.Success(c.Context, zone)
}

// ListSafeZones 列出安全区
// @Summary      列出安全区
// @Tags         Location
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /location/zones [get]
func (c *LocationController) ListSafeZones() {
	userID := currentUserID(c.Context)
	zones, err := c.locationService().ListSafeZones(userID)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, zones)
}

// UpdateSafeZone 更新安全区
// @Summary      更新安全区
// @Tags         Location
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "安全区ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /location/zones/{id} [put]
func (c *LocationController) UpdateSafeZone() {
	zoneID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的安全区ID", nil)
		return
	}

	var updates map[string]interface{}
	if err := c.Context.ShouldBindJSON(&updates); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	zone, err := c.locationService().UpdateSafeZone(userID, uint(zoneID), updates)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrSafeZoneNotFound, err.Error(), nil)
		return
	}
	response.Success(c.Context, zone)
}

// DeleteSafeZone 删除安全区
// @Summary      删除安全区
// @Tags         Location
// @Produce      json
// @Param        id  path  int  true  "安全区ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /location/zones/{id} [delete]
func (c *LocationController) DeleteSafeZone() {
	zoneID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的安全区ID", nil)
		return
	}

	userID := currentUserID(c.Context)
	if err := c.locationService().DeleteSafeZone(userID, uint(zoneID)); err != nil {
		response.Fail(c.Context, code.ErrSafeZoneNotFound, nil)
		return
	}
	response.Success(c.Context, nil)
}

// HandleLocationFunc 返回一个处理位置请求的Gin处理函数
func HandleLocationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewLocationController(ctx)

		switch method {
		case "updatePosition":
			controller.UpdatePosition()
		case "createShare":
			controller.CreateShare()
		case "getShare":
			controller.GetShare()
		case "stopShare":
			controller.StopShare()
		case "listShares":
			controller.ListShares()
		case "createSafeZone":
			controller.CreateSafeZone()
		case "listSafeZones":
			controller.ListSafeZones()
		case "updateSafeZone":
			controller.UpdateSafeZone()
		case "deleteSafeZone":
			controller.DeleteSafeZone()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
