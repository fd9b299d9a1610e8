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

// IncidentController 处理社区事件上报相关的请求
type IncidentController struct {
	BaseControllerImpl
}

// NewIncidentController 创建一个新的事件上报控制器
func (f *ControllerFactory) NewIncidentController(ctx *gin.Context) *IncidentController {
	return &IncidentController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// IncidentRequest 事件上报请求
type IncidentRequest struct {
	Category    string  `json:"category" binding:"required" example:"harassment"`
	Severity    string  `json:"severity" example:"medium"`
	Description string  `json:"description" example:"地铁站出口有人尾随"`
	Location    string  `json:"location" example:"2号线某站B口"`
	Latitude    float64 `json:"latitude" binding:"required" example:"39.9042"`
	Longitude   float64 `json:"longitude" binding:"required" example:"116.4074"`
	Anonymous   bool    `json:"anonymous" example:"false"`
}

// nearbyQuery 附近查询参数
type nearbyQuery struct {
	Latitude     float64 `form:"lat" binding:"required"`
	Longitude    float64 `form:"lng" binding:"required"`
	RadiusMeters float64 `form:"radius"`
}

func (c *IncidentController) incidentService() services.InterfaceIncidentService {
	return c.Container.GetService("incident").(services.InterfaceIncidentService)
}

// CreateReport 上报事件
// @Summary      上报社区安全事件
// @Tags         Incident
// @Accept       json
// @Produce      json
// @Param        request body IncidentRequest true "事件信息"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /incidents [post]
func (c *IncidentController) CreateReport() {
	var req IncidentRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	report := &models.IncidentReport{
		Category:    req.Category,
		Severity:    models.IncidentSeverity(req.Severity),
		Description: req.Description,
		Location:    req.Location,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Anonymous:   req.Anonymous,
	}
	if !req.Anonymous {
		report.ReportedBy = currentUserID(c.Context)
	}

	if err := c.incidentService().CreateReport(report); err != nil {
		response.FailWithMessage(c.Context, code.ErrIncidentInvalid, err.Error(), nil)
		return
	}
	response.Success(c.Context, report)
}

// ListReports 分页查询事件
// @Summary      分页查询事件列表
// @Tags         Incident
// @Produce      json
// @Param        pageNum   query  int  false  "页码"
// @Param        pageSize  query  int  false  "每页数量"
// @Success      200  {object}  response.Response
// @Router       /incidents [get]
func (c *IncidentController) ListReports() {
	var pagination models.PaginationQuery
	if err := c.Context.ShouldBindQuery(&pagination); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的分页参数", nil)
		return
	}
	pagination.Normalize()

	reports, total, err := c.incidentService().ListReports(&pagination)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Context, gin.H{
		"list":       reports,
		"pagination": models.NewPaginationResult(int(total), pagination.PageNum, pagination.PageSize),
	})
}

// ListNearby 查询附近事件
// @Summary      查询附近7天内的事件
// @Tags         Incident
// @Produce      json
// @Param        lat     query  number  true   "纬度"
// @Param        lng     query  number  true   "经度"
// @Param        radius  query  number  false  "半径（米），默认1000"
// @Success      200  {object}  response.Response
// @Router       /incidents/nearby [get]
func (c *IncidentController) ListNearby() {
	var query nearbyQuery
	if err := c.Context.ShouldBindQuery(&query); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的查询参数", nil)
		return
	}
	if query.RadiusMeters <= 0 {
		query.RadiusMeters = 1000
	}

	reports, err := c.incidentService().ListNearby(query.Latitude, query.Longitude, query.RadiusMeters, 7*24*time.Hour)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, reports)
}

// Upvote 事件点赞确认
// @Summary      确认事件（点赞）
// @Tags         Incident
// @Produce      json
// @Param        id  path  int  true  "事件ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /incidents/{id}/upvote [post]
func (c *IncidentController) Upvote() {
	reportID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的事件ID", nil)
		return
	}

	if err := c.incidentService().Upvote(uint(reportID)); err != nil {
		response.Fail(c.Context, code.ErrIncidentNotFound, nil)
		return
	}
	response.Success(c.Context, nil)
}

// Resolve 标记事件已解决
// @Summary      标记事件已解决
// @Tags         Incident
// @Produce      json
// @Param        id  path  int  true  "事件ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /incidents/{id}/resolve [post]
func (c *IncidentController) Resolve() {
	reportID, err := strconv.ParseUint(c.Context.Param("id"), 10, 32)
	if err != nil {
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的事件ID", nil)
		return
	}

	if err := c.incidentService().Resolve(uint(reportID)); err != nil {
		response.Fail(c.Context, code.ErrIncidentNotFound, nil)
		return
	}
	response.Success(c.Context, nil)
}

// SafetyScore 查询区域安全评分
// @Summary      查询区域安全评分
// @Description  根据附近7天内的事件按严重程度和时间衰减计算0-100的安全评分
// @Tags         Incident
// @Produce      json
// @Param        lat     query  number  true   "纬度"
// @Param        lng     query  number  true   "经度"
// @Param        radius  query  number  false  "半径（米），默认1000"
// @Success      200  {object}  response.Response
// @Router       /incidents/safety-score [get]
func (c *IncidentController) SafetyScore() {
	var query nearbyQuery
	if err := c.Context.ShouldBindQuery(&query); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的查询参数", nil)
		return
	}
	if query.RadiusMeters <= 0 {
		query.RadiusMeters = 1000
	}

	safetyService := c.Container.GetService("safety").(services.InterfaceSafetyService)
	score, err := safetyService.ScoreArea(query.Latitude, query.Longitude, query.RadiusMeters)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, score)
}

// SafeHavens 查询附近安全场所
// @Summary      查询附近安全场所
// @Tags         Incident
// @Produce      json
// @Param        lat     query  number  true   "纬度"
// @Param        lng     query  number  true   "经度"
// @Param        radius  query  number  false  "半径（米），默认2000"
// @Success      200  {object}  response.Response
// @Router       /incidents/safe-havens [get]
func (c *IncidentController) SafeHavens() {
	var query nearbyQuery
	if err := c.Context.ShouldBindQuery(&query); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的查询参数", nil)
		return
	}
	if query.RadiusMeters <= 0 {
		query.RadiusMeters = 2000
	}

	havens, err := c.incidentService().ListSafeHavens(query.Latitude, query.Longitude, query.RadiusMeters)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, havens)
}

// Helpers 查询社区帮助者
// @Summary      查询社区帮助者
// @Tags         Incident
// @Produce      json
// @Param        available  query  bool  false  "只看当前可用"
// @Success      200  {object}  response.Response
// @Router       /incidents/helpers [get]
func (c *IncidentController) Helpers() {
	onlyAvailable := c.Context.Query("available") == "true"

	helpers, err := c.incidentService().ListHelpers(onlyAvailable)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, helpers)
}

// HandleIncidentFunc 返回一个处理事件上报请求的Gin处理函数
func HandleIncidentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewIncidentController(ctx)

		switch method {
		case "createReport":
			controller.CreateReport()
		case "listReports":
			controller.ListReports()
		case "listNearby":
			controller.ListNearby()
		case "upvote":
			controller.Upvote()
		case "resolve":
			controller.Resolve()
		case "safetyScore":
			controller.SafetyScore()
		case "safeHavens":
			controller.SafeHavens()
		case "helpers":
			controller.Helpers()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
