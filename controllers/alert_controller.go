package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"guardian-angel-http-service/internal/error/code"
	"guardian-angel-http-service/internal/error/response"
	"guardian-angel-http-service/models"
	"guardian-angel-http-service/services"
	"guardian-angel-http-service/services/container"
)

// AlertController 处理报警相关的请求
type AlertController struct {
	BaseControllerImpl
}

// NewAlertController 创建一个新的报警控制器
func (f *ControllerFactory) NewAlertController(ctx *gin.Context) *AlertController {
	return &AlertController{
		BaseControllerImpl: BaseControllerImpl{
			Container: f.Container,
			Context:   ctx,
		},
	}
}

// ButtonEventRequest 按键事件请求
type ButtonEventRequest struct {
	Action string `json:"action" binding:"required" example:"press"` // press 或 release
}

// ActivateRequest 手动发起报警请求
type ActivateRequest struct {
	Level  string `json:"level" binding:"required" example:"red"` // red/orange/yellow
	Silent bool   `json:"silent" example:"false"`
}

// VoiceTriggerRequest 语音触发请求
type VoiceTriggerRequest struct {
	Phrase string `json:"phrase" binding:"required" example:"Emergency"`
}

// CancelRequest 取消报警请求
type CancelRequest struct {
	Pin string `json:"pin" example:"1234"`
}

func (c *AlertController) alertService() services.InterfaceAlertService {
	return c.Container.GetService("alert").(services.InterfaceAlertService)
}

// ButtonEvent 处理按键事件
// @Summary      上报按键事件
// @Description  上报穿戴设备或应用内紧急按钮的按下/松开事件，由手势分类器归类后触发报警
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body ButtonEventRequest true "按键事件"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts/button [post]
func (c *AlertController) ButtonEvent() {
	var req ButtonEventRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	registry := c.Container.GetService("gesture").(*services.GestureRegistry)
	classifier := registry.For(userID)

	switch req.Action {
	case "press":
		classifier.Press()
	case "release":
		classifier.Release()
	default:
		response.FailWithMessage(c.Context, code.ErrValidation, "无效的按键动作", nil)
		return
	}

	response.Success(c.Context, gin.H{"accepted": true})
}

// Activate 手动发起报警
// @Summary      手动发起报警
// @Description  按指定级别手动发起报警，非静默时进入倒计时
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body ActivateRequest true "报警参数"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /alerts/activate [post]
func (c *AlertController) Activate() {
	var req ActivateRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	snapshot, err := c.alertService().Activate(userID, models.AlertLevel(req.Level), models.TriggerManualSelect, req.Silent)
	if err != nil {
		if errors.Is(err, models.ErrAlertInProgress) {
			response.Fail(c.Context, code.ErrAlertInProgress, nil)
			return
		}
		response.FailWithMessage(c.Context, code.ErrInvalidLevel, err.Error(), nil)
		return
	}

	response.Success(c.Context, snapshot)
}

// VoiceTrigger 语音短语触发报警
// @Summary      语音触发报警
// @Description  识别到的语音短语与用户配置匹配时触发报警
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body VoiceTriggerRequest true "语音短语"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /alerts/voice [post]
func (c *AlertController) VoiceTrigger() {
	var req VoiceTriggerRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID := currentUserID(c.Context)
	snapshot, err := c.alertService().TriggerVoice(userID, req.Phrase)
	if err != nil {
		if errors.Is(err, models.ErrAlertInProgress) {
			response.Fail(c.Context, code.ErrAlertInProgress, nil)
			return
		}
		response.FailWithMessage(c.Context, code.ErrInvalidTrigger, err.Error(), nil)
		return
	}

	response.Success(c.Context, snapshot)
}

// Cancel 请求取消当前报警
// @Summary      取消当前报警
// @Description  请求取消当前报警，倒计时阶段直接取消，已激活的报警按级别策略和PIN校验裁决
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body CancelRequest true "取消参数"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /alerts/cancel [post]
func (c *AlertController) Cancel() {
	var req CancelRequest
	if err := c.Context.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	decision, snapshot := c.alertService().RequestCancel(req.Pin)
	if decision.Accepted {
		response.Success(c.Context, gin.H{
			"accepted": true,
			"event":    snapshot,
		})
		return
	}

	var errorCode int
	switch decision.Reason {
	case services.ReasonNoActiveAlert:
		errorCode = code.ErrAlertNotFound
	case services.ReasonNotCancellable:
		errorCode = code.ErrAlertNotCancellable
	case services.ReasonTooManyAttempts:
		errorCode = code.ErrPinAttemptsExceeded
	default:
		errorCode = code.ErrPinIncorrect
	}

	response.Fail(c.Context, errorCode, gin.H{
		"accepted": false,
		"reason":   decision.Reason,
	})
}

// CurrentState 查询当前报警状态
// @Summary      查询当前报警状态
// @Description  获取当前进行中报警事件的状态快照，无进行中事件时返回idle
// @Tags         Alert
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /alerts/current [get]
func (c *AlertController) CurrentState() {
	snapshot, ok := c.alertService().Current()
	if !ok {
		response.Success(c.Context, gin.H{"state": "idle"})
		return
	}
	response.Success(c.Context, snapshot)
}

// History 查询报警历史
// @Summary      查询报警历史
// @Description  分页查询当前用户的报警历史记录
// @Tags         Alert
// @Produce      json
// @Param        pageNum   query  int  false  "页码"
// @Param        pageSize  query  int  false  "每页数量"
// @Success      200  {object}  response.Response
// @Router       /alerts/history [get]
func (c *AlertController) History() {
	var pagination models.PaginationQuery
	if err := c.Context.ShouldBindQuery(&pagination); err != nil {
		response.FailWithMessage(c.Context, code.ErrBind, "无效的分页参数", nil)
		return
	}
	pagination.Normalize()

	userID := currentUserID(c.Context)
	records, total, err := c.alertService().History(userID, &pagination)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}

	response.Success(c.Context, gin.H{
		"list":       records,
		"pagination": models.NewPaginationResult(int(total), pagination.PageNum, pagination.PageSize),
	})
}

// DispatchLogs 查询派发日志
// @Summary      查询报警派发日志
// @Description  查询某次报警事件的处置动作派发日志
// @Tags         Alert
// @Produce      json
// @Param        eventId  path  string  true  "事件ID"
// @Success      200  {object}  response.Response
// @Router       /alerts/{eventId}/dispatches [get]
func (c *AlertController) DispatchLogs() {
	eventID := c.Context.Param("eventId")
	if eventID == "" {
		response.FailWithMessage(c.Context, code.ErrValidation, "事件ID不能为空", nil)
		return
	}

	logs, err := c.alertService().DispatchLogs(eventID)
	if err != nil {
		response.Fail(c.Context, code.ErrDatabase, nil)
		return
	}
	response.Success(c.Context, logs)
}

// HandleAlertFunc 返回一个处理报警请求的Gin处理函数
func HandleAlertFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	factory := NewControllerFactory(container)

	return func(ctx *gin.Context) {
		controller := factory.NewAlertController(ctx)

		switch method {
		case "buttonEvent":
			controller.ButtonEvent()
		case "activate":
			controller.Activate()
		case "voiceTrigger":
			controller.VoiceTrigger()
		case "cancel":
			controller.Cancel()
		case "currentState":
			controller.CurrentState()
		case "history":
			controller.History()
		case "dispatchLogs":
			controller.DispatchLogs()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的方法",
				"data":    nil,
			})
		}
	}
}
