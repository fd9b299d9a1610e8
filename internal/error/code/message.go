package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrTooManyRequests: "请求频率过高",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",

	// 报警相关错误码
	ErrAlertInProgress:     "已有报警事件正在进行中",
	ErrAlertNotFound:       "没有进行中的报警事件",
	ErrAlertNotCancellable: "该报警已激活且不可取消",
	ErrPinIncorrect:        "PIN码错误",
	ErrPinAttemptsExceeded: "PIN尝试次数过多，请稍后再试",
	ErrInvalidTrigger:      "无效的触发方式",
	ErrInvalidLevel:        "无效的报警级别",

	// 联系人相关错误码
	ErrContactNotFound: "联系人不存在",
	ErrContactInvalid:  "联系人信息不完整",

	// 位置相关错误码
	ErrPositionUnavailable: "当前位置不可用",
	ErrShareNotFound:       "位置共享不存在",
	ErrShareExpired:        "位置共享已结束或已过期",
	ErrSafeZoneNotFound:    "安全区不存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",

	// 事件上报相关错误码
	ErrIncidentNotFound: "事件不存在",
	ErrIncidentInvalid:  "事件信息不完整",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,

	ErrAlertInProgress:     StatusConflict,
	ErrAlertNotFound:       StatusNotFound,
	ErrAlertNotCancellable: StatusForbidden,
	ErrPinIncorrect:        StatusForbidden,
	ErrPinAttemptsExceeded: StatusTooManyRequests,
	ErrInvalidTrigger:      StatusBadRequest,
	ErrInvalidLevel:        StatusBadRequest,

	ErrContactNotFound: StatusNotFound,
	ErrContactInvalid:  StatusBadRequest,

	ErrPositionUnavailable: StatusNotFound,
	ErrShareNotFound:       StatusNotFound,
	ErrShareExpired:        StatusBadRequest,
	ErrSafeZoneNotFound:    StatusNotFound,

	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,

	ErrIncidentNotFound: StatusNotFound,
	ErrIncidentInvalid:  StatusBadRequest,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
