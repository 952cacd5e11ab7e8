package http

/**
 * @file: http_code.go
 * @description: response code table
 */

var (
	Failed                        = failed(500, "Request failed")
	RequestParameterParsingFailed = failed(5001, "Request parameter parsing failed")
	ScheduleIdIsEmpty             = failed(5002, "Schedule id is empty")
	RotationIdIsEmpty             = failed(5003, "Rotation id is empty")
	PolicyIdIsEmpty               = failed(5004, "Policy id is empty")
	RunIdIsEmpty                  = failed(5005, "Run id is empty")
	ApplicationIdIsEmpty          = failed(5006, "Application id is empty")
	UserIdIsEmpty                 = failed(5007, "User id is empty")

	// Unauthorized 401
	Unauthorized         = failed(4401, "Unauthorized")
	AuthenticationFailed = failed(4402, "Authentication failed")
	AuthorizationEmpty   = failed(4404, "Authorization is empty")
	InvalidToken         = failed(4405, "Invalid token")
	TokenExpired         = failed(4407, "Token is expired")

	// BadRequest 400
	BadRequest    = failed(4000, "Bad request")
	NotFound      = failed(4004, "Not found")
	InvalidTarget = failed(4005, "Escalation step target is inconsistent with its notify type")
	InvalidWindow = failed(4006, "Invalid time window")

	// Forbidden 403
	Forbidden = failed(4030, "Forbidden")

	TenantNotExist = failed(4043, "Tenant does not exist")

	InternalError = failed(5000, "Internal error, please contact the administrator")
)

var (
	Success = success(200, "Request Success")
)

func failed(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Code:   code,
		Msg:    msg,
		Detail: nil,
	}
}
