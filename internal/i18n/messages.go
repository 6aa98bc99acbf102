// Package i18n holds the user-facing message table for the deployment
// locale. The mapping is static; internal log lines stay in English and
// carry the detail these messages deliberately hide.
package i18n

// Message keys.
type Key string

const (
	MissingCredentials  Key = "missing_credentials"
	InvalidCredentials  Key = "invalid_credentials"
	ProviderFailed      Key = "provider_failed"
	ConfigurationError  Key = "configuration_error"
	AccessDenied        Key = "access_denied"
	VerificationExpired Key = "verification_expired"
	SessionRequired     Key = "session_required"

	CategoryFetchFailed  Key = "category_fetch_failed"
	CategoryCreateDenied Key = "category_create_denied"
	CategoryMissingField Key = "category_missing_field"
	CategoryExists       Key = "category_exists"
	CategoryCreateFailed Key = "category_create_failed"
)

var messages = map[Key]string{
	MissingCredentials:  "请提供邮箱和密码",
	InvalidCredentials:  "邮箱或密码不正确",
	ProviderFailed:      "登录失败，请稍后再试",
	ConfigurationError:  "认证系统配置错误",
	AccessDenied:        "访问被拒绝",
	VerificationExpired: "验证链接无效或已过期",
	SessionRequired:     "请先登录",

	CategoryFetchFailed:  "获取分类失败",
	CategoryCreateDenied: "无权创建分类",
	CategoryMissingField: "缺少必要字段",
	CategoryExists:       "分类已存在",
	CategoryCreateFailed: "创建分类失败",
}

// T returns the localized message for a key. Unknown keys fall back to a
// generic error string rather than leaking the key to users.
func T(k Key) string {
	if msg, ok := messages[k]; ok {
		return msg
	}
	return "出错了"
}
