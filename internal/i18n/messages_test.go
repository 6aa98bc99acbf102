package i18n

import "testing"

func TestT(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{MissingCredentials, "请提供邮箱和密码"},
		{InvalidCredentials, "邮箱或密码不正确"},
		{ProviderFailed, "登录失败，请稍后再试"},
		{ConfigurationError, "认证系统配置错误"},
		{AccessDenied, "访问被拒绝"},
		{VerificationExpired, "验证链接无效或已过期"},
	}

	for _, tt := range tests {
		if got := T(tt.key); got != tt.want {
			t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestT_UnknownKeyFallsBack(t *testing.T) {
	if got := T(Key("nonexistent")); got != "出错了" {
		t.Errorf("T(unknown) = %q, want fallback", got)
	}
}
