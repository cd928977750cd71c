package prompt

import (
	"regexp"
	"strings"

	"jobhunt/internal/model"
)

var placeholder = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render 将模板中的 {{name}} 替换为 values[name]，缺失或空白值替换为 "Not specified"。
func Render(template string, values map[string]string) string {
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[2 : len(m)-2]
		if v := strings.TrimSpace(values[name]); v != "" {
			return v
		}
		return model.NotSpecified
	})
}

// IsUnspecified 判断 AI 返回值是否表示缺失。
func IsUnspecified(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || strings.EqualFold(v, model.NotSpecified) || strings.EqualFold(v, "n/a")
}

// Join 用空行连接非空片段。
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
