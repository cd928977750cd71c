package convert

import (
	"strings"
	"time"
)

// TimeLayout 是存储层使用的定长 UTC ISO-8601 格式，字典序与时间序一致。
const TimeLayout = "2006-01-02T15:04:05.000Z"

var parseLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTimeSafely 解析时间字符串，空串或无法解析时返回零值而不是错误。
func ParseTimeSafely(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// FormatTimeSafely 格式化时间，零值输出空串。
func FormatTimeSafely(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}
