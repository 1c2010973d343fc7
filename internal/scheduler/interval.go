package scheduler

import (
	"strconv"
	"strings"
	"time"
)

// K 线周期单位。秒级周期对这套决策节奏没有意义，不支持。
var intervalUnits = map[byte]time.Duration{
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// ParseIntervalDuration 解析 "15m"、"1h"、"4h"、"1d"、"1w" 这类周期写法。
// 非法输入返回 (0, false)，由调用方决定报错还是回落默认值。
func ParseIntervalDuration(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if len(interval) < 2 {
		return 0, false
	}
	unit, ok := intervalUnits[interval[len(interval)-1]]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(interval[:len(interval)-1]))
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * unit, true
}
