package reconcile

import (
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerMinute = decimal.NewFromInt(60)

// RoundMinutes 以秒为精度换算成分钟，并四舍五入到整分钟
func RoundMinutes(d time.Duration) int64 {
	seconds := decimal.NewFromInt(int64(d / time.Second))
	return seconds.Div(secondsPerMinute).Round(0).IntPart()
}
