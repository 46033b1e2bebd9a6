package scheduler

import (
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// GeneratedShift: 由模板展开得到的一个具体班次
type GeneratedShift struct {
	Date        domain.LocalDate `json:"date"`
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	ShiftTypeID int64            `json:"shiftTypeID"`
	WorklineID  *int64           `json:"worklineID"`
}

func (g GeneratedShift) Interval() domain.Interval {
	return domain.NewInterval(g.From, g.To)
}

// dayClassifier: 计算某一天对应的模板日分类编码
type dayClassifier interface {
	classify(date domain.LocalDate) string
	// normalize 把模板单元里的编码转换为 classify 的取值，编码不在取值范围内时返回 false
	normalize(code string) (string, bool)
}

// weekdayClassifier 按星期名称匹配
type weekdayClassifier struct{}

// rotationClassifier 按轮班周期内的位置匹配
type rotationClassifier struct {
	start       domain.LocalDate
	cycleLength int
}
