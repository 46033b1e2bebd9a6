package scheduler

import (
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func (weekdayClassifier) classify(date domain.LocalDate) string {
	return domain.WeekdayCode(date.Weekday())
}

// normalize 星期名称不区分大小写
func (weekdayClassifier) normalize(code string) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for w := time.Sunday; w <= time.Saturday; w++ {
		if code == domain.WeekdayCode(w) {
			return code, true
		}
	}
	return "", false
}

func (c rotationClassifier) classify(date domain.LocalDate) string {
	return RotationCode(RotationIndex(date.DaysSince(c.start), c.cycleLength))
}

func (c rotationClassifier) normalize(code string) (string, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || index < 0 || index >= c.cycleLength {
		return "", false
	}
	return RotationCode(index), true
}

// RotationIndex 即使日期在起点之前也返回非负的位置
func RotationIndex(days, cycleLength int) int {
	return ((days % cycleLength) + cycleLength) % cycleLength
}

// RotationCode 返回按轮班模板的日分类编码
func RotationCode(index int) string {
	return strconv.Itoa(index)
}

// firstMatchingCell 找到第一个分类编码相同的模板单元
func (s *Scheduler) firstMatchingCell(code string) (domain.TemplateCell, bool) {
	for _, cell := range s.cells {
		if cell.DayInfoCode == code {
			return cell, true
		}
	}
	return domain.TemplateCell{}, false
}

func (s *Scheduler) shiftForDay(date domain.LocalDate) (GeneratedShift, bool) {
	cell, ok := s.firstMatchingCell(s.classifier.classify(date))
	if !ok {
		return GeneratedShift{}, false
	}

	from := timeconv.Localize(domain.Wall{Date: date, Clock: cell.TimeFrom}, s.loc)
	return GeneratedShift{
		Date:        date,
		From:        from,
		To:          from.Add(time.Duration(cell.DurationMinutes) * time.Minute),
		ShiftTypeID: cell.ShiftTypeID,
		WorklineID:  cell.WorklineID,
	}, true
}
