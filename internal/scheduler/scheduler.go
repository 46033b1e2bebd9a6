// Package scheduler 把轮班模板展开为某个时间段内的具体班次
package scheduler

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

type Scheduler struct {
	template   *domain.RotationTemplate
	cells      []domain.TemplateCell // 保持模板中的顺序
	loc        *time.Location
	classifier dayClassifier
}

// New 只在创建时校验一次模板和时区
func New(template *domain.RotationTemplate, zone string) (*Scheduler, error) {
	loc, err := timeconv.LoadZone(zone)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		template: template,
		cells:    make([]domain.TemplateCell, 0, len(template.Cells)),
		loc:      loc,
	}

	switch template.ApplyType {
	case domain.ApplyWeekday:
		s.classifier = weekdayClassifier{}
	case domain.ApplyDaysOnOff:
		if template.StartingPointDate == nil {
			return nil, &domain.MissingRotationParametersError{TemplateID: template.ID, Field: "startingPointDate"}
		}
		if template.CycleLength == nil || *template.CycleLength <= 0 {
			return nil, &domain.MissingRotationParametersError{TemplateID: template.ID, Field: "cycleLength"}
		}
		s.classifier = rotationClassifier{start: *template.StartingPointDate, cycleLength: *template.CycleLength}
	default:
		return nil, fmt.Errorf("%w: 模板 %d 的类型 %s 无效", domain.ErrMissingRotationParameters, template.ID, template.ApplyType)
	}

	for _, cell := range template.Cells {
		if cell.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: 单元 %d 的时长为 %d 分钟", domain.ErrInvalidTemplateCell, cell.ID, cell.DurationMinutes)
		}
		if cell.DayInfoCode == "" {
			return nil, fmt.Errorf("%w: 单元 %d 缺少日分类编码", domain.ErrInvalidTemplateCell, cell.ID)
		}
		code, ok := s.classifier.normalize(cell.DayInfoCode)
		if !ok {
			return nil, fmt.Errorf("%w: 单元 %d 的日分类编码 %q 不适用于 %s 模板", domain.ErrInvalidTemplateCell, cell.ID, cell.DayInfoCode, template.ApplyType)
		}
		cell.DayInfoCode = code
		s.cells = append(s.cells, cell)
	}

	return s, nil
}

// Schedule 遍历时间段内的每一天，没有匹配单元的日期不产生班次
func (s *Scheduler) Schedule(period timeconv.Period) ([]GeneratedShift, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	result := make([]GeneratedShift, 0)
	for _, day := range period.Days() {
		if shift, ok := s.shiftForDay(day); ok {
			result = append(result, shift)
		}
	}

	return result, nil
}

// ScheduleMonth 展开由月份编码（如 2025-03）确定的整月
func (s *Scheduler) ScheduleMonth(code string) ([]GeneratedShift, error) {
	period, err := timeconv.MonthPeriod(code)
	if err != nil {
		return nil, err
	}
	return s.Schedule(period)
}

func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// ToPlans 把生成的班次转换为归属于某个时间线的班次计划
func ToPlans(shifts []GeneratedShift, timelineID int64, vacancyID *int64) []domain.ShiftPlan {
	plans := make([]domain.ShiftPlan, 0, len(shifts))
	for _, shift := range shifts {
		plans = append(plans, domain.ShiftPlan{
			TimelineID:  timelineID,
			VacancyID:   vacancyID,
			Work:        shift.Interval(),
			ShiftTypeID: shift.ShiftTypeID,
			WorklineID:  shift.WorklineID,
		})
	}
	return plans
}
