// Package cache 计算员工排班和空缺岗位的日缓存，缓存只能通过重新计算得到
package cache

import (
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// viewBuilder 汇总一天内的计划或实际记录
type viewBuilder struct {
	view       domain.PlanView
	shiftTypes map[int64]bool
	worklines  map[int64]bool
}

func newViewBuilder() *viewBuilder {
	return &viewBuilder{
		shiftTypes: make(map[int64]bool),
		worklines:  make(map[int64]bool),
	}
}

func (b *viewBuilder) add(work domain.Interval, shiftTypeID int64, worklineID *int64) {
	b.view.Count++
	if work.From != nil && (b.view.From == nil || work.From.Before(*b.view.From)) {
		from := work.From.UTC()
		b.view.From = &from
	}
	if work.To != nil && (b.view.To == nil || work.To.After(*b.view.To)) {
		to := work.To.UTC()
		b.view.To = &to
	}
	b.shiftTypes[shiftTypeID] = true
	if worklineID != nil {
		b.worklines[*worklineID] = true
	}
}

func (b *viewBuilder) build() domain.PlanView {
	b.view.ShiftTypeIDs = sortedIDs(b.shiftTypes)
	b.view.WorklineIDs = sortedIDs(b.worklines)
	return b.view
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// planDate 计划归属于其开始时间所在的日期
func planDate(plan domain.ShiftPlan, loc *time.Location) (domain.LocalDate, bool) {
	if plan.Work.From == nil {
		return domain.LocalDate{}, false
	}
	t := plan.Work.From.In(loc)
	return domain.NewLocalDate(t.Year(), t.Month(), t.Day()), true
}

// factDate 实际记录优先归属于关联计划的日期，否则取自身的开始（缺失时取结束）
func factDate(fact domain.ShiftFact, plans map[int64]domain.ShiftPlan, loc *time.Location) (domain.LocalDate, bool) {
	if fact.PlanID != nil {
		if plan, ok := plans[*fact.PlanID]; ok {
			if d, ok := planDate(plan, loc); ok {
				return d, true
			}
		}
	}

	var t time.Time
	switch {
	case fact.Work.From != nil:
		t = fact.Work.From.In(loc)
	case fact.Work.To != nil:
		t = fact.Work.To.In(loc)
	default:
		return domain.LocalDate{}, false
	}
	return domain.NewLocalDate(t.Year(), t.Month(), t.Day()), true
}
