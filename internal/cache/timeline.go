package cache

import (
	"slices"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/reconcile"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func checkTimelineOwnership(timeline *domain.Timeline, rows *domain.TimelineRows) error {
	for _, plan := range rows.Plans {
		if plan.TimelineID != timeline.ID {
			return &domain.OwnershipError{Kind: "plan", RowID: plan.ID, Expected: timeline.ID, Actual: plan.TimelineID}
		}
	}
	for _, fact := range rows.Facts {
		if fact.TimelineID != timeline.ID {
			return &domain.OwnershipError{Kind: "fact", RowID: fact.ID, Expected: timeline.ID, Actual: fact.TimelineID}
		}
	}
	return nil
}

// timelineDay 是按日期归集好的行，避免重建整月时反复扫描
type timelineDay struct {
	plans []domain.ShiftPlan
	facts []domain.ShiftFact
}

func groupTimelineRows(rows *domain.TimelineRows, loc *time.Location) map[domain.LocalDate]*timelineDay {
	days := make(map[domain.LocalDate]*timelineDay)
	get := func(d domain.LocalDate) *timelineDay {
		if days[d] == nil {
			days[d] = &timelineDay{}
		}
		return days[d]
	}

	// 已删除的计划仍然参与日期定位，但不参与汇总
	allPlans := make(map[int64]domain.ShiftPlan, len(rows.Plans))
	for _, plan := range rows.Plans {
		allPlans[plan.ID] = plan
		if !plan.Lifecycle.IsActive() {
			continue
		}
		if d, ok := planDate(plan, loc); ok {
			get(d).plans = append(get(d).plans, plan)
		}
	}
	for _, fact := range rows.Facts {
		if !fact.Lifecycle.IsActive() {
			continue
		}
		if d, ok := factDate(fact, allPlans, loc); ok {
			get(d).facts = append(get(d).facts, fact)
		}
	}
	return days
}

func buildDayCell(date domain.LocalDate, day *timelineDay, shiftTypes []domain.ShiftType, opts domain.StakeholderOptions) domain.DayCell {
	if day == nil {
		day = &timelineDay{}
	}

	plans := newViewBuilder()
	for _, plan := range day.plans {
		plans.add(plan.Work, plan.ShiftTypeID, plan.WorklineID)
	}
	facts := newViewBuilder()
	for _, fact := range day.facts {
		facts.add(fact.Work, fact.ShiftTypeID, fact.WorklineID)
	}

	billing := reconcile.ComputeBilling(day.plans, day.facts, shiftTypes, opts)
	return domain.DayCell{
		Date: date.String(),
		Plan: plans.build(),
		Fact: facts.build(),
		Comparing: domain.ComparingView{
			PlanMinutes:    billing.PlanMinutes,
			FactMinutes:    billing.FactMinutes,
			PenaltyMinutes: billing.PenaltyMinutes,
			BillingMinutes: billing.BillingMinutes,
		},
		IsAcceptableDeviationPlanFromFact:   billing.Acceptable,
		IsUnacceptableDeviationPlanFromFact: billing.Unacceptable,
	}
}

// BuildDayCell 计算单日缓存；rows 中任意一行不属于该时间线时直接返回错误
func BuildDayCell(timeline *domain.Timeline, date domain.LocalDate, rows *domain.TimelineRows, opts domain.StakeholderOptions) (domain.DayCell, error) {
	loc, err := timeconv.LoadZone(timeline.TimeZone)
	if err != nil {
		return domain.DayCell{}, err
	}
	if err := checkTimelineOwnership(timeline, rows); err != nil {
		return domain.DayCell{}, err
	}

	days := groupTimelineRows(rows, loc)
	return buildDayCell(date, days[date], rows.ShiftTypes, opts), nil
}

// UpsertDayCell 按日期替换已有的单元，不存在时追加；不会修改传入的切片
func UpsertDayCell(cache []domain.DayCell, cell domain.DayCell) []domain.DayCell {
	out := slices.Clone(cache)
	for i := range out {
		if out[i].Date == cell.Date {
			out[i] = cell
			return out
		}
	}
	return append(out, cell)
}

// RebuildTimeline 在副本上重建 period 内的每一天并刷新计数，校验失败时不产生任何修改
func RebuildTimeline(timeline *domain.Timeline, period timeconv.Period, rows *domain.TimelineRows, opts domain.StakeholderOptions) (*domain.Timeline, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	loc, err := timeconv.LoadZone(timeline.TimeZone)
	if err != nil {
		return nil, err
	}
	if err := checkTimelineOwnership(timeline, rows); err != nil {
		return nil, err
	}

	days := groupTimelineRows(rows, loc)

	next := *timeline
	next.Cache = slices.Clone(timeline.Cache)
	for _, date := range period.Days() {
		next.Cache = UpsertDayCell(next.Cache, buildDayCell(date, days[date], rows.ShiftTypes, opts))
	}
	slices.SortStableFunc(next.Cache, func(a, b domain.DayCell) int {
		return strings.Compare(a.Date, b.Date)
	})

	next.PlanCount, next.FactCount = 0, 0
	next.PlanMinutes, next.FactMinutes, next.BillingMinutes = 0, 0, 0
	for _, cell := range next.Cache {
		next.PlanCount += cell.Plan.Count
		next.FactCount += cell.Fact.Count
		next.PlanMinutes += cell.Comparing.PlanMinutes
		next.FactMinutes += cell.Comparing.FactMinutes
		next.BillingMinutes += cell.Comparing.BillingMinutes
	}

	return &next, nil
}
