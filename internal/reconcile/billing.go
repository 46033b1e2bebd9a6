package reconcile

import (
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// Billing 一组计划和实际记录的汇总结果
type Billing struct {
	PlanMinutes    int64 `json:"planMinutes"`
	FactMinutes    int64 `json:"factMinutes"`
	PenaltyMinutes int64 `json:"penaltyMinutes"`
	BillingMinutes int64 `json:"billingMinutes"`
	Acceptable     bool  `json:"acceptable"`
	Unacceptable   bool  `json:"unacceptable"`
}

// ComputeBilling 非工作班次类型在所有统计中都不计入；软删除的记录直接忽略
func ComputeBilling(plans []domain.ShiftPlan, facts []domain.ShiftFact, shiftTypes []domain.ShiftType, opts domain.StakeholderOptions) Billing {
	types := domain.NewShiftTypeIndex(shiftTypes)

	activePlans := make(map[int64]domain.ShiftPlan, len(plans))
	for _, plan := range plans {
		if plan.Lifecycle.IsActive() {
			activePlans[plan.ID] = plan
		}
	}

	var result Billing
	var plannedDuration, factDuration, billedDuration time.Duration
	deviation := Deviation{}

	// 按计划归集实际记录
	linked := make(map[int64][]domain.ShiftFact)
	for _, fact := range facts {
		if !fact.Lifecycle.IsActive() {
			continue
		}

		if fact.PlanID == nil {
			// 没有关联计划的实际记录一定是不可接受的偏差
			deviation.Unacceptable = true
		} else if _, ok := activePlans[*fact.PlanID]; !ok {
			// 关联的计划不存在，缓存只做降级处理
			deviation.Unacceptable = true
		}

		if !types.IsWorking(fact.ShiftTypeID) {
			continue
		}
		if fact.Work.IsComplete() {
			factDuration += fact.Work.Duration()
		}
		if fact.Penalty {
			result.PenaltyMinutes += int64(fact.PenaltyMinutes)
		}
		if fact.PlanID != nil {
			linked[*fact.PlanID] = append(linked[*fact.PlanID], fact)
		}
	}

	for _, plan := range plans {
		if !plan.Lifecycle.IsActive() || !types.IsWorking(plan.ShiftTypeID) {
			continue
		}
		plannedDuration += plan.Work.Duration()

		planFacts := linked[plan.ID]
		if len(planFacts) == 0 {
			continue
		}

		factWork, complete := aggregateFacts(planFacts)
		deviation = deviation.merge(ClassifyDeviation(plan.Work, factWork, opts))
		if !complete || !plan.Work.IsComplete() {
			continue
		}

		billedDuration += billPlan(plan.Work, factWork, planFacts, opts)
	}

	result.PlanMinutes = RoundMinutes(plannedDuration)
	result.FactMinutes = RoundMinutes(factDuration)
	result.BillingMinutes = RoundMinutes(billedDuration)
	result.Unacceptable = deviation.Unacceptable
	result.Acceptable = deviation.Acceptable && !deviation.Unacceptable
	return result
}

// aggregateFacts 取最早的开始和最晚的结束；任意一条记录缺少端点时返回 complete = false
func aggregateFacts(facts []domain.ShiftFact) (domain.Interval, bool) {
	var out domain.Interval
	for _, fact := range facts {
		if !fact.Work.IsComplete() {
			return domain.Interval{From: fact.Work.From, To: fact.Work.To}, false
		}
		if out.From == nil || fact.Work.From.Before(*out.From) {
			from := *fact.Work.From
			out.From = &from
		}
		if out.To == nil || fact.Work.To.After(*out.To) {
			to := *fact.Work.To
			out.To = &to
		}
	}
	return out, true
}

// billPlan 迟到超过容差时从实际到达开始计费，早退超过容差时计费到实际离开，再扣除罚时
func billPlan(plan, fact domain.Interval, facts []domain.ShiftFact, opts domain.StakeholderOptions) time.Duration {
	start := *plan.From
	if fact.From.After(plan.From.Add(minutes(opts.AllowableTimeLateShiftStartMin))) {
		start = *fact.From
	}

	end := *plan.To
	if fact.To.Before(plan.To.Add(-minutes(opts.AllowableTimeEarlyShiftFinishMin))) {
		end = *fact.To
	}

	billed := end.Sub(start)
	for _, f := range facts {
		if f.Penalty {
			billed -= minutes(f.PenaltyMinutes)
		}
	}
	if billed < 0 {
		return 0
	}
	return billed
}
