package cache

import (
	"slices"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/reconcile"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func checkVacancyOwnership(vacancy *domain.Vacancy, rows *domain.VacancyRows) error {
	for _, plan := range rows.Plans {
		if plan.VacancyID == nil || *plan.VacancyID != vacancy.ID {
			actual := int64(0)
			if plan.VacancyID != nil {
				actual = *plan.VacancyID
			}
			return &domain.OwnershipError{Kind: "plan", RowID: plan.ID, Expected: vacancy.ID, Actual: actual}
		}
	}
	return nil
}

func groupVacancyPlans(rows *domain.VacancyRows, loc *time.Location) map[domain.LocalDate][]domain.ShiftPlan {
	days := make(map[domain.LocalDate][]domain.ShiftPlan)
	for _, plan := range rows.Plans {
		if !plan.Lifecycle.IsActive() {
			continue
		}
		if d, ok := planDate(plan, loc); ok {
			days[d] = append(days[d], plan)
		}
	}
	return days
}

func buildVacancyDayCell(date domain.LocalDate, plans []domain.ShiftPlan, shiftTypes domain.ShiftTypeIndex) domain.VacancyDayCell {
	view := newViewBuilder()
	var planned time.Duration
	for _, plan := range plans {
		view.add(plan.Work, plan.ShiftTypeID, plan.WorklineID)
		if shiftTypes.IsWorking(plan.ShiftTypeID) {
			planned += plan.Work.Duration()
		}
	}
	return domain.VacancyDayCell{
		Date:        date.String(),
		Plan:        view.build(),
		PlanMinutes: reconcile.RoundMinutes(planned),
	}
}

func BuildVacancyDayCell(vacancy *domain.Vacancy, date domain.LocalDate, rows *domain.VacancyRows) (domain.VacancyDayCell, error) {
	loc, err := timeconv.LoadZone(vacancy.TimeZone)
	if err != nil {
		return domain.VacancyDayCell{}, err
	}
	if err := checkVacancyOwnership(vacancy, rows); err != nil {
		return domain.VacancyDayCell{}, err
	}

	days := groupVacancyPlans(rows, loc)
	return buildVacancyDayCell(date, days[date], domain.NewShiftTypeIndex(rows.ShiftTypes)), nil
}

// UpsertVacancyDayCell 把单元写入对应月份的桶，并根据桶内单元重新计算该桶的合计
func UpsertVacancyDayCell(months []domain.MonthCell, cell domain.VacancyDayCell) []domain.MonthCell {
	code := cell.Date[:7]
	out := slices.Clone(months)

	idx := slices.IndexFunc(out, func(m domain.MonthCell) bool { return m.MonthCode == code })
	if idx < 0 {
		out = append(out, domain.MonthCell{MonthCode: code})
		idx = len(out) - 1
	}

	bucket := out[idx]
	bucket.Days = slices.Clone(bucket.Days)
	if i := slices.IndexFunc(bucket.Days, func(d domain.VacancyDayCell) bool { return d.Date == cell.Date }); i >= 0 {
		bucket.Days[i] = cell
	} else {
		bucket.Days = append(bucket.Days, cell)
	}

	bucket.ShiftCount, bucket.SumMinutes = 0, 0
	for _, d := range bucket.Days {
		bucket.ShiftCount += d.Plan.Count
		bucket.SumMinutes += d.PlanMinutes
	}
	out[idx] = bucket
	return out
}

// RebuildVacancy 与 RebuildTimeline 相同，在副本上完成全部计算
func RebuildVacancy(vacancy *domain.Vacancy, period timeconv.Period, rows *domain.VacancyRows) (*domain.Vacancy, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	loc, err := timeconv.LoadZone(vacancy.TimeZone)
	if err != nil {
		return nil, err
	}
	if err := checkVacancyOwnership(vacancy, rows); err != nil {
		return nil, err
	}

	days := groupVacancyPlans(rows, loc)
	shiftTypes := domain.NewShiftTypeIndex(rows.ShiftTypes)

	next := *vacancy
	next.Cache = slices.Clone(vacancy.Cache)
	for _, date := range period.Days() {
		next.Cache = UpsertVacancyDayCell(next.Cache, buildVacancyDayCell(date, days[date], shiftTypes))
	}

	slices.SortStableFunc(next.Cache, func(a, b domain.MonthCell) int {
		return strings.Compare(a.MonthCode, b.MonthCode)
	})
	next.ShiftCount, next.SumMinutes = 0, 0
	for i := range next.Cache {
		slices.SortStableFunc(next.Cache[i].Days, func(a, b domain.VacancyDayCell) int {
			return strings.Compare(a.Date, b.Date)
		})
		next.ShiftCount += next.Cache[i].ShiftCount
		next.SumMinutes += next.Cache[i].SumMinutes
	}

	return &next, nil
}

// VacancyPeriod 返回空缺岗位所有有效计划覆盖的日期范围，没有计划时 ok = false
func VacancyPeriod(vacancy *domain.Vacancy, rows *domain.VacancyRows) (timeconv.Period, bool, error) {
	loc, err := timeconv.LoadZone(vacancy.TimeZone)
	if err != nil {
		return timeconv.Period{}, false, err
	}

	var period timeconv.Period
	found := false
	for date := range groupVacancyPlans(rows, loc) {
		if !found || date.Before(period.From) {
			period.From = date
		}
		if !found || date.After(period.To) {
			period.To = date
		}
		found = true
	}
	return period, found, nil
}

// ApplyResponseDelta 应用响应状态机给出的数量变化，计数不会小于 0
func ApplyResponseDelta(vacancy *domain.Vacancy, delta int) *domain.Vacancy {
	next := *vacancy
	next.ResponseCount += delta
	if next.ResponseCount < 0 {
		next.ResponseCount = 0
	}
	return &next
}
