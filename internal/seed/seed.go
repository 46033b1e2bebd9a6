// Package seed 生成用于本地调试的演示数据：班次类型、工作线、轮班模板、员工排班以及模拟的出勤记录
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

type Store interface {
	CreateShiftType(ctx context.Context, t *domain.ShiftType, tenantID int64) error
	CreateWorkline(ctx context.Context, w *domain.Workline, tenantID int64) error
	CreateRotationTemplate(ctx context.Context, template *domain.RotationTemplate) error
	CreateVacancy(ctx context.Context, v *domain.Vacancy) error
	CreateTimeline(ctx context.Context, tl *domain.Timeline) error
	InsertShiftPlans(ctx context.Context, plans []domain.ShiftPlan) error
	InsertShiftFacts(ctx context.Context, facts []domain.ShiftFact) error
}

type Options struct {
	TenantID   int64
	MonthCode  string
	TimeZone   string
	Employees  int
	RandomSeed int64
}

// Summary 记录写入了哪些容器，调用方据此重算缓存
type Summary struct {
	TimelineIDs []int64
	VacancyIDs  []int64
	Plans       int
	Facts       int
}

// DefaultOptions 演示数据统一使用默认容差
type DefaultOptions struct{}

func (DefaultOptions) Options(context.Context, int64) (domain.StakeholderOptions, error) {
	return domain.DefaultStakeholderOptions(), nil
}

type catalog struct {
	day, night, rest *domain.ShiftType
	desk, phone      *domain.Workline
}

func createCatalog(ctx context.Context, store Store, tenantID int64) (*catalog, error) {
	c := &catalog{
		day:   &domain.ShiftType{Name: "白班", IsWorking: true},
		night: &domain.ShiftType{Name: "夜班", IsWorking: true},
		rest:  &domain.ShiftType{Name: "休息", IsWorking: false},
		desk:  &domain.Workline{Name: "前台", OverlapAcceptable: false},
		phone: &domain.Workline{Name: "电话值守", OverlapAcceptable: true},
	}

	for _, t := range []*domain.ShiftType{c.day, c.night, c.rest} {
		t.Code = Mnemonic(t.Name)
		if err := store.CreateShiftType(ctx, t, tenantID); err != nil {
			return nil, fmt.Errorf("插入班次类型 %s 失败: %w", t.Name, err)
		}
	}
	for _, w := range []*domain.Workline{c.desk, c.phone} {
		w.Code = Mnemonic(w.Name)
		if err := store.CreateWorkline(ctx, w, tenantID); err != nil {
			return nil, fmt.Errorf("插入工作线 %s 失败: %w", w.Name, err)
		}
	}
	return c, nil
}

func (c *catalog) templates(start domain.LocalDate) []*domain.RotationTemplate {
	nine := domain.LocalTime{Hour: 9}
	ninePM := domain.LocalTime{Hour: 21}

	weekday := &domain.RotationTemplate{
		Name:      "工作日白班",
		ApplyType: domain.ApplyWeekday,
		Cells:     make([]domain.TemplateCell, 0, 5),
	}
	for _, code := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		weekday.Cells = append(weekday.Cells, domain.TemplateCell{
			DayInfoCode:     code,
			TimeFrom:        nine,
			DurationMinutes: 480,
			ShiftTypeID:     c.day.ID,
			WorklineID:      &c.desk.ID,
		})
	}

	cycle := 4
	rotation := &domain.RotationTemplate{
		Name:              "白夜休休",
		ApplyType:         domain.ApplyDaysOnOff,
		StartingPointDate: &start,
		CycleLength:       &cycle,
		Cells: []domain.TemplateCell{
			{DayInfoCode: scheduler.RotationCode(0), TimeFrom: nine, DurationMinutes: 720, ShiftTypeID: c.day.ID, WorklineID: &c.desk.ID},
			{DayInfoCode: scheduler.RotationCode(1), TimeFrom: ninePM, DurationMinutes: 720, ShiftTypeID: c.night.ID, WorklineID: &c.phone.ID},
			{DayInfoCode: scheduler.RotationCode(2), TimeFrom: domain.LocalTime{}, DurationMinutes: 1440, ShiftTypeID: c.rest.ID},
		},
	}

	return []*domain.RotationTemplate{weekday, rotation}
}

// Run 员工轮流使用两个模板，每第五个员工的班次挂到同一个空缺岗位上
func Run(ctx context.Context, store Store, opts Options, logger *slog.Logger) (*Summary, error) {
	if opts.Employees <= 0 {
		return nil, fmt.Errorf("员工数量必须大于 0")
	}

	c, err := createCatalog(ctx, store, opts.TenantID)
	if err != nil {
		return nil, err
	}

	period, err := timeconv.MonthPeriod(opts.MonthCode)
	if err != nil {
		return nil, err
	}
	templates := c.templates(period.From)
	schedulers := make([]*scheduler.Scheduler, 0, len(templates))
	for _, t := range templates {
		if err := store.CreateRotationTemplate(ctx, t); err != nil {
			return nil, fmt.Errorf("插入轮班模板 %s 失败: %w", t.Name, err)
		}
		s, err := scheduler.New(t, opts.TimeZone)
		if err != nil {
			return nil, err
		}
		schedulers = append(schedulers, s)
	}

	vacancy := &domain.Vacancy{TenantID: opts.TenantID, TimeZone: opts.TimeZone}
	if err := store.CreateVacancy(ctx, vacancy); err != nil {
		return nil, fmt.Errorf("插入空缺岗位失败: %w", err)
	}

	random := NewRandom(opts.RandomSeed)
	workingTypes := domain.NewShiftTypeIndex([]domain.ShiftType{*c.day, *c.night, *c.rest})
	summary := &Summary{
		TimelineIDs: make([]int64, 0, opts.Employees),
		VacancyIDs:  []int64{vacancy.ID},
	}

	for i := 0; i < opts.Employees; i++ {
		name := random.ChineseName()

		tl := &domain.Timeline{
			TenantID:   opts.TenantID,
			EmployeeID: int64(i + 1),
			MonthCode:  opts.MonthCode,
			TimeZone:   opts.TimeZone,
		}
		if err := store.CreateTimeline(ctx, tl); err != nil {
			return nil, fmt.Errorf("插入员工 %s 的排班失败: %w", name, err)
		}
		summary.TimelineIDs = append(summary.TimelineIDs, tl.ID)

		s := schedulers[i%len(schedulers)]
		shifts, err := s.ScheduleMonth(opts.MonthCode)
		if err != nil {
			return nil, err
		}

		var vacancyID *int64
		if i%5 == 0 {
			vacancyID = &vacancy.ID
		}
		plans := scheduler.ToPlans(shifts, tl.ID, vacancyID)
		if err := store.InsertShiftPlans(ctx, plans); err != nil {
			return nil, fmt.Errorf("插入员工 %s 的班次计划失败: %w", name, err)
		}

		facts := make([]domain.ShiftFact, 0, len(plans))
		for _, p := range plans {
			if !workingTypes.IsWorking(p.ShiftTypeID) {
				continue
			}
			if f, ok := random.Fact(p); ok {
				facts = append(facts, f)
			}
		}
		if len(facts) > 0 {
			if err := store.InsertShiftFacts(ctx, facts); err != nil {
				return nil, fmt.Errorf("插入员工 %s 的出勤记录失败: %w", name, err)
			}
		}

		summary.Plans += len(plans)
		summary.Facts += len(facts)
		logger.Info("已生成员工排班", "name", name, "timelineID", tl.ID, "template", templates[i%len(templates)].Name, "plans", len(plans), "facts", len(facts))
	}

	return summary, nil
}
