package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/overlap"
)

type fakeStore struct {
	timelines map[int64]*domain.Timeline
	existing  map[int64][]domain.ShiftPlan
	worklines map[int64]domain.Workline
	plans     map[int64]*domain.ShiftPlan
	templates map[int64]*domain.RotationTemplate
	vacancies map[int64]*domain.Vacancy
	overrides map[int64]map[string]int

	applyCalls int
	deleteIDs  []int64
	inserted   []domain.ShiftPlan
	created    []*domain.RotationTemplate
	saved      []*domain.Vacancy
	lifecycles map[int64]domain.Lifecycle
	deleted    []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		timelines: map[int64]*domain.Timeline{},
		existing:  map[int64][]domain.ShiftPlan{},
		worklines: map[int64]domain.Workline{},
		plans:     map[int64]*domain.ShiftPlan{},
		templates: map[int64]*domain.RotationTemplate{},
		vacancies: map[int64]*domain.Vacancy{},
		overrides: map[int64]map[string]int{},
	}
}

func (s *fakeStore) GetTimelineByID(_ context.Context, id int64) (*domain.Timeline, error) {
	tl, ok := s.timelines[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tl, nil
}

func (s *fakeStore) GetExistingShiftPlans(_ context.Context, timelineID int64) ([]domain.ShiftPlan, error) {
	return s.existing[timelineID], nil
}

func (s *fakeStore) GetWorklines(_ context.Context, ids []int64) ([]domain.Workline, error) {
	out := make([]domain.Workline, 0, len(ids))
	for _, id := range ids {
		if wl, ok := s.worklines[id]; ok {
			out = append(out, wl)
		}
	}
	return out, nil
}

func (s *fakeStore) GetShiftPlan(_ context.Context, id int64) (*domain.ShiftPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) SetShiftPlanLifecycle(_ context.Context, id int64, lc domain.Lifecycle) error {
	if s.lifecycles == nil {
		s.lifecycles = map[int64]domain.Lifecycle{}
	}
	s.lifecycles[id] = lc
	return nil
}

func (s *fakeStore) ApplyShiftPlanChanges(_ context.Context, deleteIDs []int64, _ time.Time, plans []domain.ShiftPlan) error {
	s.applyCalls++
	s.deleteIDs = deleteIDs
	s.inserted = plans
	return nil
}

func (s *fakeStore) GetAllRotationTemplates(context.Context) ([]*domain.RotationTemplate, error) {
	out := make([]*domain.RotationTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	return out, nil
}

func (s *fakeStore) GetRotationTemplate(_ context.Context, id int64) (*domain.RotationTemplate, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (s *fakeStore) CreateRotationTemplate(_ context.Context, template *domain.RotationTemplate) error {
	template.ID = int64(len(s.templates) + 1)
	s.templates[template.ID] = template
	s.created = append(s.created, template)
	return nil
}

func (s *fakeStore) DeleteRotationTemplate(_ context.Context, id int64) error {
	delete(s.templates, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *fakeStore) GetVacancyByID(_ context.Context, id int64) (*domain.Vacancy, error) {
	v, ok := s.vacancies[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (s *fakeStore) SaveVacancyCache(_ context.Context, vacancy *domain.Vacancy) error {
	s.saved = append(s.saved, vacancy)
	return nil
}

func (s *fakeStore) SetStakeholderOptionOverride(_ context.Context, tenantID int64, key string, value int) error {
	if s.overrides[tenantID] == nil {
		s.overrides[tenantID] = map[string]int{}
	}
	s.overrides[tenantID][key] = value
	return nil
}

func (s *fakeStore) GetStakeholderOptionOverrides(_ context.Context, tenantID int64) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range s.overrides[tenantID] {
		out[k] = v
	}
	return out, nil
}

type fakePublisher struct {
	jobs []*domain.RecalcJob
}

func (p *fakePublisher) Publish(_ context.Context, job *domain.RecalcJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

type fakeOptions struct {
	invalidated []int64
}

func (o *fakeOptions) Options(context.Context, int64) (domain.StakeholderOptions, error) {
	return domain.DefaultStakeholderOptions(), nil
}

func (o *fakeOptions) Invalidate(_ context.Context, tenantID int64) error {
	o.invalidated = append(o.invalidated, tenantID)
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testEnv struct {
	h         *Handler
	store     *fakeStore
	publisher *fakePublisher
	options   *fakeOptions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Engine.MaxOverlapCandidates = 744

	env := &testEnv{store: newFakeStore(), publisher: &fakePublisher{}, options: &fakeOptions{}}
	h, err := NewHandler(cfg, env.store, env.publisher, env.options)
	require.NoError(t, err)
	h.RegisterRoutes()
	env.h = h
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) envelope {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func at(hour, minute int) time.Time {
	return time.Date(2025, time.March, 1, hour, minute, 0, 0, time.UTC)
}

func int64Ptr(v int64) *int64 { return &v }

// ==================== 时间与区间 ====================

func TestWallToInstant(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/time/wall-to-instant", map[string]string{
		"wall": "2025-03-01 09:00",
		"zone": "Europe/Moscow",
	})
	require.True(t, resp.Success, resp.Message)

	var data struct {
		Instant time.Time `json:"instant"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.True(t, at(6, 0).Equal(data.Instant))
}

func TestWallToInstant_UnknownZone(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/time/wall-to-instant", map[string]string{
		"wall": "2025-03-01 09:00",
		"zone": "Mars/Olympus",
	})
	assert.False(t, resp.Success)
}

func TestPeriodsIntersect_Touching(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/periods/intersect", map[string]any{
		"a": domain.NewInterval(at(9, 0), at(13, 0)),
		"b": domain.NewInterval(at(13, 0), at(16, 0)),
	})
	require.True(t, resp.Success, resp.Message)

	var data struct {
		Intersect bool `json:"intersect"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.False(t, data.Intersect)
}

// ==================== 重叠检测 ====================

func overlapEnv(t *testing.T) *testEnv {
	env := newTestEnv(t)
	env.store.timelines[1] = &domain.Timeline{ID: 1, TenantID: 1, MonthCode: "2025-03", TimeZone: "UTC"}
	env.store.existing[1] = []domain.ShiftPlan{
		{ID: 10, TimelineID: 1, Work: domain.NewInterval(at(9, 0), at(13, 0)), ShiftTypeID: 1},
	}
	return env
}

func overlapRequest(policy string, commit bool) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{"from": at(12, 0), "to": at(16, 0), "shiftTypeID": 1},
		},
		"policy": policy,
		"commit": commit,
	}
}

func TestDetectTimelineOverlaps_DryRun(t *testing.T) {
	env := overlapEnv(t)

	resp := env.do(t, http.MethodPost, "/timelines/1/overlaps", overlapRequest("", false))
	require.True(t, resp.Success, resp.Message)

	var data struct {
		Overlap   overlap.Result `json:"overlap"`
		Committed bool           `json:"committed"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.False(t, data.Committed)
	assert.True(t, data.Overlap.IsUnacceptableOverlappingExists)
	assert.Equal(t, []string{"2025-03-01"}, data.Overlap.DayOfOverlapping.Unacceptable)
	require.Len(t, data.Overlap.ShiftsWithOverlapping.Unacceptable, 1)
	assert.Equal(t, int64(10), data.Overlap.ShiftsWithOverlapping.Unacceptable[0].ID)
	assert.Zero(t, env.store.applyCalls)
	assert.Empty(t, env.publisher.jobs)
}

func TestDetectTimelineOverlaps_CommitReject(t *testing.T) {
	env := overlapEnv(t)

	resp := env.do(t, http.MethodPost, "/timelines/1/overlaps", overlapRequest("reject", true))
	assert.False(t, resp.Success)
	assert.Zero(t, env.store.applyCalls)
	assert.Empty(t, env.publisher.jobs)
}

func TestDetectTimelineOverlaps_CommitReplaceExisting(t *testing.T) {
	env := overlapEnv(t)

	resp := env.do(t, http.MethodPost, "/timelines/1/overlaps", overlapRequest("replace-existing", true))
	require.True(t, resp.Success, resp.Message)

	assert.Equal(t, 1, env.store.applyCalls)
	assert.Equal(t, []int64{10}, env.store.deleteIDs)
	require.Len(t, env.store.inserted, 1)
	assert.Equal(t, int64(1), env.store.inserted[0].TimelineID)
	require.Len(t, env.publisher.jobs, 1)
	assert.Equal(t, []int64{1}, env.publisher.jobs[0].TimelineIDs)
}

func TestDetectTimelineOverlaps_AcceptableWorklineKeepBoth(t *testing.T) {
	env := overlapEnv(t)
	env.store.worklines[5] = domain.Workline{ID: 5, OverlapAcceptable: true}
	env.store.existing[1][0].WorklineID = int64Ptr(5)

	resp := env.do(t, http.MethodPost, "/timelines/1/overlaps", overlapRequest("keep-both", true))
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, 1, env.store.applyCalls)
	assert.Empty(t, env.store.deleteIDs)
}

func TestDetectTimelineOverlaps_CommitPublishesVacancies(t *testing.T) {
	env := overlapEnv(t)

	resp := env.do(t, http.MethodPost, "/timelines/1/overlaps", map[string]any{
		"candidates": []map[string]any{
			{"from": at(14, 0), "to": at(16, 0), "shiftTypeID": 1, "vacancyID": 3},
			{"from": at(17, 0), "to": at(19, 0), "shiftTypeID": 1, "vacancyID": 3},
			{"from": at(20, 0), "to": at(21, 0), "shiftTypeID": 1},
		},
		"commit": true,
	})
	require.True(t, resp.Success, resp.Message)

	require.Len(t, env.store.inserted, 3)
	require.NotNil(t, env.store.inserted[0].VacancyID)
	assert.Equal(t, int64(3), *env.store.inserted[0].VacancyID)
	assert.Nil(t, env.store.inserted[2].VacancyID)
	require.Len(t, env.publisher.jobs, 1)
	assert.Equal(t, []int64{1}, env.publisher.jobs[0].TimelineIDs)
	assert.Equal(t, []int64{3}, env.publisher.jobs[0].VacancyIDs)
}

func TestDetectTimelineOverlaps_ForeignTimeline(t *testing.T) {
	env := overlapEnv(t)

	resp := env.do(t, http.MethodPost, "/timelines/1/overlaps", map[string]any{
		"candidates": []map[string]any{
			{"timelineID": 2, "from": at(12, 0), "to": at(16, 0), "shiftTypeID": 1},
		},
	})
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ErrContainerChange.Error(), resp.Message)
}

func TestDetectTimelineOverlaps_TimelineNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/timelines/99/overlaps", overlapRequest("", false))
	assert.False(t, resp.Success)
	assert.Equal(t, "排班不存在", resp.Message)
}

func TestDeleteShiftPlan(t *testing.T) {
	env := overlapEnv(t)
	env.store.plans[10] = &env.store.existing[1][0]
	env.store.plans[10].VacancyID = int64Ptr(3)

	resp := env.do(t, http.MethodPost, "/timelines/1/plans/10/delete", nil)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, domain.LifecycleDeleted, env.store.lifecycles[10].State)
	require.Len(t, env.publisher.jobs, 1)
	assert.Equal(t, []int64{3}, env.publisher.jobs[0].VacancyIDs)

	// 已经删除的计划不能再次删除
	env.store.plans[10].Lifecycle = env.store.lifecycles[10]
	resp = env.do(t, http.MethodPost, "/timelines/1/plans/10/delete", nil)
	assert.False(t, resp.Success)
	assert.Equal(t, domain.ErrInvalidLifecycleTransition.Error(), resp.Message)
}

func TestRestoreShiftPlan_OtherTimeline(t *testing.T) {
	env := overlapEnv(t)
	env.store.plans[20] = &domain.ShiftPlan{ID: 20, TimelineID: 2, Lifecycle: domain.Lifecycle{State: domain.LifecycleDeleted}}

	resp := env.do(t, http.MethodPost, "/timelines/1/plans/20/restore", nil)
	assert.False(t, resp.Success)
	assert.Empty(t, env.store.lifecycles)
}

// ==================== 轮班模板 ====================

func TestCreateRotationTemplate_MissingRotationParameters(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/rotation-templates", map[string]any{
		"name":      "两班倒",
		"applyType": "days-on-off",
		"cells": []map[string]any{
			{"dayInfoCode": "0", "timeFrom": "09:00", "durationMinutes": 720, "shiftTypeID": 1},
		},
	})
	assert.False(t, resp.Success)
	assert.Empty(t, env.store.created)
}

func TestCreateRotationTemplate(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/rotation-templates", map[string]any{
		"name":      "周日值班",
		"applyType": "weekday",
		"cells": []map[string]any{
			{"dayInfoCode": "sunday", "timeFrom": "09:00", "durationMinutes": 480, "shiftTypeID": 1},
		},
	})
	require.True(t, resp.Success, resp.Message)
	require.Len(t, env.store.created, 1)
	assert.Equal(t, domain.ApplyWeekday, env.store.created[0].ApplyType)
}

func TestCreateRotationTemplate_UnknownDayInfoCode(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/rotation-templates", map[string]any{
		"name":      "周一值班",
		"applyType": "weekday",
		"cells": []map[string]any{
			{"dayInfoCode": "Mon", "timeFrom": "09:00", "durationMinutes": 480, "shiftTypeID": 1},
		},
	})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, domain.ErrInvalidTemplateCell.Error())
	assert.Empty(t, env.store.created)
}

func TestDeleteRotationTemplate(t *testing.T) {
	env := newTestEnv(t)
	env.store.templates[4] = &domain.RotationTemplate{ID: 4, Name: "旧模板", ApplyType: domain.ApplyWeekday}

	resp := env.do(t, http.MethodDelete, "/rotation-templates/4", nil)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, []int64{4}, env.store.deleted)
}

func TestGenerateShifts_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.store.timelines[1] = &domain.Timeline{ID: 1, TenantID: 1, MonthCode: "2025-03", TimeZone: "Asia/Shanghai"}
	env.store.templates[1] = &domain.RotationTemplate{
		ID:        1,
		Name:      "周日值班",
		ApplyType: domain.ApplyWeekday,
		Cells: []domain.TemplateCell{
			{ID: 1, DayInfoCode: "sunday", TimeFrom: domain.LocalTime{Hour: 9}, DurationMinutes: 480, ShiftTypeID: 1},
		},
	}

	resp := env.do(t, http.MethodPost, "/rotation-templates/1/generate", map[string]any{"timelineID": 1})
	require.True(t, resp.Success, resp.Message)

	var data struct {
		Plans   []domain.ShiftPlan `json:"plans"`
		Overlap overlap.Result     `json:"overlap"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	// 2025 年 3 月共有 5 个周日
	require.Len(t, data.Plans, 5)
	assert.True(t, time.Date(2025, time.March, 2, 1, 0, 0, 0, time.UTC).Equal(*data.Plans[0].Work.From))
	assert.False(t, data.Overlap.IsUnacceptableOverlappingExists)
	assert.Zero(t, env.store.applyCalls)
}

func generateEnv(t *testing.T) *testEnv {
	env := newTestEnv(t)
	env.store.timelines[1] = &domain.Timeline{ID: 1, TenantID: 1, MonthCode: "2025-03", TimeZone: "UTC"}
	env.store.templates[1] = &domain.RotationTemplate{
		ID:        1,
		Name:      "周一值班",
		ApplyType: domain.ApplyWeekday,
		Cells: []domain.TemplateCell{
			{ID: 1, DayInfoCode: "Monday", TimeFrom: domain.LocalTime{Hour: 9}, DurationMinutes: 60, ShiftTypeID: 1},
		},
	}
	return env
}

func TestGenerateShifts_PeriodWithinTimelineMonth(t *testing.T) {
	env := generateEnv(t)

	resp := env.do(t, http.MethodPost, "/rotation-templates/1/generate", map[string]any{
		"timelineID": 1,
		"from":       "2025-03-10",
		"to":         "2025-03-16",
		"vacancyID":  3,
		"commit":     true,
	})
	require.True(t, resp.Success, resp.Message)

	require.Len(t, env.store.inserted, 1)
	assert.True(t, time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC).Equal(*env.store.inserted[0].Work.From))
	require.Len(t, env.publisher.jobs, 1)
	assert.Equal(t, []int64{3}, env.publisher.jobs[0].VacancyIDs)
}

func TestGenerateShifts_RejectsPeriodOutsideTimelineMonth(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"explicit period in another month", map[string]any{"timelineID": 1, "from": "2025-04-01", "to": "2025-04-07", "commit": true}},
		{"period crossing month end", map[string]any{"timelineID": 1, "from": "2025-03-25", "to": "2025-04-02", "commit": true}},
		{"foreign month code", map[string]any{"timelineID": 1, "monthCode": "2025-04", "commit": true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := generateEnv(t)

			resp := env.do(t, http.MethodPost, "/rotation-templates/1/generate", tt.body)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, domain.ErrInvalidPeriod.Error())
			assert.Zero(t, env.store.applyCalls)
			assert.Empty(t, env.publisher.jobs)
		})
	}
}

// ==================== 缓存 ====================

func TestRecalculateCache(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/cache/recalculate", map[string]any{})
	assert.False(t, resp.Success)
	assert.Empty(t, env.publisher.jobs)

	resp = env.do(t, http.MethodPost, "/cache/recalculate", map[string]any{
		"timelineIDs": []int64{1, 2},
		"vacancyIDs":  []int64{3},
	})
	require.True(t, resp.Success, resp.Message)
	require.Len(t, env.publisher.jobs, 1)
	assert.Equal(t, []int64{1, 2}, env.publisher.jobs[0].TimelineIDs)
	assert.Equal(t, []int64{3}, env.publisher.jobs[0].VacancyIDs)
}

func TestApplyVacancyResponse_FloorsAtZero(t *testing.T) {
	env := newTestEnv(t)
	env.store.vacancies[3] = &domain.Vacancy{ID: 3, TimeZone: "UTC", ResponseCount: 2}

	resp := env.do(t, http.MethodPost, "/vacancies/3/responses", map[string]int{"delta": -5})
	require.True(t, resp.Success, resp.Message)
	require.Len(t, env.store.saved, 1)
	assert.Equal(t, 0, env.store.saved[0].ResponseCount)
	assert.Equal(t, 2, env.store.vacancies[3].ResponseCount)
}

// ==================== 容差配置 ====================

func TestUpdateStakeholderOptions(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/tenants/7/options", map[string]int{"allowableTimeLateShiftStartMin": 5})
	require.True(t, resp.Success, resp.Message)

	var opts domain.StakeholderOptions
	require.NoError(t, json.Unmarshal(resp.Data, &opts))
	assert.Equal(t, 5, opts.AllowableTimeLateShiftStartMin)
	assert.Equal(t, 5, env.store.overrides[7]["allowableTimeLateShiftStartMin"])
	assert.Equal(t, []int64{7}, env.options.invalidated)
}

func TestUpdateStakeholderOptions_Rejected(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/tenants/7/options", map[string]int{"noSuchOption": 5})
	assert.False(t, resp.Success)

	// 提前开始的容差不能小于准时开始的容差
	resp = env.do(t, http.MethodPut, "/tenants/7/options", map[string]int{"allowableTimeEarlyShiftStartMin": 10})
	assert.False(t, resp.Success)

	assert.Empty(t, env.store.overrides[7])
	assert.Empty(t, env.options.invalidated)
}
