package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/overlap"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

type candidateShift struct {
	TimelineID  *int64    `json:"timelineID"`
	From        time.Time `json:"from" validate:"required"`
	To          time.Time `json:"to" validate:"required,gtefield=From"`
	ShiftTypeID int64     `json:"shiftTypeID" validate:"required"`
	WorklineID  *int64    `json:"worklineID"`
	VacancyID   *int64    `json:"vacancyID"`
}

type overlapCheck struct {
	Result      *overlap.Result `json:"result"`
	existingIDs map[int64]bool
}

// planResult 是检测（以及可选的提交）之后返回给前端的数据
type planResult struct {
	Plans      []domain.ShiftPlan  `json:"plans"`
	Overlap    *overlap.Result     `json:"overlap"`
	Committed  bool                `json:"committed"`
	Resolution *overlap.Resolution `json:"resolution"`
	JobID      *string             `json:"jobID"`
}

// checkOverlaps 候选计划还没有 ID，使用负数作为临时 ID 以便和已有计划区分
func (h *Handler) checkOverlaps(ctx context.Context, tl *domain.Timeline, plans []domain.ShiftPlan) (*overlapCheck, error) {
	loc, err := timeconv.LoadZone(tl.TimeZone)
	if err != nil {
		return nil, err
	}

	existing, err := h.store.GetExistingShiftPlans(ctx, tl.ID)
	if err != nil {
		return nil, err
	}

	worklineSet := make(map[int64]bool)
	for _, list := range [][]domain.ShiftPlan{plans, existing} {
		for _, p := range list {
			if p.WorklineID != nil {
				worklineSet[*p.WorklineID] = true
			}
		}
	}
	worklineIDs := make([]int64, 0, len(worklineSet))
	for id := range worklineSet {
		worklineIDs = append(worklineIDs, id)
	}
	worklineRows, err := h.store.GetWorklines(ctx, worklineIDs)
	if err != nil {
		return nil, err
	}
	worklines := make(map[int64]domain.Workline, len(worklineRows))
	for _, wl := range worklineRows {
		worklines[wl.ID] = wl
	}

	desirable := make([]overlap.Shift, 0, len(plans))
	for i, p := range plans {
		if s, ok := overlap.ShiftFromPlan(p, worklines, loc); ok {
			s.ID = -int64(i + 1)
			desirable = append(desirable, s)
		}
	}

	check := &overlapCheck{existingIDs: make(map[int64]bool, len(existing))}
	existingShifts := make([]overlap.Shift, 0, len(existing))
	for _, p := range existing {
		if s, ok := overlap.ShiftFromPlan(p, worklines, loc); ok {
			existingShifts = append(existingShifts, s)
			check.existingIDs[s.ID] = true
		}
	}

	detector := overlap.NewDetector(overlap.KeyByTimeline, h.config.Engine.MaxOverlapCandidates)
	results, err := detector.Detect(desirable, existingShifts)
	if err != nil {
		return nil, err
	}

	check.Result = results[overlap.KeyByTimeline(overlap.Shift{TimelineID: tl.ID})]
	if check.Result == nil {
		check.Result = overlap.NewResult()
	}
	return check, nil
}

// commitPlans 按策略处理重叠后写入计划，并提交缓存重算任务
func (h *Handler) commitPlans(ctx context.Context, tl *domain.Timeline, plans []domain.ShiftPlan, check *overlapCheck, policy overlap.Policy, out *planResult) error {
	resolution, err := overlap.Resolve(check.Result, check.existingIDs, policy)
	if err != nil {
		return err
	}

	now := time.Now()
	if err := h.store.ApplyShiftPlanChanges(ctx, resolution.DeleteExistingIDs, now, plans); err != nil {
		return err
	}
	out.Plans = plans
	out.Resolution = &resolution
	out.Committed = true

	// 新计划所填补的空缺岗位也需要重算
	vacancyIDs := make([]int64, 0)
	seen := make(map[int64]bool)
	for _, p := range plans {
		if p.VacancyID != nil && !seen[*p.VacancyID] {
			seen[*p.VacancyID] = true
			vacancyIDs = append(vacancyIDs, *p.VacancyID)
		}
	}

	job := domain.NewRecalcJob([]int64{tl.ID}, vacancyIDs, now)
	if err := h.publisher.Publish(ctx, job); err != nil {
		return err
	}
	jobID := job.JobID.String()
	out.JobID = &jobID
	return nil
}

func (h *Handler) DetectTimelineOverlaps(w http.ResponseWriter, r *http.Request) {
	tl := r.Context().Value(TimelineCtx).(*domain.Timeline)

	var req struct {
		Candidates []candidateShift `json:"candidates" validate:"required,min=1,dive"`
		Policy     overlap.Policy   `json:"policy"`
		Commit     bool             `json:"commit"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	plans := make([]domain.ShiftPlan, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		plan := domain.ShiftPlan{
			TimelineID:  tl.ID,
			Work:        domain.NewInterval(c.From, c.To),
			ShiftTypeID: c.ShiftTypeID,
			WorklineID:  c.WorklineID,
			VacancyID:   c.VacancyID,
		}
		if c.TimelineID != nil {
			// 候选计划不能指向其他排班
			plan.TimelineID = *c.TimelineID
			if err := plan.MoveTo(tl.ID); err != nil {
				h.domainError(w, r, err, "")
				return
			}
		}
		plans = append(plans, plan)
	}

	check, err := h.checkOverlaps(r.Context(), tl, plans)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	out := &planResult{Plans: plans, Overlap: check.Result}
	if req.Commit {
		if err := h.commitPlans(r.Context(), tl, plans, check, req.Policy, out); err != nil {
			h.domainError(w, r, err, "")
			return
		}
	}

	h.successResponse(w, r, "重叠检测完成", out)
}

func (h *Handler) DeleteShiftPlan(w http.ResponseWriter, r *http.Request) {
	h.changeShiftPlanLifecycle(w, r, (*domain.Lifecycle).Delete, "删除班次计划成功")
}

func (h *Handler) RestoreShiftPlan(w http.ResponseWriter, r *http.Request) {
	h.changeShiftPlanLifecycle(w, r, (*domain.Lifecycle).Restore, "恢复班次计划成功")
}

// changeShiftPlanLifecycle 软删除或恢复之后，该计划所在的排班和空缺岗位都需要重算
func (h *Handler) changeShiftPlanLifecycle(w http.ResponseWriter, r *http.Request, transition func(*domain.Lifecycle, time.Time) error, msg string) {
	tl := r.Context().Value(TimelineCtx).(*domain.Timeline)

	planID, ok := urlID(r, "planID")
	if !ok {
		h.errorResponse(w, r, "班次计划ID无效")
		return
	}

	plan, err := h.store.GetShiftPlan(r.Context(), planID)
	if err != nil {
		h.domainError(w, r, err, "班次计划不存在")
		return
	}
	if plan.TimelineID != tl.ID {
		h.errorResponse(w, r, "班次计划不存在")
		return
	}

	now := time.Now()
	if err := transition(&plan.Lifecycle, now); err != nil {
		h.domainError(w, r, err, "")
		return
	}
	if err := h.store.SetShiftPlanLifecycle(r.Context(), plan.ID, plan.Lifecycle); err != nil {
		h.domainError(w, r, err, "班次计划不存在")
		return
	}

	vacancyIDs := []int64{}
	if plan.VacancyID != nil {
		vacancyIDs = append(vacancyIDs, *plan.VacancyID)
	}
	if err := h.publisher.Publish(r.Context(), domain.NewRecalcJob([]int64{tl.ID}, vacancyIDs, now)); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, msg, plan)
}
