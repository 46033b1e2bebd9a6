// Package overlap 检测同一排班容器内候选班次之间、以及候选班次与已有班次之间的时间重叠
package overlap

import (
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// Shift 参与重叠检测的班次
type Shift struct {
	ID                int64          `json:"id"`
	TimelineID        int64          `json:"timelineID"`
	VacancyID         *int64         `json:"vacancyID"`
	From              time.Time      `json:"from"`
	To                time.Time      `json:"to"`
	WorklineID        *int64         `json:"worklineID"`
	OverlapAcceptable bool           `json:"overlapAcceptable"`
	Location          *time.Location `json:"-"` // 为空时按 UTC 计算日期
}

func (s Shift) interval() domain.Interval {
	return domain.NewInterval(s.From, s.To)
}

func (s Shift) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// KeyFunc 决定班次属于哪个容器
type KeyFunc func(Shift) string

func KeyByTimeline(s Shift) string {
	return "timeline:" + strconv.FormatInt(s.TimelineID, 10)
}

func KeyByVacancy(s Shift) string {
	if s.VacancyID == nil {
		return "vacancy:none"
	}
	return "vacancy:" + strconv.FormatInt(*s.VacancyID, 10)
}

type DaySets struct {
	Acceptable   []string `json:"acceptable"`
	Unacceptable []string `json:"unacceptable"`
}

type ShiftLists struct {
	Acceptable   []Shift `json:"acceptable"`
	Unacceptable []Shift `json:"unacceptable"`
}

// Result 单个容器的检测结果
type Result struct {
	DayOfOverlapping                DaySets    `json:"dayOfOverlapping"`
	ShiftsWithOverlapping           ShiftLists `json:"shiftsWithOverlapping"`
	IsAcceptableOverlappingExists   bool       `json:"isAcceptableOverlappingExists"`
	IsUnacceptableOverlappingExists bool       `json:"isUnacceptableOverlappingExists"`
}

// NewResult 返回没有任何重叠的结果
func NewResult() *Result {
	return &Result{
		DayOfOverlapping:      DaySets{Acceptable: []string{}, Unacceptable: []string{}},
		ShiftsWithOverlapping: ShiftLists{Acceptable: []Shift{}, Unacceptable: []Shift{}},
	}
}

// ShiftFromPlan 把班次计划转换为检测所需的结构，worklines 用于判断是否允许重叠
func ShiftFromPlan(plan domain.ShiftPlan, worklines map[int64]domain.Workline, loc *time.Location) (Shift, bool) {
	if !plan.Work.IsComplete() {
		return Shift{}, false
	}
	s := Shift{
		ID:         plan.ID,
		TimelineID: plan.TimelineID,
		VacancyID:  plan.VacancyID,
		From:       *plan.Work.From,
		To:         *plan.Work.To,
		WorklineID: plan.WorklineID,
		Location:   loc,
	}
	if plan.WorklineID != nil {
		s.OverlapAcceptable = worklines[*plan.WorklineID].OverlapAcceptable
	}
	return s, true
}
