package domain

type ShiftType struct {
	ID        int64  `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	IsWorking bool   `json:"isWorking"`
}

type Workline struct {
	ID                int64  `json:"id"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	OverlapAcceptable bool   `json:"overlapAcceptable"`
}

// ShiftPlan 计划班次，归属于员工的月度排班（TimelineID）或者某个空缺岗位（VacancyID）
type ShiftPlan struct {
	ID          int64     `json:"id"`
	TimelineID  int64     `json:"timelineID"`
	VacancyID   *int64    `json:"vacancyID"`
	Work        Interval  `json:"work"`
	ShiftTypeID int64     `json:"shiftTypeID"`
	WorklineID  *int64    `json:"worklineID"`
	Lifecycle   Lifecycle `json:"lifecycle"`
	Version     int32     `json:"-"`
}

// MoveTo 班次计划不能换容器，传入相同的容器 ID 视为无操作
func (p *ShiftPlan) MoveTo(timelineID int64) error {
	if p.TimelineID != timelineID {
		return ErrContainerChange
	}
	return nil
}

// Reschedule 修改班次计划的时间，已经存在实际记录时不允许修改
func (p *ShiftPlan) Reschedule(work Interval, hasFacts bool) error {
	if hasFacts {
		return ErrPlanHasFacts
	}
	if !work.IsComplete() {
		return ErrInvalidInterval
	}
	if err := work.Validate(); err != nil {
		return err
	}
	p.Work = work
	return nil
}

// ShiftFact 实际出勤记录，可以不关联任何计划
type ShiftFact struct {
	ID             int64     `json:"id"`
	TimelineID     int64     `json:"timelineID"`
	PlanID         *int64    `json:"planID"`
	Work           Interval  `json:"work"`
	Penalty        bool      `json:"penalty"`
	PenaltyMinutes int       `json:"penaltyMinutes"`
	ShiftTypeID    int64     `json:"shiftTypeID"`
	WorklineID     *int64    `json:"worklineID"`
	Lifecycle      Lifecycle `json:"lifecycle"`
	Version        int32     `json:"-"`
}

// ShiftTypeIndex 按 ID 索引班次类型，找不到的类型视为非工作班次
type ShiftTypeIndex map[int64]ShiftType

func NewShiftTypeIndex(types []ShiftType) ShiftTypeIndex {
	idx := make(ShiftTypeIndex, len(types))
	for _, t := range types {
		idx[t.ID] = t
	}
	return idx
}

func (idx ShiftTypeIndex) IsWorking(id int64) bool {
	t, ok := idx[id]
	return ok && t.IsWorking
}
