package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecalcJob 缓存重算任务，通过消息队列交给 worker 执行
type RecalcJob struct {
	JobID       uuid.UUID `json:"jobID"`
	TimelineIDs []int64   `json:"timelineIDs"`
	VacancyIDs  []int64   `json:"vacancyIDs"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewRecalcJob(timelineIDs, vacancyIDs []int64, now time.Time) *RecalcJob {
	if timelineIDs == nil {
		timelineIDs = []int64{}
	}
	if vacancyIDs == nil {
		vacancyIDs = []int64{}
	}
	return &RecalcJob{
		JobID:       uuid.New(),
		TimelineIDs: timelineIDs,
		VacancyIDs:  vacancyIDs,
		RequestedAt: now,
	}
}

func (j *RecalcJob) IsEmpty() bool {
	return len(j.TimelineIDs) == 0 && len(j.VacancyIDs) == 0
}
