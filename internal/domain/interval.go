package domain

import "time"

// Interval 表示一个工作区间，两端都可以为空
type Interval struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

func NewInterval(from, to time.Time) Interval {
	return Interval{From: &from, To: &to}
}

// IsComplete 两端都存在时才认为区间是完整的
func (i Interval) IsComplete() bool {
	return i.From != nil && i.To != nil
}

func (i Interval) Validate() error {
	if i.IsComplete() && i.From.After(*i.To) {
		return ErrInvalidInterval
	}
	return nil
}

// Duration 不完整的区间时长为 0
func (i Interval) Duration() time.Duration {
	if !i.IsComplete() {
		return 0
	}
	return i.To.Sub(*i.From)
}

type LifecycleState string

const (
	LifecycleActive  LifecycleState = "active"
	LifecycleDeleted LifecycleState = "deleted"
)

// Lifecycle 记录软删除/恢复的状态以及最近一次转换的时间
// 零值视为 active
type Lifecycle struct {
	State     LifecycleState `json:"state"`
	ChangedAt *time.Time     `json:"changedAt"`
}

func (l Lifecycle) IsActive() bool {
	return l.State != LifecycleDeleted
}

func (l *Lifecycle) Delete(at time.Time) error {
	if !l.IsActive() {
		return ErrInvalidLifecycleTransition
	}
	l.State = LifecycleDeleted
	l.ChangedAt = &at
	return nil
}

func (l *Lifecycle) Restore(at time.Time) error {
	if l.IsActive() {
		return ErrInvalidLifecycleTransition
	}
	l.State = LifecycleActive
	l.ChangedAt = &at
	return nil
}
