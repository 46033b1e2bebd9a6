// Package reconcile 比较计划班次与实际出勤记录：判断偏差是否可接受，并计算计费分钟数
package reconcile

import (
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// Deviation 两个标记不会同时为 true；都为 false 表示按时
type Deviation struct {
	Unacceptable bool `json:"unacceptable"`
	Acceptable   bool `json:"acceptable"`
}

func (d Deviation) merge(other Deviation) Deviation {
	out := Deviation{
		Unacceptable: d.Unacceptable || other.Unacceptable,
		Acceptable:   d.Acceptable || other.Acceptable,
	}
	if out.Unacceptable {
		out.Acceptable = false
	}
	return out
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// ClassifyDeviation 计划必须是完整区间；实际记录缺少任意一端都直接视为不可接受
func ClassifyDeviation(plan, fact domain.Interval, opts domain.StakeholderOptions) Deviation {
	if !fact.IsComplete() || !plan.IsComplete() {
		return Deviation{Unacceptable: true}
	}

	// 正数表示来得早，负数表示迟到
	startDiff := plan.From.Sub(*fact.From)
	// 正数表示早退，负数表示晚走
	finishDiff := plan.To.Sub(*fact.To)

	return classifyStart(startDiff, opts).merge(classifyFinish(finishDiff, opts))
}

func classifyStart(diff time.Duration, opts domain.StakeholderOptions) Deviation {
	early := minutes(opts.AllowableTimeEarlyShiftStartMin)
	late := minutes(opts.AllowableTimeLateShiftStartMin)
	inTime := minutes(opts.AllowableInTimeShiftStartMin)

	switch {
	case diff > early || diff < -late:
		return Deviation{Unacceptable: true}
	case diff > inTime:
		return Deviation{Acceptable: true}
	case diff < 0:
		return Deviation{Acceptable: true}
	default:
		return Deviation{}
	}
}

func classifyFinish(diff time.Duration, opts domain.StakeholderOptions) Deviation {
	early := minutes(opts.AllowableTimeEarlyShiftFinishMin)
	late := minutes(opts.AllowableTimeLateShiftFinishMin)
	inTime := minutes(opts.AllowableInTimeShiftFinishMin)

	switch {
	case diff > early || diff < -late:
		return Deviation{Unacceptable: true}
	case diff > 0:
		return Deviation{Acceptable: true}
	case diff < -inTime:
		return Deviation{Acceptable: true}
	default:
		return Deviation{}
	}
}
