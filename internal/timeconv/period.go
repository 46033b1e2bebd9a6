package timeconv

import (
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// wellFormed 有一端为空的区间视为开放区间；否则要求 From <= To
func wellFormed(p domain.Interval) bool {
	if !p.IsComplete() {
		return true
	}
	return !p.From.After(*p.To)
}

// precedes 判断 a 是否完全位于 b 之前，首尾相接也算作在之前
func precedes(a, b domain.Interval) bool {
	if a.To == nil || b.From == nil {
		return false
	}
	return !a.To.After(*b.From)
}

// PeriodsIntersect 两个区间都合法且互不完全先于对方时相交
func PeriodsIntersect(p1, p2 domain.Interval) bool {
	if !wellFormed(p1) || !wellFormed(p2) {
		return false
	}
	return !precedes(p1, p2) && !precedes(p2, p1)
}

// PeriodContains 空的一端分别视为负无穷和正无穷
func PeriodContains(outer, inner domain.Interval) bool {
	if outer.From != nil {
		if inner.From == nil || inner.From.Before(*outer.From) {
			return false
		}
	}
	if outer.To != nil {
		if inner.To == nil || inner.To.After(*outer.To) {
			return false
		}
	}
	return true
}

// Span 返回两个时间点组成的区间，便于测试和调用方构造
func Span(from, to time.Time) domain.Interval {
	return domain.NewInterval(from, to)
}
