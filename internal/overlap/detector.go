package overlap

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

// DefaultMaxCandidates 大约是一个月按小时排班的数量
const DefaultMaxCandidates = 744

type Detector struct {
	key           KeyFunc
	maxCandidates int
}

// NewDetector maxCandidates <= 0 时不限制候选数量
func NewDetector(key KeyFunc, maxCandidates int) *Detector {
	if key == nil {
		key = KeyByTimeline
	}
	return &Detector{key: key, maxCandidates: maxCandidates}
}

// Detect 使用不限制候选数量的检测器
func Detect(desirable, existing []Shift, key KeyFunc) map[string]*Result {
	results, _ := NewDetector(key, 0).Detect(desirable, existing)
	return results
}

// Detect 按容器分组后分两轮检测，不会修改任何输入
func (d *Detector) Detect(desirable, existing []Shift) (map[string]*Result, error) {
	candidateIDs := make(map[int64]bool, len(desirable))
	groups := make(map[string][]Shift)
	order := []string{}
	for _, s := range desirable {
		candidateIDs[s.ID] = true
		k := d.key(s)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], s)
	}

	for _, k := range order {
		if d.maxCandidates > 0 && len(groups[k]) > d.maxCandidates {
			return nil, fmt.Errorf("%w: 容器 %s 有 %d 个候选班次，上限为 %d", domain.ErrCandidateSetTooLarge, k, len(groups[k]), d.maxCandidates)
		}
	}

	// 已有班次中需要排除候选班次本身
	existingGroups := make(map[string][]Shift)
	for _, s := range existing {
		if candidateIDs[s.ID] {
			continue
		}
		k := d.key(s)
		existingGroups[k] = append(existingGroups[k], s)
	}

	results := make(map[string]*Result, len(groups))
	for _, k := range order {
		acc := newAccumulator()
		acc.desirablePairs(groups[k])
		acc.existingAgainstDesirable(existingGroups[k], groups[k])
		results[k] = acc.result()
	}
	return results, nil
}

type accumulator struct {
	acceptableDays   map[string]bool
	unacceptableDays map[string]bool
	acceptable       []Shift
	unacceptable     []Shift
	seenAcceptable   map[int64]bool
	seenUnacceptable map[int64]bool
}

func newAccumulator() *accumulator {
	return &accumulator{
		acceptableDays:   make(map[string]bool),
		unacceptableDays: make(map[string]bool),
		seenAcceptable:   make(map[int64]bool),
		seenUnacceptable: make(map[int64]bool),
	}
}

// desirablePairs 第一轮：候选班次两两比较（上三角）
func (a *accumulator) desirablePairs(shifts []Shift) {
	for i := 0; i < len(shifts); i++ {
		for j := i + 1; j < len(shifts); j++ {
			si, sj := shifts[i], shifts[j]
			if !timeconv.PeriodsIntersect(si.interval(), sj.interval()) {
				continue
			}

			ok := si.OverlapAcceptable || sj.OverlapAcceptable

			// 重叠部分：较晚的开始到较早的结束
			start := si.From
			if sj.From.After(start) {
				start = sj.From
			}
			end := si.To
			if sj.To.Before(end) {
				end = sj.To
			}
			loc := si.location()
			for _, day := range timeconv.DatesBetween(timeconv.DateOf(start, loc), timeconv.DateOf(end, loc)) {
				a.addDay(day.String(), ok)
			}

			a.addShift(si, ok)
			a.addShift(sj, ok)
		}
	}
}

// existingAgainstDesirable 第二轮：每个已有班次只取第一个与之重叠的候选班次
func (a *accumulator) existingAgainstDesirable(existing, desirable []Shift) {
	for _, e := range existing {
		for _, d := range desirable {
			if !timeconv.PeriodsIntersect(e.interval(), d.interval()) {
				continue
			}

			ok := e.OverlapAcceptable || d.OverlapAcceptable
			loc := e.location()
			a.addDay(timeconv.DateOf(e.From, loc).String(), ok)
			a.addDay(timeconv.DateOf(e.To, loc).String(), ok)
			a.addShift(e, ok)
			break
		}
	}
}

func (a *accumulator) addDay(day string, acceptable bool) {
	if acceptable {
		a.acceptableDays[day] = true
	} else {
		a.unacceptableDays[day] = true
	}
}

func (a *accumulator) addShift(s Shift, acceptable bool) {
	if acceptable {
		if !a.seenAcceptable[s.ID] {
			a.seenAcceptable[s.ID] = true
			a.acceptable = append(a.acceptable, s)
		}
		return
	}
	if !a.seenUnacceptable[s.ID] {
		a.seenUnacceptable[s.ID] = true
		a.unacceptable = append(a.unacceptable, s)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (a *accumulator) result() *Result {
	r := NewResult()
	r.DayOfOverlapping.Acceptable = sortedKeys(a.acceptableDays)
	r.DayOfOverlapping.Unacceptable = sortedKeys(a.unacceptableDays)
	if a.acceptable != nil {
		r.ShiftsWithOverlapping.Acceptable = a.acceptable
	}
	if a.unacceptable != nil {
		r.ShiftsWithOverlapping.Unacceptable = a.unacceptable
	}
	r.IsAcceptableOverlappingExists = len(r.DayOfOverlapping.Acceptable) > 0
	r.IsUnacceptableOverlappingExists = len(r.DayOfOverlapping.Unacceptable) > 0
	return r
}
