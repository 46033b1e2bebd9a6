package overlap_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/overlap"
)

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func shift(id int64, day, fromH, toH int, acceptable bool) overlap.Shift {
	return overlap.Shift{
		ID:                id,
		TimelineID:        1,
		From:              at(day, fromH),
		To:                at(day, toH),
		OverlapAcceptable: acceptable,
	}
}

const key = "timeline:1"

// ==================== 第一轮：候选班次之间 ====================

func TestDetect_TwoCandidatesUnacceptable(t *testing.T) {
	a := shift(1, 10, 9, 13, false)
	b := shift(2, 10, 12, 16, false)

	results := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)
	require.Contains(t, results, key)
	r := results[key]

	assert.Equal(t, []string{"2025-03-10"}, r.DayOfOverlapping.Unacceptable)
	assert.Empty(t, r.DayOfOverlapping.Acceptable)
	assert.Equal(t, []overlap.Shift{a, b}, r.ShiftsWithOverlapping.Unacceptable)
	assert.True(t, r.IsUnacceptableOverlappingExists)
	assert.False(t, r.IsAcceptableOverlappingExists)
}

func TestDetect_AcceptableWhenEitherWorklineAllows(t *testing.T) {
	a := shift(1, 10, 9, 13, true)
	b := shift(2, 10, 12, 16, false)

	r := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)[key]
	assert.Equal(t, []string{"2025-03-10"}, r.DayOfOverlapping.Acceptable)
	assert.Empty(t, r.DayOfOverlapping.Unacceptable)
	assert.True(t, r.IsAcceptableOverlappingExists)
	assert.False(t, r.IsUnacceptableOverlappingExists)
}

func TestDetect_BackToBackShiftsDoNotOverlap(t *testing.T) {
	a := shift(1, 10, 9, 13, false)
	b := shift(2, 10, 13, 17, false)

	r := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)[key]
	assert.False(t, r.IsUnacceptableOverlappingExists)
	assert.False(t, r.IsAcceptableOverlappingExists)
	assert.Empty(t, r.ShiftsWithOverlapping.Unacceptable)
}

func TestDetect_OvernightOverlapCoversBothDays(t *testing.T) {
	a := overlap.Shift{ID: 1, TimelineID: 1, From: at(10, 20), To: at(11, 8)}
	b := overlap.Shift{ID: 2, TimelineID: 1, From: at(10, 22), To: at(11, 4)}

	r := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)[key]
	assert.Equal(t, []string{"2025-03-10", "2025-03-11"}, r.DayOfOverlapping.Unacceptable)
}

func TestDetect_DaysUseShiftLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	// UTC 3 月 10 日 18:00 是上海 3 月 11 日 02:00
	a := overlap.Shift{ID: 1, TimelineID: 1, From: at(10, 17), To: at(10, 20), Location: loc}
	b := overlap.Shift{ID: 2, TimelineID: 1, From: at(10, 18), To: at(10, 21), Location: loc}

	r := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)[key]
	assert.Equal(t, []string{"2025-03-11"}, r.DayOfOverlapping.Unacceptable)
}

func TestDetect_GroupsByContainer(t *testing.T) {
	a := shift(1, 10, 9, 13, false)
	b := shift(2, 10, 12, 16, false)
	b.TimelineID = 2

	results := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.IsUnacceptableOverlappingExists)
	}
}

func TestDetect_KeyByVacancy(t *testing.T) {
	vacancy := int64(7)
	a := shift(1, 10, 9, 13, false)
	b := shift(2, 10, 12, 16, false)
	a.VacancyID, b.VacancyID = &vacancy, &vacancy
	b.TimelineID = 2

	results := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByVacancy)
	require.Contains(t, results, "vacancy:7")
	assert.True(t, results["vacancy:7"].IsUnacceptableOverlappingExists)
}

// ==================== 第二轮：已有班次 ====================

func TestDetect_ExistingRecordsItsOwnStartAndEndDays(t *testing.T) {
	candidate := shift(1, 11, 2, 6, false)
	existing := overlap.Shift{ID: 10, TimelineID: 1, From: at(10, 22), To: at(11, 6)}

	r := overlap.Detect([]overlap.Shift{candidate}, []overlap.Shift{existing}, overlap.KeyByTimeline)[key]
	assert.Equal(t, []string{"2025-03-10", "2025-03-11"}, r.DayOfOverlapping.Unacceptable)
	// 第二轮只加入已有班次
	assert.Equal(t, []overlap.Shift{existing}, r.ShiftsWithOverlapping.Unacceptable)
}

func TestDetect_ExistingOnlyMatchesFirstCandidate(t *testing.T) {
	c1 := shift(1, 10, 9, 11, true)
	c2 := shift(2, 10, 11, 13, false)
	existing := shift(10, 10, 8, 14, false)

	r := overlap.Detect([]overlap.Shift{c1, c2}, []overlap.Shift{existing}, overlap.KeyByTimeline)[key]
	assert.Equal(t, []overlap.Shift{existing}, r.ShiftsWithOverlapping.Acceptable)
	assert.Empty(t, r.ShiftsWithOverlapping.Unacceptable)
	assert.False(t, r.IsUnacceptableOverlappingExists)
}

func TestDetect_ExistingWithCandidateIDIsExcluded(t *testing.T) {
	candidate := shift(1, 10, 9, 13, false)
	stale := shift(1, 10, 10, 12, false)

	r := overlap.Detect([]overlap.Shift{candidate}, []overlap.Shift{stale}, overlap.KeyByTimeline)[key]
	assert.False(t, r.IsUnacceptableOverlappingExists)
}

func TestDetect_ShiftListsDeduplicated(t *testing.T) {
	a := shift(1, 10, 9, 13, false)
	b := shift(2, 10, 10, 14, false)
	c := shift(3, 10, 11, 15, false)

	r := overlap.Detect([]overlap.Shift{a, b, c}, nil, overlap.KeyByTimeline)[key]
	assert.Equal(t, []overlap.Shift{a, b, c}, r.ShiftsWithOverlapping.Unacceptable)
	assert.Equal(t, []string{"2025-03-10"}, r.DayOfOverlapping.Unacceptable)
}

func TestDetect_Idempotent(t *testing.T) {
	desirable := []overlap.Shift{shift(1, 10, 9, 13, false), shift(2, 10, 12, 16, true)}
	existing := []overlap.Shift{shift(10, 10, 15, 18, false)}

	first := overlap.Detect(desirable, existing, overlap.KeyByTimeline)
	second := overlap.Detect(desirable, existing, overlap.KeyByTimeline)
	assert.Equal(t, first, second)
}

func TestDetector_CandidateBound(t *testing.T) {
	desirable := []overlap.Shift{shift(1, 10, 1, 2, false), shift(2, 10, 3, 4, false), shift(3, 10, 5, 6, false)}

	_, err := overlap.NewDetector(overlap.KeyByTimeline, 2).Detect(desirable, nil)
	assert.ErrorIs(t, err, domain.ErrCandidateSetTooLarge)

	results, err := overlap.NewDetector(overlap.KeyByTimeline, overlap.DefaultMaxCandidates).Detect(desirable, nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

// ==================== 处理策略 ====================

func TestResolve(t *testing.T) {
	candidate := shift(1, 10, 9, 13, false)
	existing := shift(10, 10, 12, 16, false)
	existingIDs := map[int64]bool{10: true}
	r := overlap.Detect([]overlap.Shift{candidate}, []overlap.Shift{existing}, overlap.KeyByTimeline)[key]

	_, err := overlap.Resolve(r, existingIDs, overlap.PolicyReject)
	assert.ErrorIs(t, err, domain.ErrUnacceptableOverlap)

	_, err = overlap.Resolve(r, existingIDs, overlap.PolicyKeepBoth)
	assert.ErrorIs(t, err, domain.ErrUnacceptableOverlap)

	plan, err := overlap.Resolve(r, existingIDs, overlap.PolicyReplaceExisting)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, plan.DeleteExistingIDs)
}

func TestResolve_KeepBothAllowsAcceptable(t *testing.T) {
	a := shift(1, 10, 9, 13, true)
	b := shift(2, 10, 12, 16, false)
	r := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)[key]

	plan, err := overlap.Resolve(r, nil, overlap.PolicyKeepBoth)
	require.NoError(t, err)
	assert.Empty(t, plan.DeleteExistingIDs)

	_, err = overlap.Resolve(r, nil, overlap.PolicyReject)
	assert.ErrorIs(t, err, domain.ErrUnacceptableOverlap)
}

func TestResolve_ReplaceCannotFixCandidateConflicts(t *testing.T) {
	a := shift(1, 10, 9, 13, false)
	b := shift(2, 10, 12, 16, false)
	r := overlap.Detect([]overlap.Shift{a, b}, nil, overlap.KeyByTimeline)[key]

	_, err := overlap.Resolve(r, nil, overlap.PolicyReplaceExisting)
	assert.ErrorIs(t, err, domain.ErrUnacceptableOverlap)
}

func TestParsePolicy(t *testing.T) {
	for _, p := range []overlap.Policy{overlap.PolicyReject, overlap.PolicyReplaceExisting, overlap.PolicyKeepBoth} {
		parsed, err := overlap.ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	parsed, err := overlap.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, overlap.PolicyReject, parsed)

	_, err = overlap.ParsePolicy("merge")
	assert.Error(t, err)
}
