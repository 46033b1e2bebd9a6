package overlap

import (
	"fmt"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// Policy 由调用方选择的重叠处理策略
type Policy int

const (
	// PolicyReject 存在不可接受的重叠时拒绝整批候选班次
	PolicyReject Policy = iota
	// PolicyReplaceExisting 软删除与候选班次重叠的已有班次
	PolicyReplaceExisting
	// PolicyKeepBoth 只保留可接受的重叠，不可接受时同样拒绝
	PolicyKeepBoth
)

func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyReplaceExisting:
		return "replace-existing"
	case PolicyKeepBoth:
		return "keep-both"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy 空字符串视为 PolicyReject
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "reject":
		return PolicyReject, nil
	case "replace-existing":
		return PolicyReplaceExisting, nil
	case "keep-both":
		return PolicyKeepBoth, nil
	default:
		return 0, fmt.Errorf("未知的重叠处理策略 %q", s)
	}
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Resolution 只是处理计划，执行由持久化层负责
type Resolution struct {
	DeleteExistingIDs []int64 `json:"deleteExistingIDs"`
}

// Resolve existingIDs 用于区分结果中哪些班次来自已有数据
func Resolve(result *Result, existingIDs map[int64]bool, policy Policy) (Resolution, error) {
	res := Resolution{DeleteExistingIDs: []int64{}}
	if result == nil {
		return res, nil
	}

	switch policy {
	case PolicyReject, PolicyKeepBoth:
		if result.IsUnacceptableOverlappingExists {
			return res, fmt.Errorf("%w: %v", domain.ErrUnacceptableOverlap, result.DayOfOverlapping.Unacceptable)
		}
		if policy == PolicyReject && result.IsAcceptableOverlappingExists {
			return res, fmt.Errorf("%w: %v", domain.ErrUnacceptableOverlap, result.DayOfOverlapping.Acceptable)
		}
		return res, nil
	case PolicyReplaceExisting:
		seen := make(map[int64]bool)
		for _, list := range [][]Shift{result.ShiftsWithOverlapping.Unacceptable, result.ShiftsWithOverlapping.Acceptable} {
			for _, s := range list {
				if existingIDs[s.ID] && !seen[s.ID] {
					seen[s.ID] = true
					res.DeleteExistingIDs = append(res.DeleteExistingIDs, s.ID)
				}
			}
		}
		// 候选班次之间的不可接受重叠无法通过删除已有班次解决
		for _, s := range result.ShiftsWithOverlapping.Unacceptable {
			if !existingIDs[s.ID] {
				return Resolution{DeleteExistingIDs: []int64{}}, fmt.Errorf("%w: 候选班次 %d", domain.ErrUnacceptableOverlap, s.ID)
			}
		}
		return res, nil
	default:
		return res, fmt.Errorf("未知的重叠处理策略 %d", policy)
	}
}
