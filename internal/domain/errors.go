package domain

import (
	"errors"
	"fmt"
)

// 输入不合法的错误：不可重试，直接返回给调用方，且不能部分生效
var (
	ErrInvalidTimeZone           = errors.New("无法识别的时区")
	ErrInvalidMonthCode          = errors.New("月份编码格式错误")
	ErrInvalidDate               = errors.New("日期格式错误")
	ErrInvalidTime               = errors.New("时间格式错误")
	ErrInvalidInterval           = errors.New("区间的结束时间不能早于开始时间")
	ErrInvalidPeriod             = errors.New("周期的结束日期不能早于开始日期")
	ErrMissingRotationParameters = errors.New("轮班模板缺少起始日期或周期长度")
	ErrInvalidTemplateCell       = errors.New("轮班模板单元格不合法")
	ErrOwnershipMismatch         = errors.New("记录不属于当前排班容器")
	ErrInvalidOptions            = errors.New("容差配置不合法")
	ErrUnknownOption             = errors.New("未知的容差配置项")
	ErrCandidateSetTooLarge      = errors.New("候选班次数量超过上限")
)

// 调用方违反约定的错误：属于编程错误，而不是数据错误
var (
	ErrContainerChange            = errors.New("不允许将班次计划移动到其他排班容器")
	ErrPlanHasFacts               = errors.New("班次计划已经存在实际记录，不允许修改时间")
	ErrInvalidLifecycleTransition = errors.New("非法的生命周期状态转换")
)

// ErrUnacceptableOverlap 表示按照调用方选择的策略，存在不可接受的重叠
var ErrUnacceptableOverlap = errors.New("存在不可接受的班次重叠")

type InvalidTimeZoneError struct {
	Zone string
}

func (e *InvalidTimeZoneError) Error() string {
	return fmt.Sprintf("无法识别的时区 %q", e.Zone)
}

func (e *InvalidTimeZoneError) Unwrap() error {
	return ErrInvalidTimeZone
}

type InvalidMonthCodeError struct {
	Code string
}

func (e *InvalidMonthCodeError) Error() string {
	return fmt.Sprintf("月份编码 %q 格式错误，应为 YYYY-MM", e.Code)
}

func (e *InvalidMonthCodeError) Unwrap() error {
	return ErrInvalidMonthCode
}

type MissingRotationParametersError struct {
	TemplateID int64
	Field      string
}

func (e *MissingRotationParametersError) Error() string {
	return fmt.Sprintf("轮班模板 %d 缺少参数 %s", e.TemplateID, e.Field)
}

func (e *MissingRotationParametersError) Unwrap() error {
	return ErrMissingRotationParameters
}

// OwnershipError 记录了哪一行数据指向了错误的容器
type OwnershipError struct {
	Kind     string // "plan" 或 "fact"
	RowID    int64
	Expected int64
	Actual   int64
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s %d 属于容器 %d，而不是 %d", e.Kind, e.RowID, e.Actual, e.Expected)
}

func (e *OwnershipError) Unwrap() error {
	return ErrOwnershipMismatch
}

// IsInputError 判断错误是否由不合法的输入导致
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrInvalidTimeZone,
		ErrInvalidMonthCode,
		ErrInvalidDate,
		ErrInvalidTime,
		ErrInvalidInterval,
		ErrInvalidPeriod,
		ErrMissingRotationParameters,
		ErrInvalidTemplateCell,
		ErrOwnershipMismatch,
		ErrInvalidOptions,
		ErrUnknownOption,
		ErrCandidateSetTooLarge,
		ErrUnacceptableOverlap,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsContractViolation 判断错误是否属于调用方的编程错误
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContainerChange) ||
		errors.Is(err, ErrPlanHasFacts) ||
		errors.Is(err, ErrInvalidLifecycleTransition)
}
