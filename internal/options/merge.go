// Package options 合并默认容差与租户自定义容差，并提供带缓存的读取
package options

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// setters 覆盖项的键名与 JSON 字段名保持一致
var setters = map[string]func(*domain.StakeholderOptions, int){
	"allowableTimeLateShiftStartMin":   func(o *domain.StakeholderOptions, v int) { o.AllowableTimeLateShiftStartMin = v },
	"allowableTimeEarlyShiftFinishMin": func(o *domain.StakeholderOptions, v int) { o.AllowableTimeEarlyShiftFinishMin = v },
	"allowableTimeEarlyShiftStartMin":  func(o *domain.StakeholderOptions, v int) { o.AllowableTimeEarlyShiftStartMin = v },
	"allowableTimeLateShiftFinishMin":  func(o *domain.StakeholderOptions, v int) { o.AllowableTimeLateShiftFinishMin = v },
	"allowableInTimeShiftStartMin":     func(o *domain.StakeholderOptions, v int) { o.AllowableInTimeShiftStartMin = v },
	"allowableInTimeShiftFinishMin":    func(o *domain.StakeholderOptions, v int) { o.AllowableInTimeShiftFinishMin = v },
}

// Merge 用 overrides 覆盖 defaults，未知的键直接报错，合并结果必须满足各项约束
func Merge(defaults domain.StakeholderOptions, overrides map[string]int) (domain.StakeholderOptions, error) {
	merged := defaults
	for key, value := range overrides {
		set, ok := setters[key]
		if !ok {
			return domain.StakeholderOptions{}, fmt.Errorf("%w: %s", domain.ErrUnknownOption, key)
		}
		set(&merged, value)
	}

	if err := Validate(merged); err != nil {
		return domain.StakeholderOptions{}, err
	}
	return merged, nil
}

// Validate 校验失败时返回的错误同时包含 validator 的原始错误
func Validate(opts domain.StakeholderOptions) error {
	if err := validate.Struct(opts); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidOptions, err)
	}
	return nil
}
