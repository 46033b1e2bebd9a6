package domain

// StakeholderOptions 单位为分钟的容差阈值
type StakeholderOptions struct {
	AllowableTimeLateShiftStartMin   int `json:"allowableTimeLateShiftStartMin" validate:"gte=0"`
	AllowableTimeEarlyShiftFinishMin int `json:"allowableTimeEarlyShiftFinishMin" validate:"gte=0"`
	AllowableTimeEarlyShiftStartMin  int `json:"allowableTimeEarlyShiftStartMin" validate:"gte=0,gtefield=AllowableInTimeShiftStartMin"`
	AllowableTimeLateShiftFinishMin  int `json:"allowableTimeLateShiftFinishMin" validate:"gte=0,gtefield=AllowableInTimeShiftFinishMin"`
	AllowableInTimeShiftStartMin     int `json:"allowableInTimeShiftStartMin" validate:"gte=0"`
	AllowableInTimeShiftFinishMin    int `json:"allowableInTimeShiftFinishMin" validate:"gte=0"`
}

func DefaultStakeholderOptions() StakeholderOptions {
	return StakeholderOptions{
		AllowableTimeLateShiftStartMin:   15,
		AllowableTimeEarlyShiftFinishMin: 15,
		AllowableTimeEarlyShiftStartMin:  60,
		AllowableTimeLateShiftFinishMin:  60,
		AllowableInTimeShiftStartMin:     30,
		AllowableInTimeShiftFinishMin:    30,
	}
}
