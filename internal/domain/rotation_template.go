package domain

import (
	"fmt"
	"strings"
	"time"
)

type ApplyType int

const (
	ApplyWeekday ApplyType = iota + 1
	ApplyDaysOnOff
)

func (t ApplyType) String() string {
	switch t {
	case ApplyWeekday:
		return "weekday"
	case ApplyDaysOnOff:
		return "days-on-off"
	default:
		return fmt.Sprintf("ApplyType(%d)", int(t))
	}
}

func ParseApplyType(s string) (ApplyType, error) {
	switch strings.ToLower(s) {
	case "weekday":
		return ApplyWeekday, nil
	case "days-on-off":
		return ApplyDaysOnOff, nil
	default:
		return 0, fmt.Errorf("未知的模板类型 %q", s)
	}
}

func (t ApplyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ApplyType) UnmarshalText(b []byte) error {
	parsed, err := ParseApplyType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type TemplateCell struct {
	ID              int64     `json:"id"`
	DayInfoCode     string    `json:"dayInfoCode"`
	TimeFrom        LocalTime `json:"timeFrom"`
	DurationMinutes int       `json:"durationMinutes"`
	ShiftTypeID     int64     `json:"shiftTypeID"`
	WorklineID      *int64    `json:"worklineID"`
}

type RotationTemplate struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	ApplyType         ApplyType      `json:"applyType"`
	StartingPointDate *LocalDate     `json:"startingPointDate"`
	CycleLength       *int           `json:"cycleLength"`
	Cells             []TemplateCell `json:"cells"`
	CreatedAt         time.Time      `json:"createdAt"`
	Version           int32          `json:"-"`
}

// WeekdayCode 返回 ISO 星期名称，作为按星期模板的日分类编码
func WeekdayCode(w time.Weekday) string {
	return strings.ToLower(w.String())
}
