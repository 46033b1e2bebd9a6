package timeconv

import (
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

func ParseLocalDate(s string) (domain.LocalDate, error) {
	var d domain.LocalDate
	if err := d.UnmarshalText([]byte(s)); err != nil {
		return domain.LocalDate{}, err
	}
	return d, nil
}

func ParseLocalTime(s string) (domain.LocalTime, error) {
	var t domain.LocalTime
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return domain.LocalTime{}, err
	}
	return t, nil
}

// ParseMonthCode 解析 YYYY-MM 格式的月份编码
func ParseMonthCode(code string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", code)
	if err != nil || t.Format("2006-01") != code {
		return 0, 0, &domain.InvalidMonthCodeError{Code: code}
	}
	return t.Year(), t.Month(), nil
}

// Period 是按整天计算的闭区间 [From, To]
type Period struct {
	From domain.LocalDate `json:"from"`
	To   domain.LocalDate `json:"to"`
}

func (p Period) Validate() error {
	if p.To.Before(p.From) {
		return fmt.Errorf("%w: %s > %s", domain.ErrInvalidPeriod, p.From, p.To)
	}
	return nil
}

// Days 返回周期内的每一天
func (p Period) Days() []domain.LocalDate {
	return DatesBetween(p.From, p.To)
}

// MonthPeriod 返回月份编码对应的整月
func MonthPeriod(code string) (Period, error) {
	year, month, err := ParseMonthCode(code)
	if err != nil {
		return Period{}, err
	}
	first := domain.NewLocalDate(year, month, 1)
	last := domain.NewLocalDate(year, month+1, 0)
	return Period{From: first, To: last}, nil
}

// DatesBetween 返回 [from, to] 内的全部日期，to 早于 from 时返回空
func DatesBetween(from, to domain.LocalDate) []domain.LocalDate {
	if to.Before(from) {
		return nil
	}
	days := make([]domain.LocalDate, 0, to.DaysSince(from)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}
