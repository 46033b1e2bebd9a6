package domain

import (
	"fmt"
	"time"
)

// LocalDate 表示某个时区下的日历日期，不携带时区信息
type LocalDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func NewLocalDate(year int, month time.Month, day int) LocalDate {
	// 借助 time.Date 做规范化，例如 1 月 32 日会被规范为 2 月 1 日
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d LocalDate) MonthCode() string {
	return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
}

func (d LocalDate) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d LocalDate) AddDays(n int) LocalDate {
	return NewLocalDate(d.Year, d.Month, d.Day+n)
}

func (d LocalDate) Weekday() time.Weekday {
	return d.utc().Weekday()
}

// DaysSince 返回从 other 到 d 经过的天数，d 在 other 之前时为负数
func (d LocalDate) DaysSince(other LocalDate) int {
	return int(d.utc().Sub(other.utc()).Hours() / 24)
}

func (d LocalDate) Before(other LocalDate) bool { return d.utc().Before(other.utc()) }
func (d LocalDate) After(other LocalDate) bool  { return d.utc().After(other.utc()) }
func (d LocalDate) Equal(other LocalDate) bool  { return d == other }

// In 返回该日期在 loc 中的零点
func (d LocalDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d LocalDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *LocalDate) UnmarshalText(b []byte) error {
	t, err := time.Parse(time.DateOnly, string(b))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, string(b))
	}
	*d = LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	return nil
}

// LocalTime 表示一天中的钟面时间
type LocalTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

func (t LocalTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t LocalTime) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *LocalTime) UnmarshalText(b []byte) error {
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		parsed, err := time.Parse(layout, string(b))
		if err == nil {
			*t = LocalTime{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidTime, string(b))
}

// Wall 表示某个时区下的钟面日期时间，不携带偏移量
type Wall struct {
	Date  LocalDate `json:"date"`
	Clock LocalTime `json:"clock"`
}

func (w Wall) String() string {
	return w.Date.String() + "T" + w.Clock.String()
}
