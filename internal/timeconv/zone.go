// Package timeconv 负责钟面时间与绝对时间之间的转换，以及区间的相交/包含判断
package timeconv

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// LoadZone 加载命名时区，空字符串和 "Local" 都不被接受，避免依赖服务器本地时区
func LoadZone(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" || name == "Local" {
		return nil, &domain.InvalidTimeZoneError{Zone: name}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &domain.InvalidTimeZoneError{Zone: name}
	}
	return loc, nil
}

// WallFromInstant 把绝对时间解释为 zone 下的钟面时间
func WallFromInstant(instant time.Time, zone string) (domain.Wall, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return domain.Wall{}, err
	}
	return WallIn(instant, loc), nil
}

func WallIn(instant time.Time, loc *time.Location) domain.Wall {
	t := instant.In(loc)
	return domain.Wall{
		Date:  domain.LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()},
		Clock: domain.LocalTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()},
	}
}

// InstantFromWall 按字面取钟面字段，并在 zone 中定位
func InstantFromWall(wall domain.Wall, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return Localize(wall, loc), nil
}

func Localize(wall domain.Wall, loc *time.Location) time.Time {
	return time.Date(
		wall.Date.Year, wall.Date.Month, wall.Date.Day,
		wall.Clock.Hour, wall.Clock.Minute, wall.Clock.Second, 0,
		loc,
	)
}

var wallLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02 15:04",
}

// InstantFromWallString 解析钟面时间字符串，字符串中自带的偏移量一律丢弃
func InstantFromWallString(s string, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range wallLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return Localize(WallIn(t, t.Location()), loc), nil
	}
	return time.Time{}, domain.ErrInvalidTime
}

// DateOf 返回 instant 在 loc 中所处的日期
func DateOf(instant time.Time, loc *time.Location) domain.LocalDate {
	return WallIn(instant, loc).Date
}
