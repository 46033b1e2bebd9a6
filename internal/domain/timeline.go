package domain

import "time"

// PlanView / FactView 是某一天计划或实际的汇总
type PlanView struct {
	From         *time.Time `json:"from"`
	To           *time.Time `json:"to"`
	ShiftTypeIDs []int64    `json:"shiftTypeIDs"`
	WorklineIDs  []int64    `json:"worklineIDs"`
	Count        int        `json:"count"`
}

type FactView = PlanView

type ComparingView struct {
	PlanMinutes    int64 `json:"planMinutes"`
	FactMinutes    int64 `json:"factMinutes"`
	PenaltyMinutes int64 `json:"penaltyMinutes"`
	BillingMinutes int64 `json:"billingMinutes"`
}

// DayCell 员工排班的单日缓存，只能通过重新计算得到
type DayCell struct {
	Date                                string        `json:"date"`
	Plan                                PlanView      `json:"plan"`
	Fact                                FactView      `json:"fact"`
	Comparing                           ComparingView `json:"comparing"`
	IsAcceptableDeviationPlanFromFact   bool          `json:"isAcceptableDeviationPlanFromFact"`
	IsUnacceptableDeviationPlanFromFact bool          `json:"isUnacceptableDeviationPlanFromFact"`
}

// Timeline 员工某个月的排班容器，缓存作为其字段存在
type Timeline struct {
	ID             int64     `json:"id"`
	TenantID       int64     `json:"tenantID"`
	EmployeeID     int64     `json:"employeeID"`
	MonthCode      string    `json:"monthCode"`
	TimeZone       string    `json:"timeZone"`
	Cache          []DayCell `json:"cache"`
	PlanCount      int       `json:"planCount"`
	FactCount      int       `json:"factCount"`
	PlanMinutes    int64     `json:"planMinutes"`
	FactMinutes    int64     `json:"factMinutes"`
	BillingMinutes int64     `json:"billingMinutes"`
	Version        int32     `json:"-"`
}

type VacancyDayCell struct {
	Date        string   `json:"date"`
	Plan        PlanView `json:"plan"`
	PlanMinutes int64    `json:"planMinutes"`
}

// MonthCell 空缺岗位按月分桶的缓存
type MonthCell struct {
	MonthCode  string           `json:"monthCode"`
	ShiftCount int              `json:"shiftCount"`
	SumMinutes int64            `json:"sumMinutes"`
	Days       []VacancyDayCell `json:"days"`
}

type Vacancy struct {
	ID            int64       `json:"id"`
	TenantID      int64       `json:"tenantID"`
	TimeZone      string      `json:"timeZone"`
	Cache         []MonthCell `json:"cache"`
	ShiftCount    int         `json:"shiftCount"`
	SumMinutes    int64       `json:"sumMinutes"`
	ResponseCount int         `json:"responseCount"`
	Version       int32       `json:"-"`
}

// TimelineRows 重新计算员工缓存所需要的全部数据
type TimelineRows struct {
	Plans      []ShiftPlan `json:"plans"`
	Facts      []ShiftFact `json:"facts"`
	ShiftTypes []ShiftType `json:"shiftTypes"`
	Worklines  []Workline  `json:"worklines"`
}

type VacancyRows struct {
	Plans      []ShiftPlan `json:"plans"`
	ShiftTypes []ShiftType `json:"shiftTypes"`
	Worklines  []Workline  `json:"worklines"`
}
