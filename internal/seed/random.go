package seed

import (
	"math/rand"
	"strings"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

// Random 所有随机数据都来自同一个种子，方便复现
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) ChineseName() string {
	surname := commonSurnames[r.rng.Intn(len(commonSurnames))]
	nameLength := r.rng.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[r.rng.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

// Mnemonic 取每个汉字拼音的首字母作为编码，例如 "白班" -> "BB"
func Mnemonic(name string) string {
	code := ""
	for _, py := range pinyin.LazyConvert(name, nil) {
		if py == "" {
			continue
		}
		code += strings.ToUpper(py[:1])
	}
	return code
}

// Minutes 返回 [-spread, spread] 之间的随机分钟数
func (r *Random) Minutes(spread int) time.Duration {
	if spread <= 0 {
		return 0
	}
	return time.Duration(r.rng.Intn(2*spread+1)-spread) * time.Minute
}

// Fact 模拟员工按计划出勤：大部分记录只有少量偏差，少数缺卡
func (r *Random) Fact(plan domain.ShiftPlan) (domain.ShiftFact, bool) {
	if !plan.Work.IsComplete() {
		return domain.ShiftFact{}, false
	}
	// 约 5% 的计划没有实际记录
	if r.rng.Intn(20) == 0 {
		return domain.ShiftFact{}, false
	}

	planID := plan.ID
	fact := domain.ShiftFact{
		TimelineID:  plan.TimelineID,
		PlanID:      &planID,
		ShiftTypeID: plan.ShiftTypeID,
		WorklineID:  plan.WorklineID,
	}

	from := plan.Work.From.Add(r.Minutes(20))
	to := plan.Work.To.Add(r.Minutes(45))
	if !to.After(from) {
		to = from
	}

	switch r.rng.Intn(10) {
	case 0:
		// 只打了上班卡
		fact.Work = domain.Interval{From: &from}
	case 1:
		fact.Work = domain.Interval{To: &to}
	default:
		fact.Work = domain.NewInterval(from, to)
	}

	if r.rng.Intn(25) == 0 {
		fact.Penalty = true
		fact.PenaltyMinutes = 30 * (r.rng.Intn(4) + 1)
	}
	return fact, true
}
