package catalog

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// 文档注释：分区键 (year, month, res)
// 约束：三者均为不透明字符串，按原样拼接目录名；month 为两位数字（01..12）。
type Key struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Res   string `json:"res"`
}

// Entry：AllEntries 的列举项，JSON 形如 {"year":"1998","month":"01","res":"1"}
type Entry = Key

// Dir：分区目录 <base>/<year>_<month>_<res>
func (k Key) Dir(base string) string {
	return filepath.Join(base, k.Year+"_"+k.Month+"_"+k.Res)
}

func (k Key) String() string { return k.Year + "-" + k.Month + "/" + k.Res }

func (k Key) less(o Key) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	if k.Month != o.Month {
		return k.Month < o.Month
	}
	return k.Res < o.Res
}

// YearMonth：Setup 构建范围中的一个月
type YearMonth struct {
	Year  string
	Month string
}

// ParseYearMonth：解析 "1997-09"
func ParseYearMonth(s string) (YearMonth, error) {
	y, m, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return YearMonth{}, fmt.Errorf("year-month %q: want YYYY-MM", s)
	}
	yi, err := strconv.Atoi(y)
	if err != nil || len(y) != 4 {
		return YearMonth{}, fmt.Errorf("year-month %q: bad year", s)
	}
	mi, err := strconv.Atoi(m)
	if err != nil || mi < 1 || mi > 12 {
		return YearMonth{}, fmt.Errorf("year-month %q: bad month", s)
	}
	return YearMonth{Year: strconv.Itoa(yi), Month: fmt.Sprintf("%02d", mi)}, nil
}

// Months：一年的十二个月份标识
var Months = []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}

// MonthRange：from..to 每年全部月份，再追加 extra
func MonthRange(from, to int, extra ...YearMonth) []YearMonth {
	var out []YearMonth
	for y := from; y <= to; y++ {
		for _, m := range Months {
			out = append(out, YearMonth{Year: strconv.Itoa(y), Month: m})
		}
	}
	return append(out, extra...)
}
