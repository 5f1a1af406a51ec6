package exporter

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"Member_Registry/internal/model"
	"Member_Registry/internal/repository/sqlstore"
)

const (
	SortByName           = "name"
	SortByMemberCode     = "memberCode"
	SortByEnrollmentYear = "enrollmentYear"
	SortByRank           = "rank"
)

type MemberField struct {
	Key       string
	Label     string
	Sensitive bool
}

var MemberFields = []MemberField{
	{Key: "memberCode", Label: "ID Membru"},
	{Key: "lastName", Label: "Nume"},
	{Key: "firstName", Label: "Prenume"},
	{Key: "age", Label: "Vârstă"},
	{Key: "dateOfBirth", Label: "Data Nașterii", Sensitive: true},
	{Key: "cnp", Label: "CNP", Sensitive: true},
	{Key: "rank", Label: "Grad"},
	{Key: "unit", Label: "UM"},
	{Key: "mainProfile", Label: "Profil Principal"},
	{Key: "status", Label: "Status"},
	{Key: "branchEnrollmentYear", Label: "An Înscriere"},
	{Key: "retirementYear", Label: "An Pensionare"},
	{Key: "provenance", Label: "Proveniență"},
	{Key: "phone", Label: "Telefon", Sensitive: true},
	{Key: "email", Label: "Email", Sensitive: true},
	{Key: "address", Label: "Adresă", Sensitive: true},
}

// SelectMemberFields keys 为空时导出全部；非管理员拿不到敏感字段
func SelectMemberFields(keys []string, includeSensitive bool) []MemberField {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			want[k] = true
		}
	}
	var out []MemberField
	for _, f := range MemberFields {
		if f.Sensitive && !includeSensitive {
			continue
		}
		if len(want) > 0 && !want[f.Key] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SortMembers 姓名和军衔按罗马尼亚语排序规则比较
func SortMembers(members []model.Member, sortBy string) {
	col := collate.New(language.Romanian, collate.IgnoreCase)
	switch sortBy {
	case SortByName:
		sort.SliceStable(members, func(i, j int) bool {
			return col.CompareString(members[i].FullName(), members[j].FullName()) < 0
		})
	case SortByMemberCode:
		sort.SliceStable(members, func(i, j int) bool {
			return codeOrID(&members[i]) < codeOrID(&members[j])
		})
	case SortByEnrollmentYear:
		// 入会年份倒序，没有年份的排最后
		sort.SliceStable(members, func(i, j int) bool {
			return intOrZero(members[i].BranchEnrollmentYear) > intOrZero(members[j].BranchEnrollmentYear)
		})
	case SortByRank:
		sort.SliceStable(members, func(i, j int) bool {
			return col.CompareString(members[i].Rank, members[j].Rank) < 0
		})
	}
}

// Members 生成会员导出 CSV，now 用于计算年龄
func Members(members []model.Member, fields []MemberField, sortBy string, units map[string]string, now time.Time) []byte {
	sorted := append([]model.Member(nil), members...)
	SortMembers(sorted, sortBy)

	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Label
	}
	t := NewTable(header...)
	for i := range sorted {
		m := &sorted[i]
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = memberValue(m, f.Key, units, now)
		}
		t.Append(row...)
	}
	return t.Bytes()
}

func memberValue(m *model.Member, key string, units map[string]string, now time.Time) string {
	switch key {
	case "memberCode":
		return DisplayMemberCode(m.MemberCode)
	case "lastName":
		return m.LastName
	case "firstName":
		return m.FirstName
	case "age":
		if age, ok := Age(m.DateOfBirth, now); ok {
			return strconv.Itoa(age)
		}
		return ""
	case "dateOfBirth":
		return FormatDate(m.DateOfBirth)
	case "cnp":
		return m.CNP
	case "rank":
		return m.Rank
	case "unit":
		if name, ok := units[m.Unit]; ok && name != "" {
			return m.Unit + " - " + name
		}
		return m.Unit
	case "mainProfile":
		return m.MainProfile
	case "status":
		return m.Status
	case "branchEnrollmentYear":
		return optInt(m.BranchEnrollmentYear)
	case "retirementYear":
		return optInt(m.RetirementYear)
	case "provenance":
		return m.Provenance
	case "phone":
		return m.Phone
	case "email":
		return m.Email
	case "address":
		return m.Address
	}
	return ""
}

// DisplayMemberCode 纯数字编号补齐到 5 位，其他格式原样返回
func DisplayMemberCode(code string) string {
	if n, ok := sqlstore.ParseSuffix(code, ""); ok && len(code) <= 5 {
		return sqlstore.PadNumber(n, 5)
	}
	return code
}

// Age 按生日计算周岁，生日无效时 ok=false
func Age(dateOfBirth string, now time.Time) (int, bool) {
	if len(dateOfBirth) < 10 {
		return 0, false
	}
	birth, err := time.Parse(time.DateOnly, dateOfBirth[:10])
	if err != nil {
		return 0, false
	}
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// FormatDate ISO 日期转 dd.MM.yyyy，解析不了就原样输出
func FormatDate(iso string) string {
	if len(iso) < 10 {
		return iso
	}
	t, err := time.Parse(time.DateOnly, iso[:10])
	if err != nil {
		return iso
	}
	return t.Format("02.01.2006")
}

func codeOrID(m *model.Member) string {
	if m.MemberCode != "" {
		return m.MemberCode
	}
	return m.ID
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
