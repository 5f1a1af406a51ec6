package service

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"Member_Registry/internal/exporter"
	"Member_Registry/internal/model"
	"Member_Registry/internal/repository/sqlstore"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

const (
	GroupByYear          = "year"
	GroupByMonth         = "month"
	GroupByUnit          = "unit"
	GroupByRank          = "rank"
	GroupByProfile       = "profile"
	GroupByActivityType  = "activity_type"
	GroupByWhatsAppGroup = "whatsapp_group"
	GroupByPaymentType   = "payment_type"
	GroupByMemberStatus  = "member_status"

	MetricMemberCount       = "member_count"
	MetricActivityCount     = "activity_count"
	MetricPaymentCount      = "payment_count"
	MetricTotalAmount       = "total_amount"
	MetricAveragePerMember  = "average_per_member"
	MetricParticipationRate = "participation_rate"
)

// metricLabels 结果和 CSV 表头里的列名
var metricLabels = map[string]string{
	MetricMemberCount:       "Membri",
	MetricActivityCount:     "Activități",
	MetricPaymentCount:      "Plăți",
	MetricTotalAmount:       "Total (RON)",
	MetricAveragePerMember:  "Medie/Membru (RON)",
	MetricParticipationRate: "Participare (%)",
}

var groupByOptions = map[string]bool{
	GroupByYear: true, GroupByMonth: true, GroupByUnit: true, GroupByRank: true, GroupByProfile: true,
	GroupByActivityType: true, GroupByWhatsAppGroup: true, GroupByPaymentType: true, GroupByMemberStatus: true,
}

var (
	ErrInvalidGroupBy = badRequest("Invalid groupBy")
	ErrInvalidMetric  = badRequest("Invalid metric")
	ErrInvalidDate    = badRequest("Invalid date, expected YYYY-MM-DD")
)

// AnalyticsFilters 空切片和 nil 表示不过滤
type AnalyticsFilters struct {
	DateFrom string `json:"dateFrom,omitempty"`
	DateTo   string `json:"dateTo,omitempty"`

	Ranks                  []string `json:"ranks,omitempty"`
	Units                  []string `json:"units,omitempty"`
	Profiles               []string `json:"profiles,omitempty"`
	CarMemberStatus        []string `json:"carMemberStatus,omitempty"`
	FoundationMemberStatus []string `json:"foundationMemberStatus,omitempty"`
	HasCurrentWorkplace    []string `json:"hasCurrentWorkplace,omitempty"`
	WhatsappGroupIDs       []string `json:"whatsappGroupIds,omitempty"`
	Needs                  []string `json:"needs,omitempty"`
	MemberStatus           []string `json:"memberStatus,omitempty"`

	ActivityTypes    []string `json:"activityTypes,omitempty"`
	ActivityDateFrom string   `json:"activityDateFrom,omitempty"`
	ActivityDateTo   string   `json:"activityDateTo,omitempty"`
	Participated     *bool    `json:"participated,omitempty"`

	PaymentYears    []int    `json:"paymentYears,omitempty"`
	PaymentTypes    []string `json:"paymentTypes,omitempty"`
	PaymentMethods  []string `json:"paymentMethods,omitempty"`
	PaymentStatuses []string `json:"paymentStatuses,omitempty"`
}

// count 非空过滤条件个数
func (f *AnalyticsFilters) count() int {
	n := 0
	for _, s := range []string{f.DateFrom, f.DateTo, f.ActivityDateFrom, f.ActivityDateTo} {
		if s != "" {
			n++
		}
	}
	for _, l := range [][]string{
		f.Ranks, f.Units, f.Profiles, f.CarMemberStatus, f.FoundationMemberStatus, f.HasCurrentWorkplace,
		f.WhatsappGroupIDs, f.Needs, f.MemberStatus, f.ActivityTypes, f.PaymentTypes, f.PaymentMethods, f.PaymentStatuses,
	} {
		if len(l) > 0 {
			n++
		}
	}
	if len(f.PaymentYears) > 0 {
		n++
	}
	if f.Participated != nil {
		n++
	}
	return n
}

// AnalyticsQuery 只按 GroupBy 的第一项分组，为空时按年份
type AnalyticsQuery struct {
	Filters AnalyticsFilters `json:"filters"`
	GroupBy []string         `json:"groupBy"`
	Metrics []string         `json:"metrics"`
	Title   string           `json:"title,omitempty"`
}

// AnalyticsPoint 序列化时指标按列名平铺，例如 {"label":"2024","Membri":3}
type AnalyticsPoint struct {
	Key    string
	Label  string
	Values map[string]float64
}

func (p AnalyticsPoint) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Values)+2)
	for k, v := range p.Values {
		out[k] = v
	}
	out["key"] = p.Key
	out["label"] = p.Label
	return json.Marshal(out)
}

type AnalyticsMetadata struct {
	TotalMembers    int `json:"totalMembers"`
	TotalPayments   int `json:"totalPayments"`
	TotalActivities int `json:"totalActivities"`
	FiltersApplied  int `json:"filtersApplied"`
}

type AnalyticsResult struct {
	Data        []AnalyticsPoint  `json:"data"`
	Query       AnalyticsQuery    `json:"config"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Metadata    AnalyticsMetadata `json:"metadata"`
}

// AnalyticsDataset 一次计算用到的全部数据
type AnalyticsDataset struct {
	Members       []model.Member
	Payments      []model.Payment
	Activities    []model.Activity
	ActivityTypes []model.ActivityType
	Groups        []model.WhatsAppGroup
	Memberships   []model.MemberGroup
	Participants  []model.ActivityParticipant
}

type AnalyticsService struct {
	members      *sqlstore.MemberRepository
	payments     *sqlstore.PaymentRepository
	activities   *sqlstore.ActivityRepository
	types        *sqlstore.ActivityTypeRepository
	groups       *sqlstore.GroupRepository
	links        *sqlstore.MemberGroupRepository
	participants *sqlstore.ParticipantRepository
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{
		members:      &sqlstore.MemberRepository{DB: db},
		payments:     &sqlstore.PaymentRepository{DB: db},
		activities:   &sqlstore.ActivityRepository{DB: db},
		types:        &sqlstore.ActivityTypeRepository{DB: db},
		groups:       &sqlstore.GroupRepository{DB: db},
		links:        &sqlstore.MemberGroupRepository{DB: db},
		participants: &sqlstore.ParticipantRepository{DB: db},
	}
}

func (s *AnalyticsService) Run(ctx context.Context, q *AnalyticsQuery, now time.Time) (*AnalyticsResult, error) {
	if err := q.normalize(); err != nil {
		return nil, err
	}
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	res := BuildAnalytics(data, q)
	res.GeneratedAt = now
	return res, nil
}

func (s *AnalyticsService) load(ctx context.Context) (*AnalyticsDataset, error) {
	d := &AnalyticsDataset{}
	var err error
	if d.Members, err = s.members.List(ctx); err != nil {
		return nil, err
	}
	if d.Payments, err = s.payments.List(ctx, ""); err != nil {
		return nil, err
	}
	if d.Activities, err = s.activities.List(ctx); err != nil {
		return nil, err
	}
	if d.ActivityTypes, err = s.types.List(ctx); err != nil {
		return nil, err
	}
	if d.Groups, err = s.groups.List(ctx); err != nil {
		return nil, err
	}
	if d.Memberships, err = s.links.List(ctx); err != nil {
		return nil, err
	}
	if d.Participants, err = s.participants.ListAll(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// ExportAnalyticsCSV 第一列是分组名，其余列按请求的指标顺序
func ExportAnalyticsCSV(res *AnalyticsResult) []byte {
	header := []string{"Label"}
	for _, m := range res.Query.Metrics {
		header = append(header, metricLabels[m])
	}
	t := exporter.NewTable(header...)
	for _, p := range res.Data {
		row := []string{p.Label}
		for _, m := range res.Query.Metrics {
			row = append(row, strconv.FormatFloat(p.Values[metricLabels[m]], 'f', -1, 64))
		}
		t.Append(row...)
	}
	return t.Bytes()
}

// AnalyticsFilename 标题里非字母数字的字符换成下划线
func AnalyticsFilename(title string, now time.Time) string {
	name := strings.Map(func(r rune) rune {
		if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, title)
	if name == "" {
		name = "analytics"
	}
	return name + "_" + now.Format("2006-01-02-150405") + ".csv"
}

func (q *AnalyticsQuery) normalize() error {
	if len(q.GroupBy) == 0 {
		q.GroupBy = []string{GroupByYear}
	}
	for _, g := range q.GroupBy {
		if !groupByOptions[g] {
			return ErrInvalidGroupBy
		}
	}
	if len(q.Metrics) == 0 {
		q.Metrics = []string{MetricMemberCount}
	}
	for _, m := range q.Metrics {
		if _, ok := metricLabels[m]; !ok {
			return ErrInvalidMetric
		}
	}
	for _, d := range []string{q.Filters.DateFrom, q.Filters.DateTo, q.Filters.ActivityDateFrom, q.Filters.ActivityDateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}

// BuildAnalytics 先过滤再分组聚合；q 需已通过 normalize
func BuildAnalytics(d *AnalyticsDataset, q *AnalyticsQuery) *AnalyticsResult {
	groupsOf := memberGroupIndex(d.Members, d.Memberships)
	participated := make(map[string]bool, len(d.Participants))
	for _, p := range d.Participants {
		participated[p.MemberID] = true
	}

	members := filterMembers(d.Members, &q.Filters, groupsOf, participated)
	activities := filterActivities(d.Activities, &q.Filters)
	payments := filterPayments(d.Payments, &q.Filters, members)

	primary := q.GroupBy[0]
	buckets := bucketsFor(primary, members, payments, activities, d)
	for i := range buckets {
		b := &buckets[i]
		inGroup := func(m *model.Member) bool { return memberIn(m, primary, b.Key, groupsOf) }
		for _, metric := range q.Metrics {
			var v float64
			switch metric {
			case MetricMemberCount:
				v = float64(countMembers(members, inGroup))
			case MetricActivityCount:
				for j := range activities {
					if activityIn(&activities[j], primary, b.Key) {
						v++
					}
				}
			case MetricPaymentCount:
				for j := range payments {
					if paymentIn(&payments[j], primary, b.Key) {
						v++
					}
				}
			case MetricTotalAmount:
				for j := range payments {
					if paymentIn(&payments[j], primary, b.Key) {
						v += payments[j].Amount
					}
				}
			case MetricAveragePerMember:
				ids := memberIDSet(members, inGroup)
				if len(ids) > 0 {
					total := 0.0
					for _, p := range payments {
						if ids[p.MemberID] {
							total += p.Amount
						}
					}
					v = total / float64(len(ids))
				}
			case MetricParticipationRate:
				ids := memberIDSet(members, inGroup)
				if len(ids) > 0 {
					n := 0
					for id := range ids {
						if participated[id] {
							n++
						}
					}
					v = float64(n) / float64(len(ids)) * 100
				}
			}
			b.Values[metricLabels[metric]] = math.Round(v*100) / 100
		}
	}

	return &AnalyticsResult{
		Data:  buckets,
		Query: *q,
		Metadata: AnalyticsMetadata{
			TotalMembers:    len(members),
			TotalPayments:   len(payments),
			TotalActivities: len(activities),
			FiltersApplied:  q.Filters.count(),
		},
	}
}

// memberGroupIndex 成员所在群组：成员记录上的 id 加上关联表
func memberGroupIndex(members []model.Member, links []model.MemberGroup) map[string]map[string]bool {
	idx := make(map[string]map[string]bool, len(members))
	add := func(memberID, groupID string) {
		if idx[memberID] == nil {
			idx[memberID] = map[string]bool{}
		}
		idx[memberID][groupID] = true
	}
	for _, m := range members {
		for _, g := range m.WhatsappGroupIds {
			add(m.ID, g)
		}
	}
	for _, l := range links {
		add(l.MemberID, l.GroupID)
	}
	return idx
}

func filterMembers(in []model.Member, f *AnalyticsFilters, groupsOf map[string]map[string]bool, participated map[string]bool) []model.Member {
	from, hasFrom := parseDay(f.DateFrom)
	to, hasTo := parseDay(f.DateTo)
	out := make([]model.Member, 0, len(in))
	for _, m := range in {
		if hasFrom || hasTo {
			// 按入会年份的 1 月 1 日比较
			if m.BranchEnrollmentYear == nil {
				continue
			}
			enrolled := time.Date(*m.BranchEnrollmentYear, time.January, 1, 0, 0, 0, 0, time.UTC)
			if hasFrom && enrolled.Before(from) || hasTo && enrolled.After(to) {
				continue
			}
		}
		if !anyOf(f.Ranks, m.Rank) || !anyOf(f.Units, m.Unit) || !anyOf(f.Profiles, m.MainProfile) {
			continue
		}
		if !optAnyOf(f.CarMemberStatus, m.CarMemberStatus) ||
			!optAnyOf(f.FoundationMemberStatus, m.FoundationMemberStatus) ||
			!optAnyOf(f.HasCurrentWorkplace, m.HasCurrentWorkplace) {
			continue
		}
		if len(f.MemberStatus) > 0 && (m.Status == "" || !anyOf(f.MemberStatus, m.Status)) {
			continue
		}
		if len(f.WhatsappGroupIDs) > 0 && !inAnyGroup(groupsOf[m.ID], f.WhatsappGroupIDs) {
			continue
		}
		if len(f.Needs) > 0 && !hasNeed(&m, f.Needs) {
			continue
		}
		if f.Participated != nil && participated[m.ID] != *f.Participated {
			continue
		}
		out = append(out, m)
	}
	return out
}

func filterActivities(in []model.Activity, f *AnalyticsFilters) []model.Activity {
	from, hasFrom := parseDay(f.ActivityDateFrom)
	to, hasTo := parseDay(f.ActivityDateTo)
	out := make([]model.Activity, 0, len(in))
	for _, a := range in {
		if len(f.ActivityTypes) > 0 && (a.TypeID == nil || !anyOf(f.ActivityTypes, strconv.FormatUint(*a.TypeID, 10))) {
			continue
		}
		if hasFrom || hasTo {
			day, ok := activityDay(&a)
			if !ok || hasFrom && day.Before(from) || hasTo && day.After(to) {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

// filterPayments 只保留过滤后成员的付款
func filterPayments(in []model.Payment, f *AnalyticsFilters, members []model.Member) []model.Payment {
	keep := make(map[string]bool, len(members))
	for _, m := range members {
		keep[m.ID] = true
	}
	out := make([]model.Payment, 0, len(in))
	for _, p := range in {
		if !keep[p.MemberID] {
			continue
		}
		if len(f.PaymentYears) > 0 && (p.Year == nil || !containsInt(f.PaymentYears, *p.Year)) {
			continue
		}
		if !anyOf(f.PaymentTypes, p.PaymentType) || !anyOf(f.PaymentMethods, p.Method) || !anyOf(f.PaymentStatuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func bucketsFor(groupBy string, members []model.Member, payments []model.Payment, activities []model.Activity, d *AnalyticsDataset) []AnalyticsPoint {
	var out []AnalyticsPoint
	add := func(key, label string) {
		out = append(out, AnalyticsPoint{Key: key, Label: label, Values: map[string]float64{}})
	}
	switch groupBy {
	case GroupByYear:
		years := map[int]bool{}
		for _, m := range members {
			if m.BranchEnrollmentYear != nil {
				years[*m.BranchEnrollmentYear] = true
			}
		}
		for _, p := range payments {
			if p.Year != nil {
				years[*p.Year] = true
			}
		}
		for i := range activities {
			if day, ok := activityDay(&activities[i]); ok {
				years[day.Year()] = true
			}
		}
		keys := make([]int, 0, len(years))
		for y := range years {
			keys = append(keys, y)
		}
		sort.Ints(keys)
		for _, y := range keys {
			add(strconv.Itoa(y), strconv.Itoa(y))
		}
	case GroupByMonth:
		// 付款只有年份，记在当年 1 月
		months := map[string]bool{}
		for i := range activities {
			if day, ok := activityDay(&activities[i]); ok {
				months[day.Format("2006-01")] = true
			}
		}
		for _, p := range payments {
			if p.Year != nil {
				months[paymentMonth(*p.Year)] = true
			}
		}
		keys := make([]string, 0, len(months))
		for k := range months {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t, _ := time.Parse("2006-01", k)
			add(k, t.Format("Jan 2006"))
		}
	case GroupByUnit, GroupByRank, GroupByProfile:
		for _, v := range distinctSorted(members, func(m *model.Member) string { return memberField(m, groupBy) }) {
			add(v, v)
		}
	case GroupByPaymentType:
		seen := map[string]bool{}
		var types []string
		for _, p := range payments {
			if p.PaymentType != "" && !seen[p.PaymentType] {
				seen[p.PaymentType] = true
				types = append(types, p.PaymentType)
			}
		}
		sortRomanian(types)
		for _, t := range types {
			add(t, t)
		}
	case GroupByActivityType:
		for _, at := range d.ActivityTypes {
			if at.Name != "" {
				add(strconv.FormatUint(at.ID, 10), at.Name)
			}
		}
	case GroupByWhatsAppGroup:
		for _, g := range d.Groups {
			if g.ID != "" && g.Name != "" {
				add(g.ID, g.Name)
			}
		}
	case GroupByMemberStatus:
		add(model.MemberStatusActive, model.MemberStatusActive)
		add(model.MemberStatusWithdrawn, model.MemberStatusWithdrawn)
	}
	return out
}

func memberIn(m *model.Member, groupBy, key string, groupsOf map[string]map[string]bool) bool {
	switch groupBy {
	case GroupByYear:
		return m.BranchEnrollmentYear != nil && strconv.Itoa(*m.BranchEnrollmentYear) == key
	case GroupByUnit, GroupByRank, GroupByProfile:
		return memberField(m, groupBy) == key
	case GroupByWhatsAppGroup:
		return groupsOf[m.ID][key]
	case GroupByMemberStatus:
		status := m.Status
		if status == "" {
			status = model.MemberStatusActive
		}
		return status == key
	}
	return false
}

func paymentIn(p *model.Payment, groupBy, key string) bool {
	switch groupBy {
	case GroupByYear:
		return p.Year != nil && strconv.Itoa(*p.Year) == key
	case GroupByMonth:
		return p.Year != nil && paymentMonth(*p.Year) == key
	case GroupByPaymentType:
		return p.PaymentType == key
	}
	return false
}

func activityIn(a *model.Activity, groupBy, key string) bool {
	switch groupBy {
	case GroupByYear:
		day, ok := activityDay(a)
		return ok && strconv.Itoa(day.Year()) == key
	case GroupByMonth:
		day, ok := activityDay(a)
		return ok && day.Format("2006-01") == key
	case GroupByActivityType:
		return a.TypeID != nil && strconv.FormatUint(*a.TypeID, 10) == key
	}
	return false
}

func memberField(m *model.Member, groupBy string) string {
	switch groupBy {
	case GroupByUnit:
		return m.Unit
	case GroupByRank:
		return m.Rank
	case GroupByProfile:
		return m.MainProfile
	}
	return ""
}

func distinctSorted(members []model.Member, field func(*model.Member) string) []string {
	seen := map[string]bool{}
	var out []string
	for i := range members {
		v := field(&members[i])
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sortRomanian(out)
	return out
}

func sortRomanian(values []string) {
	col := collate.New(language.Romanian, collate.IgnoreCase)
	sort.SliceStable(values, func(i, j int) bool { return col.CompareString(values[i], values[j]) < 0 })
}

func countMembers(members []model.Member, in func(*model.Member) bool) int {
	n := 0
	for i := range members {
		if in(&members[i]) {
			n++
		}
	}
	return n
}

func memberIDSet(members []model.Member, in func(*model.Member) bool) map[string]bool {
	ids := map[string]bool{}
	for i := range members {
		if in(&members[i]) {
			ids[members[i].ID] = true
		}
	}
	return ids
}

func activityDay(a *model.Activity) (time.Time, bool) {
	if a.DateFrom == nil {
		return time.Time{}, false
	}
	return parseDay(*a.DateFrom)
}

func parseDay(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, s)
	return t, err == nil
}

func paymentMonth(year int) string {
	return strconv.Itoa(year) + "-01"
}

func anyOf(allowed []string, v string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

// optAnyOf 有过滤条件时空值不匹配
func optAnyOf(allowed []string, v *string) bool {
	if len(allowed) == 0 {
		return true
	}
	return v != nil && anyOf(allowed, *v)
}

func inAnyGroup(groups map[string]bool, want []string) bool {
	for _, g := range want {
		if groups[g] {
			return true
		}
	}
	return false
}

// hasNeed 在三类需求文本里做不区分大小写的包含匹配
func hasNeed(m *model.Member, needs []string) bool {
	text := strings.ToLower(m.BranchNeeds + "\n" + m.FoundationNeeds + "\n" + m.OtherNeeds)
	for _, n := range needs {
		if n = strings.TrimSpace(strings.ToLower(n)); n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
