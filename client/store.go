package client

import (
	"context"
	"sync"

	"Member_Registry/internal/model"
)

// MembersStore 本地成员列表；每次修改先写服务端，再整体重新拉取
type MembersStore struct {
	api *Client

	mu      sync.RWMutex
	members []model.Member
	loaded  bool
}

func NewMembersStore(api *Client) *MembersStore {
	return &MembersStore{api: api}
}

// Members 返回副本
func (s *MembersStore) Members() []model.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Member(nil), s.members...)
}

func (s *MembersStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *MembersStore) Refresh(ctx context.Context) error {
	list, err := s.api.ListMembers(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.members = list
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Invalidate 下次 Ensure 时重新拉取
func (s *MembersStore) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *MembersStore) Ensure(ctx context.Context) ([]model.Member, error) {
	if !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.Members(), nil
}

func (s *MembersStore) Create(ctx context.Context, m *model.Member) (*model.Member, error) {
	created, err := s.api.CreateMember(ctx, m)
	if err != nil {
		return nil, err
	}
	return created, s.reload(ctx)
}

func (s *MembersStore) Update(ctx context.Context, id string, patch map[string]any) (*model.Member, error) {
	updated, err := s.api.UpdateMember(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return updated, s.reload(ctx)
}

func (s *MembersStore) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteMember(ctx, id); err != nil {
		return err
	}
	return s.reload(ctx)
}

func (s *MembersStore) Import(ctx context.Context, members []model.Member) (int, error) {
	n, err := s.api.ImportMembers(ctx, members)
	if err != nil {
		return 0, err
	}
	return n, s.reload(ctx)
}

// Search 服务端给出匹配的 id，按本地列表顺序返回成员
func (s *MembersStore) Search(ctx context.Context, q string) ([]model.Member, error) {
	ids, err := s.api.SearchMembers(ctx, q)
	if err != nil {
		return nil, err
	}
	list, err := s.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	match := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		match[id] = struct{}{}
	}
	out := make([]model.Member, 0, len(ids))
	for _, m := range list {
		if _, ok := match[m.ID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MembersStore) reload(ctx context.Context) error {
	s.Invalidate()
	return s.Refresh(ctx)
}

// ActivitiesStore 与 MembersStore 相同的失效再拉取策略
type ActivitiesStore struct {
	api *Client

	mu         sync.RWMutex
	activities []model.Activity
	loaded     bool
}

func NewActivitiesStore(api *Client) *ActivitiesStore {
	return &ActivitiesStore{api: api}
}

func (s *ActivitiesStore) Activities() []model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Activity(nil), s.activities...)
}

func (s *ActivitiesStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *ActivitiesStore) Refresh(ctx context.Context) error {
	list, err := s.api.ListActivities(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.activities = list
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *ActivitiesStore) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *ActivitiesStore) Ensure(ctx context.Context) ([]model.Activity, error) {
	if !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.Activities(), nil
}

func (s *ActivitiesStore) Create(ctx context.Context, in map[string]any) (*model.Activity, error) {
	a, err := s.api.CreateActivity(ctx, in)
	if err != nil {
		return nil, err
	}
	return a, s.reload(ctx)
}

func (s *ActivitiesStore) Update(ctx context.Context, id string, patch map[string]any) (*model.Activity, error) {
	a, err := s.api.UpdateActivity(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return a, s.reload(ctx)
}

func (s *ActivitiesStore) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.api.DeleteActivity(ctx, id) })
}

func (s *ActivitiesStore) Archive(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.api.ArchiveActivity(ctx, id) })
}

func (s *ActivitiesStore) Reactivate(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.api.ReactivateActivity(ctx, id) })
}

// AddParticipants participants_count 变化，列表同样重新拉取
func (s *ActivitiesStore) AddParticipants(ctx context.Context, activityID string, memberIDs []string) (int, error) {
	n, err := s.api.AddParticipants(ctx, activityID, memberIDs)
	if err != nil {
		return 0, err
	}
	return n, s.reload(ctx)
}

func (s *ActivitiesStore) RemoveParticipant(ctx context.Context, activityID, memberID string) error {
	return s.mutate(ctx, func() error { return s.api.RemoveParticipant(ctx, activityID, memberID) })
}

func (s *ActivitiesStore) mutate(ctx context.Context, call func() error) error {
	if err := call(); err != nil {
		return err
	}
	return s.reload(ctx)
}

func (s *ActivitiesStore) reload(ctx context.Context) error {
	s.Invalidate()
	return s.Refresh(ctx)
}

// PaymentsStore 付款列表，可选只看一个成员
type PaymentsStore struct {
	api      *Client
	memberID string

	mu       sync.RWMutex
	payments []model.Payment
	loaded   bool
}

// NewPaymentsStore memberID 为空时加载全部付款
func NewPaymentsStore(api *Client, memberID string) *PaymentsStore {
	return &PaymentsStore{api: api, memberID: memberID}
}

func (s *PaymentsStore) Payments() []model.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Payment(nil), s.payments...)
}

func (s *PaymentsStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *PaymentsStore) Refresh(ctx context.Context) error {
	list, err := s.api.ListPayments(ctx, s.memberID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.payments = list
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *PaymentsStore) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *PaymentsStore) Ensure(ctx context.Context) ([]model.Payment, error) {
	if !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.Payments(), nil
}

func (s *PaymentsStore) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	created, err := s.api.CreatePayment(ctx, p)
	if err != nil {
		return nil, err
	}
	return created, s.reload(ctx)
}

func (s *PaymentsStore) Update(ctx context.Context, code string, patch map[string]any) (*model.Payment, error) {
	updated, err := s.api.UpdatePayment(ctx, code, patch)
	if err != nil {
		return nil, err
	}
	return updated, s.reload(ctx)
}

func (s *PaymentsStore) Delete(ctx context.Context, code string) error {
	if err := s.api.DeletePayment(ctx, code); err != nil {
		return err
	}
	return s.reload(ctx)
}

func (s *PaymentsStore) reload(ctx context.Context) error {
	s.Invalidate()
	return s.Refresh(ctx)
}

// GroupsStore 群组和成员关系一起缓存；关系变化会改 member_count，两者一起重新拉取
type GroupsStore struct {
	api *Client

	mu          sync.RWMutex
	groups      []model.WhatsAppGroup
	memberships []model.MemberGroup
	loaded      bool
}

func NewGroupsStore(api *Client) *GroupsStore {
	return &GroupsStore{api: api}
}

func (s *GroupsStore) Groups() []model.WhatsAppGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.WhatsAppGroup(nil), s.groups...)
}

func (s *GroupsStore) Memberships() []model.MemberGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.MemberGroup(nil), s.memberships...)
}

// GroupIDsOf 某个成员所在的群组 id
func (s *GroupsStore) GroupIDsOf(memberID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, l := range s.memberships {
		if l.MemberID == memberID {
			ids = append(ids, l.GroupID)
		}
	}
	return ids
}

func (s *GroupsStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *GroupsStore) Refresh(ctx context.Context) error {
	groups, err := s.api.ListGroups(ctx)
	if err != nil {
		return err
	}
	links, err := s.api.Memberships(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.groups = groups
	s.memberships = links
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *GroupsStore) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *GroupsStore) Ensure(ctx context.Context) ([]model.WhatsAppGroup, error) {
	if !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}
	return s.Groups(), nil
}

func (s *GroupsStore) Create(ctx context.Context, in *GroupInput) (*model.WhatsAppGroup, error) {
	g, err := s.api.CreateGroup(ctx, in)
	if err != nil {
		return nil, err
	}
	return g, s.reload(ctx)
}

func (s *GroupsStore) Update(ctx context.Context, id string, patch map[string]any) (*model.WhatsAppGroup, error) {
	g, err := s.api.UpdateGroup(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return g, s.reload(ctx)
}

func (s *GroupsStore) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error { return s.api.DeleteGroup(ctx, id) })
}

func (s *GroupsStore) Join(ctx context.Context, req *Membership) error {
	return s.mutate(ctx, func() error { return s.api.JoinGroup(ctx, req) })
}

func (s *GroupsStore) Leave(ctx context.Context, memberID, groupID string) error {
	return s.mutate(ctx, func() error { return s.api.LeaveGroup(ctx, memberID, groupID) })
}

func (s *GroupsStore) BulkLeave(ctx context.Context, groupID string, memberIDs []string) error {
	return s.mutate(ctx, func() error { return s.api.BulkLeave(ctx, groupID, memberIDs) })
}

func (s *GroupsStore) mutate(ctx context.Context, call func() error) error {
	if err := call(); err != nil {
		return err
	}
	return s.reload(ctx)
}

func (s *GroupsStore) reload(ctx context.Context) error {
	s.Invalidate()
	return s.Refresh(ctx)
}
