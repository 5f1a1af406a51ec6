// Package client 是注册系统 HTTP API 的 Go 客户端
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"Member_Registry/internal/model"
)

const DefaultHTTPTimeout = 15 * time.Second

// APIError 服务端返回的 {"error": "..."}
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// User /auth/login 和 /auth/me 返回的用户
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login 成功后后续请求带 Bearer 令牌
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		User  *User  `json:"user"`
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()
	return out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return err
}

// Me 未登录时返回 nil
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) ListMembers(ctx context.Context) ([]model.Member, error) {
	var out []model.Member
	err := c.do(ctx, http.MethodGet, "/api/members", nil, &out)
	return out, err
}

func (c *Client) CreateMember(ctx context.Context, m *model.Member) (*model.Member, error) {
	var out model.Member
	if err := c.do(ctx, http.MethodPost, "/api/members", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMember patch 的键为 JSON 字段名，例如 rank、whatsappGroupIds
func (c *Client) UpdateMember(ctx context.Context, id string, patch map[string]any) (*model.Member, error) {
	var out model.Member
	if err := c.do(ctx, http.MethodPatch, "/api/members/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/members/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ImportMembers(ctx context.Context, members []model.Member) (int, error) {
	var out struct {
		Imported int `json:"imported"`
	}
	err := c.do(ctx, http.MethodPost, "/api/members/import", map[string]any{"members": members}, &out)
	return out.Imported, err
}

func (c *Client) SearchMembers(ctx context.Context, q string) ([]string, error) {
	var out struct {
		MemberIDs []string `json:"memberIds"`
	}
	err := c.do(ctx, http.MethodGet, "/api/members/search?q="+url.QueryEscape(q), nil, &out)
	return out.MemberIDs, err
}

func (c *Client) ListActivities(ctx context.Context) ([]model.Activity, error) {
	var out []model.Activity
	err := c.do(ctx, http.MethodGet, "/api/activities", nil, &out)
	return out, err
}

func (c *Client) CreateActivity(ctx context.Context, in map[string]any) (*model.Activity, error) {
	var out model.Activity
	if err := c.do(ctx, http.MethodPost, "/api/activities", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateActivity(ctx context.Context, id string, patch map[string]any) (*model.Activity, error) {
	var out model.Activity
	if err := c.do(ctx, http.MethodPatch, "/api/activities/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/activities/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ArchiveActivity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/activities/"+url.PathEscape(id)+"/archive", nil, nil)
}

func (c *Client) ReactivateActivity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/activities/"+url.PathEscape(id)+"/reactivate", nil, nil)
}

func (c *Client) Participants(ctx context.Context, activityID string) ([]model.ActivityParticipant, error) {
	var out []model.ActivityParticipant
	err := c.do(ctx, http.MethodGet, "/api/activities/"+url.PathEscape(activityID)+"/participants", nil, &out)
	return out, err
}

func (c *Client) AddParticipants(ctx context.Context, activityID string, memberIDs []string) (int, error) {
	var out struct {
		Added int `json:"added"`
	}
	err := c.do(ctx, http.MethodPost, "/api/activities/"+url.PathEscape(activityID)+"/participants",
		map[string]any{"memberIds": memberIDs}, &out)
	return out.Added, err
}

func (c *Client) RemoveParticipant(ctx context.Context, activityID, memberID string) error {
	path := "/api/activities/" + url.PathEscape(activityID) + "/participants?memberId=" + url.QueryEscape(memberID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) ListPayments(ctx context.Context, memberID string) ([]model.Payment, error) {
	path := "/api/payments"
	if memberID != "" {
		path += "?memberId=" + url.QueryEscape(memberID)
	}
	var out []model.Payment
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) CreatePayment(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	var out model.Payment
	if err := c.do(ctx, http.MethodPost, "/api/payments", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePayment code 是付款编号，例如 P-000001
func (c *Client) UpdatePayment(ctx context.Context, code string, patch map[string]any) (*model.Payment, error) {
	var out model.Payment
	if err := c.do(ctx, http.MethodPatch, "/api/payments/"+url.PathEscape(code), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePayment(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodDelete, "/api/payments/"+url.PathEscape(code), nil, nil)
}

// GroupInput 新建群组的请求体
type GroupInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// Membership 与服务端的成员关系请求一致：单个、批量（BulkGroupID）或一个成员进多个群
type Membership struct {
	MemberID    string   `json:"memberId,omitempty"`
	GroupID     string   `json:"groupId,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	MemberIDs   []string `json:"memberIds,omitempty"`
	BulkGroupID string   `json:"bulkGroupId,omitempty"`
	Mode        string   `json:"mode,omitempty"`
	GroupIDs    []string `json:"groupIds,omitempty"`
}

func (c *Client) ListGroups(ctx context.Context) ([]model.WhatsAppGroup, error) {
	var out []model.WhatsAppGroup
	err := c.do(ctx, http.MethodGet, "/api/whatsapp-groups", nil, &out)
	return out, err
}

func (c *Client) CreateGroup(ctx context.Context, in *GroupInput) (*model.WhatsAppGroup, error) {
	var out model.WhatsAppGroup
	if err := c.do(ctx, http.MethodPost, "/api/whatsapp-groups", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateGroup(ctx context.Context, id string, patch map[string]any) (*model.WhatsAppGroup, error) {
	var out model.WhatsAppGroup
	if err := c.do(ctx, http.MethodPatch, "/api/whatsapp-groups/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/whatsapp-groups/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Memberships(ctx context.Context) ([]model.MemberGroup, error) {
	var out []model.MemberGroup
	err := c.do(ctx, http.MethodGet, "/api/member-groups", nil, &out)
	return out, err
}

func (c *Client) JoinGroup(ctx context.Context, req *Membership) error {
	return c.do(ctx, http.MethodPost, "/api/member-groups", req, nil)
}

func (c *Client) LeaveGroup(ctx context.Context, memberID, groupID string) error {
	q := url.Values{"memberId": {memberID}, "groupId": {groupID}}
	return c.do(ctx, http.MethodDelete, "/api/member-groups?"+q.Encode(), nil, nil)
}

// BulkLeave 把多个成员一次移出同一个群
func (c *Client) BulkLeave(ctx context.Context, groupID string, memberIDs []string) error {
	ids, err := json.Marshal(memberIDs)
	if err != nil {
		return err
	}
	q := url.Values{"bulkGroupId": {groupID}, "bulkMemberIds": {string(ids)}}
	return c.do(ctx, http.MethodDelete, "/api/member-groups?"+q.Encode(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("close response body failed", "path", path, "error", err)
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
