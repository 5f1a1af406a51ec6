package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"Member_Registry/internal/handler"
	"Member_Registry/internal/middleware"
	"Member_Registry/internal/model"
	"Member_Registry/internal/pkg"
	"Member_Registry/internal/repository/sqlstore"
	"Member_Registry/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "router-test-secret"

type testEnv struct {
	r      *gin.Engine
	db     *gorm.DB
	audit  *service.AuditLogger
	tokens *pkg.TokenManager
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, sqlstore.Migrate(context.Background(), db))

	audit := service.NewAuditLogger(db, nil)
	t.Cleanup(audit.Wait)
	tokens := pkg.NewTokenManager(testSecret)
	auth := service.NewAuthService(db, tokens, audit)

	h := &Handlers{
		Auth:     handler.NewAuthHandler(auth, false, int(tokens.TTL().Seconds())),
		System:   handler.NewSystemHandler(service.NewHealthService(db, true), service.NewStatsService(db), audit),
		Member:   handler.NewMemberHandler(service.NewMemberService(db, audit)),
		Payment:  handler.NewPaymentHandler(service.NewPaymentService(db, audit)),
		Activity: handler.NewActivityHandler(service.NewActivityService(db, audit)),
		Dictionary: handler.NewDictionaryHandler(
			service.NewActivityTypeService(db, audit),
			service.NewUnitService(db, audit),
			service.NewValueListService(db, audit),
		),
		Group:     handler.NewGroupHandler(service.NewGroupService(db, audit)),
		Admin:     handler.NewAdminHandler(service.NewAdminService(db, audit)),
		Analytics: handler.NewAnalyticsHandler(service.NewAnalyticsService(db)),
	}
	r := InitRouter(h, Options{Tokens: tokens, Users: auth, Metrics: middleware.NewMetrics()})
	return &testEnv{r: r, db: db, audit: audit, tokens: tokens}
}

// login 直接建账号并签发令牌
func (e *testEnv) login(t *testing.T, id, role string) string {
	t.Helper()
	p := &model.Profile{ID: id, Email: id + "@example.ro", FullName: "Test " + role, Role: role, IsActive: true}
	require.NoError(t, e.db.Create(p).Error)
	token, err := e.tokens.Generate(p.ID, p.Email, p.Role)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if _, ok := body.(string); ok {
		req.Header.Set("Content-Type", "text/csv")
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRouter_Unconfigured(t *testing.T) {
	tokens := pkg.NewTokenManager("")
	auth := service.NewAuthService(nil, tokens, nil)
	r := InitRouter(&Handlers{
		Auth:   handler.NewAuthHandler(auth, false, 0),
		System: handler.NewSystemHandler(service.NewHealthService(nil, false), nil, nil),
	}, Options{Tokens: tokens, Users: auth})
	e := &testEnv{r: r}

	w := e.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	services := decode(t, w)["services"].([]any)
	require.Len(t, services, 3)
	assert.Equal(t, false, services[0].(map[string]any)["ok"])
	assert.Equal(t, true, services[2].(map[string]any)["ok"])

	w = e.do(http.MethodGet, "/api/setup", nil, "")
	assert.Equal(t, true, decode(t, w)["setupRequired"])

	w = e.do(http.MethodPost, "/api/setup", map[string]string{"email": "a@b.ro", "password": "parola123"}, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = e.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode(t, w)["user"])

	w = e.do(http.MethodGet, "/api/members", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_SetupLoginLogout(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/setup", map[string]string{"email": "admin@example.ro", "password": "scurt"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password must be at least 8 characters", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/setup", map[string]string{"email": "admin@example.ro", "password": "parola123"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Admin account created. You can now log in.", decode(t, w)["message"])

	w = e.do(http.MethodPost, "/api/setup", map[string]string{"email": "alt@example.ro", "password": "parola123"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodGet, "/api/setup", nil, "")
	assert.Equal(t, false, decode(t, w)["setupRequired"])

	w = e.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@example.ro", "password": "gresit"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "admin@example.ro", "password": "parola123"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "admin@example.ro", body["user"].(map[string]any)["email"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AuthCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	// cookie 认证
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	rec := httptest.NewRecorder()
	e.r.ServeHTTP(rec, req)
	assert.Equal(t, "admin", decode(t, rec)["user"].(map[string]any)["role"])

	w = e.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Nil(t, decode(t, w)["user"])

	w = e.do(http.MethodPost, "/api/auth/logout", nil, body["token"].(string))
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Result().Cookies()
	require.Len(t, out, 1)
	assert.Equal(t, "", out[0].Value)
	assert.True(t, out[0].MaxAge < 0)

	e.audit.Wait()
	var actions []string
	require.NoError(t, e.db.Model(&model.AuditLog{}).Order("created_at ASC").Pluck("action_type", &actions).Error)
	assert.Contains(t, actions, service.ActionLoginFailed)
	assert.Contains(t, actions, service.ActionLoginSuccess)
	assert.Contains(t, actions, service.ActionLogout)
}

func TestRouter_Permissions(t *testing.T) {
	e := newTestEnv(t)
	viewer := e.login(t, "u-viewer", model.RoleViewer)
	editor := e.login(t, "u-editor", model.RoleEditor)
	admin := e.login(t, "u-admin", model.RoleAdmin)

	w := e.do(http.MethodGet, "/api/members", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", decode(t, w)["error"])

	w = e.do(http.MethodGet, "/api/members", nil, "nu-un-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/api/members", nil, viewer)
	assert.Equal(t, http.StatusOK, w.Code)

	member := map[string]any{"lastName": "Popescu", "firstName": "Ion"}
	w = e.do(http.MethodPost, "/api/members", member, viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", decode(t, w)["error"])

	w = e.do(http.MethodPost, "/api/members", member, editor)
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)
	assert.Equal(t, "00001", created["memberCode"])
	id := created["id"].(string)

	w = e.do(http.MethodDelete, "/api/members/"+id, nil, editor)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodGet, "/api/audit-logs", nil, editor)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden - admin access required", decode(t, w)["error"])

	w = e.do(http.MethodDelete, "/api/members/"+id, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	// 停用后旧令牌失效
	require.NoError(t, e.db.Model(&model.Profile{}).Where("id = ?", "u-viewer").Update("is_active", false).Error)
	w = e.do(http.MethodGet, "/api/members", nil, viewer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 角色以数据库为准
	require.NoError(t, e.db.Model(&model.Profile{}).Where("id = ?", "u-editor").Update("role", model.RoleViewer).Error)
	w = e.do(http.MethodPost, "/api/members", member, editor)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_Members(t *testing.T) {
	e := newTestEnv(t)
	editor := e.login(t, "u-editor", model.RoleEditor)

	w := e.do(http.MethodPost, "/api/members", map[string]any{"lastName": "Ionescu", "firstName": "Maria", "unit": "01234"}, editor)
	require.Equal(t, http.StatusOK, w.Code)
	id := decode(t, w)["id"].(string)

	w = e.do(http.MethodGet, "/api/members/search?q="+url.QueryEscape("ionescu"), nil, editor)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{id}, body["memberIds"])
	assert.Contains(t, body, "error")

	w = e.do(http.MethodPatch, "/api/members/"+id, map[string]any{"rank": "Colonel"}, editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Colonel", decode(t, w)["rank"])

	w = e.do(http.MethodPatch, "/api/members/"+id, "{", editor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/members/import", map[string]any{
		"members": []map[string]any{{"memberCode": "00001", "lastName": "Dublu", "firstName": "Cod"}},
	}, editor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/members/import", map[string]any{
		"members": []map[string]any{{"lastName": "Nou", "firstName": "Unu"}, {"lastName": "Nou", "firstName": "Doi"}},
	}, editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["imported"])

	w = e.do(http.MethodGet, "/api/members/export?fields=memberCode,lastName,cnp&sort=memberCode", nil, editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "membri_")
	assert.NotContains(t, w.Body.String(), "CNP")
	assert.Contains(t, w.Body.String(), "Ionescu")

	w = e.do(http.MethodGet, "/api/members/nu-exista", nil, editor)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ActivitiesAndParticipants(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "u-admin", model.RoleAdmin)

	w := e.do(http.MethodPost, "/api/activity-types", map[string]any{"name": "Ședință"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	typeID := decode(t, w)["id"].(string)

	w = e.do(http.MethodPost, "/api/activities", map[string]any{"type_id": typeID, "date_from": "2026-03-01", "title": "Adunare"}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	actID := decode(t, w)["id"].(string)
	assert.Equal(t, "ACT-0001", actID)

	var ids []string
	for _, n := range []string{"Popescu", "Ionescu"} {
		w = e.do(http.MethodPost, "/api/members", map[string]any{"lastName": n, "firstName": "Ion"}, admin)
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, decode(t, w)["id"].(string))
	}

	w = e.do(http.MethodPost, "/api/activities/"+actID+"/participants", map[string]any{"memberIds": ids[:1]}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["added"])

	csv := "cod_membru;rol\n00001;organizator\n00002;invitat\n99999;\n"
	w = e.do(http.MethodPost, "/api/activities/"+actID+"/participants/import?dryRun=true", csv, admin)
	require.Equal(t, http.StatusOK, w.Code)
	preview := decode(t, w)
	assert.Len(t, preview["valid"], 1)
	assert.Len(t, preview["duplicates"], 1)
	assert.Len(t, preview["missing"], 1)

	w = e.do(http.MethodPost, "/api/activities/"+actID+"/participants/import", csv, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/activities/"+actID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["participants_count"])

	w = e.do(http.MethodDelete, "/api/activities/"+actID+"/participants?memberId="+ids[0], nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/api/activities/"+actID+"/archive", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, "/api/activities/"+actID, nil, admin)
	assert.Equal(t, model.ActivityStatusArchived, decode(t, w)["status"])

	w = e.do(http.MethodGet, "/api/activities/export?withParticipants=true", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "activitati_participanti_")
	assert.Contains(t, w.Body.String(), "Ionescu")

	w = e.do(http.MethodGet, "/api/activities/participants", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)
}

func TestRouter_GroupsAndMemberships(t *testing.T) {
	e := newTestEnv(t)
	editor := e.login(t, "u-editor", model.RoleEditor)

	w := e.do(http.MethodPost, "/api/whatsapp-groups", map[string]any{}, editor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/whatsapp-groups", map[string]any{"name": "Filiala"}, editor)
	require.Equal(t, http.StatusOK, w.Code)
	groupID := decode(t, w)["id"].(string)

	var ids []string
	for _, n := range []string{"Popescu", "Ionescu"} {
		w = e.do(http.MethodPost, "/api/members", map[string]any{"lastName": n, "firstName": "Ion"}, editor)
		require.Equal(t, http.StatusOK, w.Code)
		ids = append(ids, decode(t, w)["id"].(string))
	}

	w = e.do(http.MethodPost, "/api/member-groups", map[string]any{"memberIds": ids, "bulkGroupId": groupID}, editor)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/whatsapp-groups/"+groupID, nil, editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["member_count"])

	w = e.do(http.MethodDelete, "/api/member-groups?bulkGroupId="+groupID+"&bulkMemberIds=nu-json", nil, editor)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bulk, _ := json.Marshal(ids[:1])
	w = e.do(http.MethodDelete, "/api/member-groups?bulkGroupId="+groupID+"&bulkMemberIds="+url.QueryEscape(string(bulk)), nil, editor)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/member-groups", nil, editor)
	var links []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &links))
	require.Len(t, links, 1)
	assert.Equal(t, ids[1], links[0]["member_id"])

	w = e.do(http.MethodGet, "/api/whatsapp-groups/"+groupID+"/members/export", nil, editor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ionescu")

	w = e.do(http.MethodDelete, "/api/whatsapp-groups/"+groupID, nil, editor)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_SettingsAndAudit(t *testing.T) {
	e := newTestEnv(t)
	admin := e.login(t, "u-admin", model.RoleAdmin)
	viewer := e.login(t, "u-viewer", model.RoleViewer)

	w := e.do(http.MethodGet, "/api/value-lists/ranks", nil, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["values"])

	w = e.do(http.MethodPut, "/api/value-lists/profiles", map[string]any{"values": []string{"Comandă"}}, viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(http.MethodPut, "/api/value-lists/profiles", map[string]any{"values": []string{"Comandă", "Stat major"}}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Comandă", "Stat major"}, decode(t, w)["values"])

	w = e.do(http.MethodGet, "/api/templates/participants", nil, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeff"))
	w = e.do(http.MethodGet, "/api/templates/nimic", nil, viewer)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPost, "/api/admin/users", map[string]any{"email": "nou@example.ro", "password": "parola", "role": "editor"}, admin)
	require.Equal(t, http.StatusCreated, w.Code)
	userID := decode(t, w)["user"].(map[string]any)["id"].(string)

	w = e.do(http.MethodPatch, "/api/admin/users/u-admin", map[string]any{"role": "viewer"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot demote yourself from admin role", decode(t, w)["error"])

	w = e.do(http.MethodPatch, "/api/admin/users/"+userID, map[string]any{"is_active": false}, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["user"].(map[string]any)["is_active"])

	w = e.do(http.MethodGet, "/api/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["users"], 3)

	w = e.do(http.MethodPost, "/api/audit-logs", map[string]any{
		"actionType": service.ActionPageView,
		"module":     service.ModuleMembers,
		"summary":    "Pagina membri",
		"metadata":   map[string]any{"email": "ion@example.ro"},
	}, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	logID := decode(t, w)["id"].(string)

	e.audit.Wait()
	w = e.do(http.MethodGet, "/api/audit-logs?limit=50", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode(t, w)["logs"].([]any)
	var found map[string]any
	for _, l := range logs {
		if m := l.(map[string]any); m["id"] == logID {
			found = m
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "u-viewer", found["user_id"])
	assert.Equal(t, "***@example.ro", found["metadata"].(map[string]any)["email"])

	w = e.do(http.MethodGet, "/api/stats", nil, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "totalMembers")
}

func TestRouter_Metrics(t *testing.T) {
	e := newTestEnv(t)
	e.do(http.MethodGet, "/api/health", nil, "")

	w := e.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `registry_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_UploadLimit(t *testing.T) {
	e := newTestEnv(t)
	editor := e.login(t, "u-editor", model.RoleEditor)

	big := "Nume,Prenume\n" + strings.Repeat("Popescu,Ion\n", (10<<20)/12+1)
	w := e.do(http.MethodPost, "/api/members/import", big, editor)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "File too large", decode(t, w)["error"])

	var count int64
	require.NoError(t, e.db.Model(&model.Member{}).Count(&count).Error)
	assert.Zero(t, count)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "membri.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Nume,Prenume,Grad,UM,Profil Principal\nPopescu,Ion,Maior,UM 0754,Infanterie\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/members/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+editor)
	rec := httptest.NewRecorder()
	e.r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["imported"])
}

func TestRouter_Analytics(t *testing.T) {
	e := newTestEnv(t)
	viewer := e.login(t, "u-viewer", model.RoleViewer)
	year := 2023
	require.NoError(t, e.db.Create(&model.Member{ID: "m1", MemberCode: "00001", LastName: "Popescu", FirstName: "Ion",
		Status: model.MemberStatusActive, Rank: "Maior", BranchEnrollmentYear: &year}).Error)
	require.NoError(t, e.db.Create(&model.Payment{PaymentCode: "P-000001", MemberID: "m1", Date: "2023-02-01", Year: &year, Amount: 80}).Error)

	query := map[string]any{"groupBy": []string{"rank"}, "metrics": []string{"member_count", "total_amount"}, "title": "Pe grade"}
	w := e.do(http.MethodPost, "/api/analytics", query, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/analytics", query, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	point := data[0].(map[string]any)
	assert.Equal(t, "Maior", point["label"])
	assert.Equal(t, float64(1), point["Membri"])
	assert.Equal(t, float64(80), point["Total (RON)"])
	assert.Equal(t, float64(1), body["metadata"].(map[string]any)["totalMembers"])

	w = e.do(http.MethodPost, "/api/analytics/export", query, viewer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="Pe_grade_`))
	assert.Equal(t, "\ufeffLabel,Membri,Total (RON)\nMaior,1,80", w.Body.String())

	w = e.do(http.MethodPost, "/api/analytics", map[string]any{"groupBy": []string{"county"}}, viewer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid groupBy", decode(t, w)["error"])
}

func TestRouter_Register(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "sef@example.ro", "password": "parola", "role": "viewer"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, model.RoleAdmin, body["user"].(map[string]any)["role"])
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.AuthCookieName, cookies[0].Name)
	adminToken := body["token"].(string)

	w = e.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "alt@example.ro", "password": "parola"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "alt@example.ro", "password": "parola", "role": "editor"}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleEditor, decode(t, w)["user"].(map[string]any)["role"])
	assert.Empty(t, w.Result().Cookies())

	editorToken := e.login(t, "u-editor", model.RoleEditor)
	w = e.do(http.MethodPost, "/api/auth/register", map[string]string{"email": "x@example.ro", "password": "parola"}, editorToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden - admin required", decode(t, w)["error"])
}
