package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"certia/internal/notify"
	"certia/internal/objectstore"
	"certia/internal/realtime"
	"certia/internal/signature"
	"certia/internal/store"
	"certia/internal/templates"
	"certia/internal/workflow"
	"certia/pkg/authn"
	"certia/pkg/domain"
	"certia/pkg/webhooks"

	"go.uber.org/zap"
)

// memStore backs the whole handler surface in memory: profiles, templates,
// submissions, and provider idempotency records.
type memStore struct {
	mu          sync.Mutex
	profiles    map[string]domain.Profile
	passwords   map[string]string
	templates   map[string]domain.Template
	submissions map[string]domain.Submission
	idem        map[string]map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		profiles:    map[string]domain.Profile{},
		passwords:   map[string]string{},
		templates:   map[string]domain.Template{},
		submissions: map[string]domain.Submission{},
		idem:        map[string]map[string]any{},
	}
}

func (m *memStore) CreateProfile(ctx context.Context, p domain.Profile, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.profiles {
		if other.Email == p.Email {
			return domain.ErrConflict
		}
	}
	m.profiles[p.ID] = p
	m.passwords[p.ID] = hash
	return nil
}

func (m *memStore) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return p, domain.NotFoundf("profile %s", id)
	}
	return p, nil
}

func (m *memStore) GetProfileByEmail(ctx context.Context, email string) (domain.Profile, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.profiles {
		if p.Email == email {
			return p, m.passwords[id], nil
		}
	}
	return domain.Profile{}, "", domain.NotFoundf("profile %s", email)
}

func (m *memStore) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, id string, upd store.ProfileUpdate) (domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return p, domain.NotFoundf("profile %s", id)
	}
	if upd.Username != nil {
		p.Username = *upd.Username
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.Role != nil {
		p.Role = *upd.Role
	}
	m.profiles[id] = p
	return p, nil
}

func (m *memStore) DeleteProfileCascade(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[id]; !ok {
		return domain.NotFoundf("profile %s", id)
	}
	for sid, s := range m.submissions {
		if s.ClientID == id {
			delete(m.submissions, sid)
		}
	}
	delete(m.profiles, id)
	delete(m.passwords, id)
	return nil
}

func (m *memStore) CountRows(ctx context.Context, table, column, value string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.profiles {
		if string(p.Role) == value {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CompanySubmissionStats(ctx context.Context, companyID string) (store.SubmissionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := store.SubmissionStats{
		ByStatus:   map[domain.Status]int{},
		ByMonth:    map[string]int{},
		ByTemplate: map[string]int{},
	}
	for _, s := range m.submissions {
		t, ok := m.templates[s.TemplateID]
		if !ok || t.CompanyID != companyID {
			continue
		}
		stats.Total++
		stats.ByStatus[s.Status]++
		stats.ByMonth[s.CreatedAt.Format("2006-01")]++
		stats.ByTemplate[t.Name]++
	}
	return stats, nil
}

func (m *memStore) CountSubmissionsByStatus(ctx context.Context) (map[domain.Status]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[domain.Status]int{}
	for _, s := range m.submissions {
		out[s.Status]++
	}
	return out, nil
}

func (m *memStore) CreateTemplate(ctx context.Context, t domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) GetTemplate(ctx context.Context, id string) (domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return t, domain.NotFoundf("template %s", id)
	}
	return t, nil
}

func (m *memStore) UpdateTemplate(ctx context.Context, t domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return domain.NotFoundf("template %s", t.ID)
	}
	m.templates[t.ID] = t
	return nil
}

func (m *memStore) SetTemplateActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return domain.NotFoundf("template %s", id)
	}
	t.IsActive = active
	m.templates[id] = t
	return nil
}

func (m *memStore) DeleteTemplate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submissions {
		if s.TemplateID == id {
			return domain.ErrConflict
		}
	}
	delete(m.templates, id)
	return nil
}

func (m *memStore) ListTemplatesByCompany(ctx context.Context, companyID string) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Template
	for _, t := range m.templates {
		if t.CompanyID == companyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) ListActiveTemplates(ctx context.Context) ([]domain.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Template
	for _, t := range m.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) CreateSubmission(ctx context.Context, sub domain.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[sub.ID] = sub
	return nil
}

func (m *memStore) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return s, domain.NotFoundf("submission %s", id)
	}
	return s, nil
}

func (m *memStore) GetSubmissionByTransaction(ctx context.Context, txnID string) (domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submissions {
		if s.SignatureTransactionID == txnID {
			return s, nil
		}
	}
	return domain.Submission{}, domain.NotFoundf("transaction %s", txnID)
}

func (m *memStore) UpdateSubmissionStatus(ctx context.Context, id string, from, to domain.Status, upd store.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return domain.NotFoundf("submission %s", id)
	}
	if s.Status != from {
		return domain.ErrConflict
	}
	s.Status = to
	if upd.Notes != nil {
		s.Notes = *upd.Notes
	}
	if upd.ReviewedAt != nil {
		s.ReviewedAt = upd.ReviewedAt
	}
	if upd.ReviewedBy != nil {
		s.ReviewedBy = *upd.ReviewedBy
	}
	if upd.TransactionID != nil {
		s.SignatureTransactionID = *upd.TransactionID
	}
	if upd.SignatureState != nil {
		s.SignatureStatus = *upd.SignatureState
	}
	if upd.SignedPDFURL != nil {
		s.SignedPDFURL = *upd.SignedPDFURL
	}
	if upd.SignedAt != nil {
		s.SignedAt = upd.SignedAt
	}
	if upd.SignedBy != nil {
		s.SignedBy = *upd.SignedBy
	}
	m.submissions[id] = s
	return nil
}

func (m *memStore) ClearSignatureTransaction(ctx context.Context, id string, from domain.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return domain.NotFoundf("submission %s", id)
	}
	if s.Status != from {
		return domain.ErrConflict
	}
	s.Status = domain.StatusApproved
	s.SignatureTransactionID = ""
	s.SignatureStatus = ""
	m.submissions[id] = s
	return nil
}

func (m *memStore) ListSubmissionsForCompany(ctx context.Context, companyID string, statusFilter domain.Status) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Submission
	for _, s := range m.submissions {
		t, ok := m.templates[s.TemplateID]
		if !ok || t.CompanyID != companyID {
			continue
		}
		if statusFilter != "" && s.Status != statusFilter {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) ListSubmissionsForClient(ctx context.Context, clientID string) ([]domain.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Submission
	for _, s := range m.submissions {
		if s.ClientID == clientID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetIdempotencyRecord(ctx context.Context, scope, key string) (map[string]any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.idem[scope+"/"+key]
	return rec, ok, nil
}

func (m *memStore) SaveIdempotencyRecord(ctx context.Context, scope, key string, body map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.idem[scope+"/"+key]; ok {
		return nil
	}
	m.idem[scope+"/"+key] = body
	return nil
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, tpl domain.Template, data domain.FormData, recipientName string, generatedAt time.Time) ([]byte, error) {
	if err := domain.ValidateFormData(tpl.Fields, data); err != nil {
		return nil, err
	}
	return []byte("%PDF-1.4 stub"), nil
}

const testSecret = "test-secret"

func newTestApp(t *testing.T) (*app, *memStore) {
	t.Helper()
	ms := newMemStore()
	objects := objectstore.NewMemory()
	provider := signature.NewMock(objects, ms, "http://certia.local")
	logger := zap.NewNop()
	a := &app{
		cfg: config{
			AppName:       "CERTIA",
			JWTSecret:     testSecret,
			BaseURL:       "http://certia.local",
			WebhookSecret: "hook-secret",
		},
		logger:   logger,
		profiles: ms,
		engine:   workflow.NewEngine(ms, stubRenderer{}, provider, notify.Noop{}, logger, "CERTIA"),
		tm:       templates.NewManager(ms),
		objects:  objects,
		provider: provider,
		hub:      realtime.NewHub(),
		mailer:   notify.Noop{},
	}
	return a, ms
}

func seedUser(t *testing.T, ms *memStore, id string, role domain.Role) string {
	t.Helper()
	err := ms.CreateProfile(context.Background(), domain.Profile{
		ID: id, Email: id + "@example.com", FullName: "User " + id, Role: role,
	}, "")
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	token, err := authn.GenerateToken(testSecret, id, id+"@example.com", role)
	if err != nil {
		t.Fatalf("token %s: %v", id, err)
	}
	return token
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestRegisterAndLogin(t *testing.T) {
	a, _ := newTestApp(t)
	r := newRouter(a)

	rec := doJSON(t, r, "POST", "/auth/register", "", map[string]any{
		"email": "Ana@Example.com", "password": "s3cret", "full_name": "Ana", "role": "client",
	})
	if rec.Code != 201 {
		t.Fatalf("register status = %d body %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["token"] == "" {
		t.Fatalf("register returned no token")
	}

	rec = doJSON(t, r, "POST", "/auth/login", "", map[string]any{
		"email": "ana@example.com", "password": "s3cret",
	})
	if rec.Code != 200 {
		t.Fatalf("login status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "POST", "/auth/login", "", map[string]any{
		"email": "ana@example.com", "password": "wrong",
	})
	if rec.Code != 401 {
		t.Fatalf("bad password status = %d", rec.Code)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	a, _ := newTestApp(t)
	r := newRouter(a)
	rec := doJSON(t, r, "POST", "/auth/register", "", map[string]any{
		"email": "boss@example.com", "password": "pw", "role": "admin",
	})
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a, _ := newTestApp(t)
	r := newRouter(a)
	rec := doJSON(t, r, "GET", "/submissions", "", nil)
	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTemplateCRUDAndRoleGating(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)
	clientTok := seedUser(t, ms, "cl1", domain.RoleClient)

	tpl := map[string]any{
		"name": "Diploma", "title_es": "Certificado",
		"design": map[string]any{"border_style": "solid", "columns": 2},
		"fields": []map[string]any{
			{"id": "curso", "type": "text", "label_es": "Curso", "required": true, "order": 1},
		},
	}

	if rec := doJSON(t, r, "POST", "/templates", clientTok, tpl); rec.Code != 403 {
		t.Fatalf("client create status = %d, want 403", rec.Code)
	}

	rec := doJSON(t, r, "POST", "/templates", companyTok, tpl)
	if rec.Code != 201 {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["template"].(map[string]any)
	tplID := created["id"].(string)
	if !strings.HasPrefix(tplID, "tpl_") {
		t.Fatalf("template id = %q", tplID)
	}

	// not active yet, clients cannot see it in the catalogue
	rec = doJSON(t, r, "GET", "/templates/active", clientTok, nil)
	if got := decodeBody(t, rec)["templates"]; got != nil {
		t.Fatalf("catalogue before activation = %v", got)
	}

	rec = doJSON(t, r, "POST", "/templates/"+tplID+"/active", companyTok, map[string]any{"active": true})
	if rec.Code != 200 {
		t.Fatalf("activate status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "GET", "/templates/active", clientTok, nil)
	if list := decodeBody(t, rec)["templates"].([]any); len(list) != 1 {
		t.Fatalf("catalogue after activation has %d entries", len(list))
	}
}

func TestSubmissionLifecycleOverHTTP(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)
	clientTok := seedUser(t, ms, "cl1", domain.RoleClient)

	ms.templates["tpl_1"] = domain.Template{
		ID: "tpl_1", CompanyID: "co1", Name: "Diploma", IsActive: true,
		Fields: []domain.Field{{ID: "curso", Type: domain.FieldText, LabelES: "Curso", Required: true}},
	}

	rec := doJSON(t, r, "POST", "/submissions", clientTok, map[string]any{
		"template_id": "tpl_1",
		"form_data":   map[string]any{"curso": "Go"},
	})
	if rec.Code != 201 {
		t.Fatalf("create status = %d body %s", rec.Code, rec.Body.String())
	}
	sub := decodeBody(t, rec)["submission"].(map[string]any)
	subID := sub["id"].(string)
	if sub["status"] != "pending" {
		t.Fatalf("status = %v, want pending", sub["status"])
	}

	// clients cannot review
	if rec := doJSON(t, r, "POST", "/submissions/"+subID+"/approve", clientTok, nil); rec.Code != 403 {
		t.Fatalf("client approve status = %d, want 403", rec.Code)
	}

	if rec := doJSON(t, r, "POST", "/submissions/"+subID+"/review", companyTok, nil); rec.Code != 200 {
		t.Fatalf("review status = %d body %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, r, "POST", "/submissions/"+subID+"/approve", companyTok, nil); rec.Code != 200 {
		t.Fatalf("approve status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "POST", "/submissions/"+subID+"/sign", companyTok, nil)
	if rec.Code != 200 {
		t.Fatalf("sign status = %d body %s", rec.Code, rec.Body.String())
	}
	txnID := decodeBody(t, rec)["transaction_id"].(string)
	if !strings.HasPrefix(txnID, "MOCK_") {
		t.Fatalf("transaction id = %q", txnID)
	}

	// the continuation page confirms the signature; no auth on this surface
	rec = doJSON(t, r, "POST", "/signing/mock/"+txnID+"/process", "", nil)
	if rec.Code != 200 {
		t.Fatalf("process status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "GET", "/submissions/"+subID, clientTok, nil)
	got := decodeBody(t, rec)["submission"].(map[string]any)
	if got["status"] != "signed" {
		t.Fatalf("final status = %v, want signed", got["status"])
	}
	if got["signed_pdf_url"] == nil || got["signed_pdf_url"] == "" {
		t.Fatalf("signed submission has no artifact url")
	}
}

func TestRejectRequiresNotes(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)
	seedUser(t, ms, "cl1", domain.RoleClient)

	ms.templates["tpl_1"] = domain.Template{ID: "tpl_1", CompanyID: "co1", Name: "D", IsActive: true}
	ms.submissions["sub_1"] = domain.Submission{
		ID: "sub_1", TemplateID: "tpl_1", ClientID: "cl1", Status: domain.StatusPending,
		FormData: domain.FormData{},
	}

	rec := doJSON(t, r, "POST", "/submissions/sub_1/reject", companyTok, nil)
	if rec.Code != 400 || errCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("status = %d code %s, want 400 VALIDATION_ERROR", rec.Code, errCode(t, rec))
	}

	rec = doJSON(t, r, "POST", "/submissions/sub_1/reject", companyTok, map[string]any{"notes": "datos incompletos"})
	if rec.Code != 200 {
		t.Fatalf("reject with notes status = %d body %s", rec.Code, rec.Body.String())
	}
}

func TestStatusFilterValidation(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)

	rec := doJSON(t, r, "GET", "/submissions?status=bogus", companyTok, nil)
	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSigningCallbackVerifiesHMAC(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	seedUser(t, ms, "cl1", domain.RoleClient)
	ms.submissions["sub_1"] = domain.Submission{
		ID: "sub_1", TemplateID: "tpl_1", ClientID: "cl1", Status: domain.StatusSigning,
		SignatureTransactionID: "MOCK_1_abc",
	}

	payload := []byte(`{"transaction_id":"MOCK_1_abc","outcome":"failure"}`)

	req := httptest.NewRequest("POST", "/signing/callback", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 401 {
		t.Fatalf("unsigned callback status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest("POST", "/signing/callback", bytes.NewReader(payload))
	req.Header.Set("X-Signature", signPayload(payload, "hook-secret"))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 200 {
		t.Fatalf("signed callback status = %d body %s", rec.Code, rec.Body.String())
	}
	if got := ms.submissions["sub_1"].Status; got != domain.StatusError {
		t.Fatalf("submission status = %s, want error", got)
	}
}

func TestCompanyStatsScopedToCompany(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)
	clientTok := seedUser(t, ms, "cl1", domain.RoleClient)
	seedUser(t, ms, "co2", domain.RoleCompany)

	ms.templates["tpl_1"] = domain.Template{ID: "tpl_1", CompanyID: "co1", Name: "Diploma", IsActive: true}
	ms.templates["tpl_2"] = domain.Template{ID: "tpl_2", CompanyID: "co2", Name: "Otro", IsActive: true}
	created := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	ms.submissions["sub_1"] = domain.Submission{
		ID: "sub_1", TemplateID: "tpl_1", ClientID: "cl1", Status: domain.StatusPending, CreatedAt: created,
	}
	ms.submissions["sub_2"] = domain.Submission{
		ID: "sub_2", TemplateID: "tpl_1", ClientID: "cl1", Status: domain.StatusSigned, CreatedAt: created,
	}
	ms.submissions["sub_3"] = domain.Submission{
		ID: "sub_3", TemplateID: "tpl_2", ClientID: "cl1", Status: domain.StatusPending, CreatedAt: created,
	}

	if rec := doJSON(t, r, "GET", "/submissions/stats", clientTok, nil); rec.Code != 403 {
		t.Fatalf("client stats status = %d, want 403", rec.Code)
	}

	rec := doJSON(t, r, "GET", "/submissions/stats", companyTok, nil)
	if rec.Code != 200 {
		t.Fatalf("stats status = %d body %s", rec.Code, rec.Body.String())
	}
	stats := decodeBody(t, rec)["stats"].(map[string]any)
	if stats["total"].(float64) != 2 {
		t.Fatalf("total = %v, want 2 (other company's submission leaked in)", stats["total"])
	}
	byStatus := stats["by_status"].(map[string]any)
	if byStatus["pending"].(float64) != 1 || byStatus["signed"].(float64) != 1 {
		t.Fatalf("by_status = %v", byStatus)
	}
	if stats["by_month"].(map[string]any)["2026-08"].(float64) != 2 {
		t.Fatalf("by_month = %v", stats["by_month"])
	}
	if stats["by_template"].(map[string]any)["Diploma"].(float64) != 2 {
		t.Fatalf("by_template = %v", stats["by_template"])
	}
}

func TestAdminUpdatesUserProfile(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	adminTok := seedUser(t, ms, "adm1", domain.RoleAdmin)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)
	seedUser(t, ms, "cl1", domain.RoleClient)

	if rec := doJSON(t, r, "PUT", "/admin/users/cl1", companyTok, map[string]any{"role": "company"}); rec.Code != 403 {
		t.Fatalf("company edit status = %d, want 403", rec.Code)
	}

	rec := doJSON(t, r, "PUT", "/admin/users/cl1", adminTok, map[string]any{
		"full_name": "Ana Pérez", "role": "company",
	})
	if rec.Code != 200 {
		t.Fatalf("edit status = %d body %s", rec.Code, rec.Body.String())
	}
	user := decodeBody(t, rec)["user"].(map[string]any)
	if user["full_name"] != "Ana Pérez" || user["role"] != "company" {
		t.Fatalf("updated user = %v", user)
	}
	// untouched fields keep their values
	if user["email"] != "cl1@example.com" {
		t.Fatalf("email changed to %v", user["email"])
	}

	if rec := doJSON(t, r, "PUT", "/admin/users/cl1", adminTok, map[string]any{"role": "superuser"}); rec.Code != 400 {
		t.Fatalf("bad role status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, r, "PUT", "/admin/users/missing", adminTok, map[string]any{"full_name": "x"}); rec.Code != 404 {
		t.Fatalf("missing user status = %d, want 404", rec.Code)
	}
}

func TestAdminCannotFetchSubmission(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	adminTok := seedUser(t, ms, "adm1", domain.RoleAdmin)
	seedUser(t, ms, "cl1", domain.RoleClient)
	ms.submissions["sub_1"] = domain.Submission{
		ID: "sub_1", TemplateID: "tpl_1", ClientID: "cl1", Status: domain.StatusPending,
	}

	rec := doJSON(t, r, "GET", "/submissions/sub_1", adminTok, nil)
	if rec.Code != 403 {
		t.Fatalf("admin fetch status = %d, want 403", rec.Code)
	}
}

func TestAdminStatsAndUserManagement(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	adminTok := seedUser(t, ms, "adm1", domain.RoleAdmin)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)

	if rec := doJSON(t, r, "GET", "/admin/stats", companyTok, nil); rec.Code != 403 {
		t.Fatalf("company stats status = %d, want 403", rec.Code)
	}

	rec := doJSON(t, r, "POST", "/admin/users", adminTok, map[string]any{
		"email": "new@example.com", "password": "pw", "role": "company",
	})
	if rec.Code != 201 {
		t.Fatalf("create user status = %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, "GET", "/admin/stats", adminTok, nil)
	if rec.Code != 200 {
		t.Fatalf("stats status = %d body %s", rec.Code, rec.Body.String())
	}
	byRole := decodeBody(t, rec)["users_by_role"].(map[string]any)
	if byRole["company"].(float64) != 2 {
		t.Fatalf("company count = %v, want 2", byRole["company"])
	}

	if rec := doJSON(t, r, "DELETE", "/admin/users/adm1", adminTok, nil); rec.Code != 400 {
		t.Fatalf("self delete status = %d, want 400", rec.Code)
	}
	if rec := doJSON(t, r, "DELETE", "/admin/users/co1", adminTok, nil); rec.Code != 204 {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestFileUploadAndServe(t *testing.T) {
	a, ms := newTestApp(t)
	r := newRouter(a)
	companyTok := seedUser(t, ms, "co1", domain.RoleCompany)

	req := httptest.NewRequest("POST", "/files/logos?name=logo.png", bytes.NewReader([]byte("png-bytes")))
	req.Header.Set("Authorization", "Bearer "+companyTok)
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 201 {
		t.Fatalf("upload status = %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	objectPath := body["path"].(string)

	get := httptest.NewRequest("GET", "/files/logos/"+objectPath, nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, get)
	if got.Code != 200 {
		t.Fatalf("serve status = %d", got.Code)
	}
	if got.Body.String() != "png-bytes" {
		t.Fatalf("served body = %q", got.Body.String())
	}
	if ct := got.Header().Get("content-type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}

	// signed certificates are not writable through the upload surface
	req = httptest.NewRequest("POST", "/files/signed-certificates", bytes.NewReader([]byte("%PDF")))
	req.Header.Set("Authorization", "Bearer "+companyTok)
	req.Header.Set("Content-Type", "application/pdf")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != 403 {
		t.Fatalf("signed bucket upload status = %d, want 403", rec.Code)
	}
}

func signPayload(body []byte, secret string) string {
	return webhooks.Sign(body, secret)
}
