package v1

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/vendorguard/vendorguard/internal/audit"
	"github.com/vendorguard/vendorguard/internal/auth"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/config"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/middleware"
	localstore "github.com/vendorguard/vendorguard/internal/storage/local"
	"github.com/vendorguard/vendorguard/internal/workflow"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	adminActor    = authz.Actor{ID: "admin-1", Role: authz.RoleAdmin, OrgID: "org-1"}
	reviewerActor = authz.Actor{ID: "rev-1", Role: authz.RoleReviewer, OrgID: "org-1"}
	vendorActor   = authz.Actor{ID: "ven-1", Role: authz.RoleVendor, OrgID: "org-1"}
)

var (
	assessmentCols = []string{"id", "org_id", "vendor_id", "template_id", "status", "score", "risk_level", "created_at", "updated_at"}
	reviewCols     = []string{"id", "org_id", "assessment_id", "reviewer_id", "comments", "decision", "created_at", "updated_at"}
)

type fixture struct {
	handlers *Handlers
	mock     sqlmock.Sqlmock
}

// newFixture builds the handler set over one shared sqlmock connection, with a
// real local blob store in a temp directory and no external scorer.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	userRepo := repositories.NewUserRepository(db)
	vendorRepo := repositories.NewVendorRepository(db)
	templateRepo := repositories.NewTemplateRepository(db)
	assessmentRepo := repositories.NewAssessmentRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	reviewRepo := repositories.NewReviewRepository(sqlxDB)
	remediationRepo := repositories.NewRemediationRepository(sqlxDB)
	evidenceRepo := repositories.NewEvidenceRepository(sqlxDB)
	responseRepo := repositories.NewResponseRepository(sqlxDB)

	blobs, err := localstore.New(&config.LocalStorageConfig{BasePath: t.TempDir()})
	if err != nil {
		t.Fatalf("local.New: %v", err)
	}

	recorder := audit.NewRecorder(auditRepo, nil)
	svc := workflow.NewService(
		assessmentRepo, reviewRepo, remediationRepo, vendorRepo, templateRepo,
		responseRepo, recorder, nil, nil,
	)

	cfg := &config.Config{}
	cfg.Auth.TokenExpiry = time.Hour

	return &fixture{
		handlers: NewHandlers(cfg, svc, userRepo, evidenceRepo, auditRepo, blobs, recorder),
		mock:     mock,
	}
}

// router returns a gin engine with the given actor pre-installed, bypassing
// JWT auth. RBAC permission checks are exercised by the workflow layer.
func (f *fixture) router(a authz.Actor) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextActorKey, a)
		c.Next()
	})

	h := f.handlers
	r.POST("/api/v1/auth/login", h.Login)
	r.POST("/api/v1/vendors", h.CreateVendor)
	r.GET("/api/v1/vendors/:id", h.GetVendor)
	r.POST("/api/v1/assessments", h.CreateAssessment)
	r.GET("/api/v1/assessments/:id", h.GetAssessment)
	r.POST("/api/v1/assessments/:id/submit", h.SubmitAssessment)
	r.POST("/api/v1/assessments/:id/approve", h.ApproveAssessment)
	r.POST("/api/v1/assessments/:id/evidence", h.UploadEvidence)
	r.GET("/api/v1/evidence/:id/download", h.DownloadEvidence)
	r.POST("/api/v1/reviews/:id/decision", h.DecideReview)
	r.GET("/api/v1/reviews/:id", h.GetReview)
	r.POST("/api/v1/assessments/:id/responses", h.SaveResponse)
	r.POST("/api/v1/responses/:id/submit", h.SubmitResponse)
	r.GET("/api/v1/dashboard/stats", h.DashboardStats)
	r.GET("/api/v1/dashboard/activity", h.DashboardActivity)
	r.GET("/api/v1/audit", h.ListAuditEntries)
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	t.Setenv("VG_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	f := newFixture(t)

	hash, err := auth.HashPassword("correct horse battery")
	if err != nil {
		t.Fatal(err)
	}
	orgID := "org-1"
	now := time.Now()
	f.mock.ExpectQuery(`SELECT id, org_id, email, name, role, password_hash, created_at, updated_at FROM users WHERE email = \$1`).
		WithArgs("admin@acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "email", "name", "role", "password_hash", "created_at", "updated_at"}).
			AddRow("admin-1", orgID, "admin@acme.test", "Admin", "admin", hash, now, now))

	w := doJSON(f.router(adminActor), http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "admin@acme.test", "password": "correct horse battery"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"token"`) {
		t.Errorf("response missing token: %s", w.Body.String())
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Setenv("VG_JWT_SECRET", "test-jwt-secret-that-is-32-chars!!")
	f := newFixture(t)

	hash, err := auth.HashPassword("rightpassword")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	f.mock.ExpectQuery(`SELECT id, org_id, email, name, role, password_hash, created_at, updated_at FROM users WHERE email = \$1`).
		WithArgs("admin@acme.test").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "email", "name", "role", "password_hash", "created_at", "updated_at"}).
			AddRow("admin-1", "org-1", "admin@acme.test", "Admin", "admin", hash, now, now))

	w := doJSON(f.router(adminActor), http.MethodPost, "/api/v1/auth/login",
		gin.H{"email": "admin@acme.test", "password": "wrongpassword"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCreateVendor_Admin(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`INSERT INTO vendors`).
		WithArgs("org-1", "Acme Hosting", "ops@acmehosting.test", 2, "active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("v-1", now, now))
	f.mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	w := doJSON(f.router(adminActor), http.MethodPost, "/api/v1/vendors",
		gin.H{"name": "Acme Hosting", "contact_email": "ops@acmehosting.test", "tier": 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateVendor_VendorRoleForbidden(t *testing.T) {
	f := newFixture(t)

	w := doJSON(f.router(vendorActor), http.MethodPost, "/api/v1/vendors",
		gin.H{"name": "Acme Hosting"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetAssessment_CrossTenantReadsAsAbsent(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`SELECT .+ FROM assessments WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "a-other-org").
		WillReturnRows(sqlmock.NewRows(assessmentCols))

	w := doJSON(f.router(adminActor), http.MethodGet, "/api/v1/assessments/a-other-org", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitAssessment_SameStateIsNoOp(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT .+ FROM assessments WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "a-1").
		WillReturnRows(sqlmock.NewRows(assessmentCols).
			AddRow("a-1", "org-1", "v-1", "t-1", "submitted", nil, nil, now, now))
	f.mock.ExpectQuery(`SELECT status FROM assessments`).
		WithArgs("org-1", "a-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("submitted"))

	w := doJSON(f.router(vendorActor), http.MethodPost, "/api/v1/assessments/a-1/submit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 no-op, got %d: %s", w.Code, w.Body.String())
	}
	// No UPDATE and no audit insert were expected; any would fail here.
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected statements executed: %v", err)
	}
}

func TestApproveAssessment_IllegalTransitionMessage(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT .+ FROM assessments WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "a-1").
		WillReturnRows(sqlmock.NewRows(assessmentCols).
			AddRow("a-1", "org-1", "v-1", "t-1", "assigned", nil, nil, now, now))
	f.mock.ExpectQuery(`SELECT status FROM assessments`).
		WithArgs("org-1", "a-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("assigned"))

	w := doJSON(f.router(reviewerActor), http.MethodPost, "/api/v1/assessments/a-1/approve", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	want := "Cannot transition from 'assigned' to 'approved'. Valid transitions: submitted"
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("body %s missing %q", w.Body.String(), want)
	}
}

func TestDecideReview_VendorForbidden(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT .+ FROM reviews WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "r-1").
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow("r-1", "org-1", "a-1", "rev-1", "", "pending", now, now))

	w := doJSON(f.router(vendorActor), http.MethodPost, "/api/v1/reviews/r-1/decision",
		gin.H{"decision": "approve"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDecideReview_UnknownDecision(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT .+ FROM reviews WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "r-1").
		WillReturnRows(sqlmock.NewRows(reviewCols).
			AddRow("r-1", "org-1", "a-1", "rev-1", "", "pending", now, now))

	w := doJSON(f.router(reviewerActor), http.MethodPost, "/api/v1/reviews/r-1/decision",
		gin.H{"decision": "maybe"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "approved") || !strings.Contains(w.Body.String(), "rejected") {
		t.Errorf("error should name the accepted decisions: %s", w.Body.String())
	}
}

func TestUploadEvidence_StoresBlobAndRow(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT .+ FROM assessments WHERE org_id = \$1 AND id = \$2`).
		WithArgs("org-1", "a-1").
		WillReturnRows(sqlmock.NewRows(assessmentCols).
			AddRow("a-1", "org-1", "v-1", "t-1", "assigned", nil, nil, now, now))
	f.mock.ExpectQuery(`INSERT INTO evidence`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("ev-1", now))
	f.mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "soc2.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("report contents")); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments/a-1/evidence", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router(vendorActor).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"checksum"`) {
		t.Errorf("response missing checksum: %s", w.Body.String())
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListAuditEntries_ScopedToOrg(t *testing.T) {
	f := newFixture(t)
	now := time.Now()

	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs WHERE 1=1 AND organization_id = \$1`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	f.mock.ExpectQuery(`SELECT .+ FROM audit_logs WHERE 1=1 AND organization_id = \$1`).
		WithArgs("org-1", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "organization_id", "action", "object_type", "object_id", "metadata", "ip_address", "created_at"}).
			AddRow("log-1", "admin-1", "org-1", "create_vendor", "vendor", "v-1", []byte(`{"name":"Acme"}`), nil, now))

	w := doJSON(f.router(adminActor), http.MethodGet, "/api/v1/audit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"total":1`) {
		t.Errorf("expected total 1: %s", w.Body.String())
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// A guessed or mistyped id must look exactly like an unknown one: Postgres
// rejects the text as a UUID, and the API answers 404, not 500.
func TestGetReview_MalformedID(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(`SELECT.*FROM reviews WHERE org_id`).
		WithArgs("org-1", "not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02"})

	w := doJSON(f.router(reviewerActor), http.MethodGet, "/api/v1/reviews/not-a-uuid", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestListAuditEntries_MalformedObjectIDFilter(t *testing.T) {
	f := newFixture(t)

	w := doJSON(f.router(adminActor), http.MethodGet, "/api/v1/audit?object_id=not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("malformed filter reached the database: %v", err)
	}
}

func TestSubmitResponse_AlreadySubmitted(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.mock.ExpectQuery(`SELECT.*FROM responses WHERE org_id`).
		WithArgs("org-1", "resp-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "assessment_id", "question_id", "answer_text", "submitted", "created_at", "updated_at"}).
			AddRow("resp-1", "org-1", "a-1", "3f1c8d4a-9b2e-4c7d-a5f6-0e1d2c3b4a59", "done", true, now, now))

	w := doJSON(f.router(vendorActor), http.MethodPost, "/api/v1/responses/resp-1/submit", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assessments WHERE org_id`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reviews WHERE org_id`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	f.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM remediations WHERE org_id`).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	w := doJSON(f.router(adminActor), http.MethodGet, "/api/v1/dashboard/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, want := range []string{`"total_assessments":4`, `"total_reviews":2`, `"total_remediations":1`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("response missing %s: %s", want, w.Body.String())
		}
	}
}

func TestDashboardActivity(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.mock.ExpectQuery(`SELECT COALESCE\(u.email, ''\), a.action`).
		WithArgs("org-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"email", "action", "object_type", "created_at"}).
			AddRow("admin@acme.test", "approve", "assessment", now).
			AddRow("vendor@acme.test", "submit_response", "response", now))

	w := doJSON(f.router(adminActor), http.MethodGet, "/api/v1/dashboard/activity", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"action":"submit_response"`) {
		t.Errorf("response missing activity entry: %s", w.Body.String())
	}
}
