package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/minato/gyotaku/internal/migrate"
	"github.com/minato/gyotaku/internal/recordservice"
	"github.com/minato/gyotaku/internal/testutil"
	"github.com/minato/gyotaku/internal/validate"
)

func testRouter(t *testing.T, authEnabled bool, token string) chi.Router {
	t.Helper()
	db := testutil.TestDB(t)
	_, blobs := testutil.TestPhotoDir(t)

	validator := validate.New(db, validate.DefaultRegion)
	registry, err := migrate.NewRegistry(migrate.Builtin()...)
	if err != nil {
		t.Fatal(err)
	}
	mgr := migrate.NewManager(db, registry, validator, blobs, "test", testutil.DiscardLogger())
	svc := recordservice.NewService(db, blobs, validator, false)
	return NewRouter(svc, mgr, nil, authEnabled, token, nil)
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, w.Body.String())
	}
	return env
}

func validBody() map[string]any {
	return map[string]any{
		"caught_at": "2025-05-02T06:00:00Z",
		"location":  "Lake Biwa",
		"species":   "bass",
		"size":      45.0,
	}
}

func TestRecordCRUDFlow(t *testing.T) {
	r := testRouter(t, false, "")

	w := doJSON(t, r, http.MethodPost, "/records", validBody())
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("create envelope = %+v", env)
	}
	created := env.Data.(map[string]any)
	id := created["id"].(string)
	if id == "" {
		t.Fatal("no id returned")
	}

	w = doJSON(t, r, http.MethodGet, "/records/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	body := validBody()
	body["species"] = "carp"
	w = doJSON(t, r, http.MethodPut, "/records/"+id, body)
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}
	env = decodeEnvelope(t, w)
	if env.Data.(map[string]any)["species"] != "carp" {
		t.Errorf("update not applied: %+v", env.Data)
	}

	w = doJSON(t, r, http.MethodDelete, "/records/"+id, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/records/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
	env = decodeEnvelope(t, w)
	if env.Success || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error envelope = %+v", env)
	}
}

func TestCreateRecord_ValidationEnvelope(t *testing.T) {
	r := testRouter(t, false, "")

	body := validBody()
	body["species"] = ""
	body["size"] = 1000.0
	w := doJSON(t, r, http.MethodPost, "/records", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Success || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Error.Details == nil {
		t.Error("validation details missing from error")
	}
}

func TestCreateRecord_BadJSON(t *testing.T) {
	r := testRouter(t, false, "")
	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListRecords(t *testing.T) {
	r := testRouter(t, false, "")
	for i := 0; i < 3; i++ {
		body := validBody()
		body["caught_at"] = fmt.Sprintf("2025-05-%02dT06:00:00Z", i+1)
		if w := doJSON(t, r, http.MethodPost, "/records", body); w.Code != http.StatusCreated {
			t.Fatalf("seed %d status = %d", i, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/records?limit=2", nil)
	env := decodeEnvelope(t, w)
	data := env.Data.(map[string]any)
	if data["total"].(float64) != 3 {
		t.Errorf("total = %v", data["total"])
	}
	if n := len(data["records"].([]any)); n != 2 {
		t.Errorf("page size = %d, want 2", n)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	r := testRouter(t, false, "")
	w := doJSON(t, r, http.MethodGet, "/records/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPhotoUpload(t *testing.T) {
	r := testRouter(t, false, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="catch.png"`)
	hdr.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte{0x89, 'P', 'N', 'G'})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	id := env.Data.(map[string]any)["id"].(string)

	// Raw bytes come back with the stored mime.
	getReq := httptest.NewRequest(http.MethodGet, "/photos/"+id, nil)
	gw := httptest.NewRecorder()
	r.ServeHTTP(gw, getReq)
	if gw.Code != http.StatusOK {
		t.Fatalf("serve status = %d", gw.Code)
	}
	if ct := gw.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
}

func TestStatsEndpoints(t *testing.T) {
	r := testRouter(t, false, "")
	if w := doJSON(t, r, http.MethodPost, "/records", validBody()); w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d", w.Code)
	}

	for _, path := range []string{
		"/stats/overall",
		"/stats/time",
		"/stats/size-distribution",
		"/stats/species",
		"/stats/locations",
		"/stats/weather",
	} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, w.Code)
			continue
		}
		if env := decodeEnvelope(t, w); !env.Success {
			t.Errorf("%s envelope = %+v", path, env)
		}
	}
}

func TestAdminVersionAndMigrations(t *testing.T) {
	r := testRouter(t, false, "")

	w := doJSON(t, r, http.MethodGet, "/admin/version", nil)
	env := decodeEnvelope(t, w)
	data := env.Data.(map[string]any)
	ver := data["version"].(map[string]any)
	if ver["schema_version"].(float64) != float64(migrate.TargetSchemaVersion) {
		t.Errorf("schema_version = %v", ver["schema_version"])
	}
	if n := len(data["pending"].([]any)); n != 0 {
		t.Errorf("pending = %d, want 0 after startup migration", n)
	}

	// Idempotent: a second run applies nothing.
	w = doJSON(t, r, http.MethodPost, "/admin/migrations/run", map[string]any{"dry_run": false})
	if w.Code != http.StatusOK {
		t.Fatalf("run status = %d", w.Code)
	}
	res := decodeEnvelope(t, w).Data.(map[string]any)
	if n := len(res["applied_migrations"].([]any)); n != 0 {
		t.Errorf("applied = %d, want 0", n)
	}
}

func TestAdminRollback(t *testing.T) {
	r := testRouter(t, false, "")

	w := doJSON(t, r, http.MethodPost, "/admin/migrations/003_trim_text_fields/rollback", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Error.Code != "ROLLBACK_NOT_SUPPORTED" {
		t.Errorf("code = %q", env.Error.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/admin/migrations/002_gps_accuracy/rollback", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rollback status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/admin/migrations/999_phantom/rollback", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", w.Code)
	}
}

func TestAdminIntegrityAndCleanup(t *testing.T) {
	r := testRouter(t, false, "")

	w := doJSON(t, r, http.MethodGet, "/admin/integrity", nil)
	env := decodeEnvelope(t, w)
	report := env.Data.(map[string]any)
	if report["is_valid"].(bool) != true {
		t.Errorf("fresh store should be valid: %+v", report)
	}

	w = doJSON(t, r, http.MethodPost, "/admin/photos/cleanup", map[string]any{"dry_run": true})
	if w.Code != http.StatusOK {
		t.Errorf("cleanup status = %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := testRouter(t, true, "sekrit")

	w := doJSON(t, r, http.MethodGet, "/records", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", w.Code)
	}
}
