package api

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"radsafe-dashboard/internal/analysis"
	"radsafe-dashboard/internal/logging"
	"radsafe-dashboard/internal/models"
	"radsafe-dashboard/internal/observability"
	"radsafe-dashboard/internal/service"
	"radsafe-dashboard/internal/state"

	"github.com/go-chi/chi/v5"
)

const receiptCSV = `Receipt Date,Radionuclide,Physical Form,Purpose
2024-01-01,F-18,Liquid,In vivo
2024-03-05,Tc-99m,Sealed source,QC
2024-02-10,F-18,sealed,in vivo
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newTestServerWithHandler(t)
	return srv
}

func newTestServerWithHandler(t *testing.T) (*httptest.Server, *Handler) {
	t.Helper()
	h := NewHandler(
		logging.Discard(),
		state.NewStore(time.Hour),
		analysis.NewTableService(analysis.DefaultMaxRows),
		service.NewDashboardService(models.Facts{DocumentNo: "DOC-1"}),
		observability.NewMetrics(),
		map[string]string{"rso": "s3cret"},
		1<<20,
		1_000_000,
	)
	r := chi.NewRouter()
	r.Use(h.Metrics.Middleware)
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, h
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func login(t *testing.T, c *http.Client, srv *httptest.Server, user, pass string) *http.Response {
	t.Helper()
	resp, err := c.PostForm(srv.URL+"/login", url.Values{"username": {user}, "password": {pass}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp
}

func getJSON(t *testing.T, c *http.Client, u string, out interface{}) int {
	t.Helper()
	resp, err := c.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", u, err)
		}
	}
	return resp.StatusCode
}

func upload(t *testing.T, c *http.Client, srv *httptest.Server, files map[string][]byte, names map[string]string) models.UploadResponse {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, names[field])
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d", resp.StatusCode)
	}
	var out models.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, body)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	for _, path := range []string{"/api/kpis", "/api/dose", "/charts/receipt.png", "/images/zoning.png"} {
		if code := getJSON(t, c, srv.URL+path, nil); code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, code)
		}
	}
}

func TestAnonymousRequestsStoreNoSession(t *testing.T) {
	srv, h := newTestServerWithHandler(t)
	c := newClient(t)

	resp, err := c.Get(srv.URL + "/api/kpis")
	if err != nil {
		t.Fatal(err)
	}
	var body models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized || body.Error != "authentication required" {
		t.Fatalf("expected 401 error body, got %d %+v", resp.StatusCode, body)
	}
	if len(resp.Cookies()) != 0 {
		t.Fatal("a rejected request must not set a session cookie")
	}

	for _, path := range []string{"/", "/login", "/api/status", "/charts/receipt.png"} {
		r, err := c.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		r.Body.Close()
	}
	login(t, c, srv, "rso", "wrong")
	if n := h.Sessions.Len(); n != 0 {
		t.Fatalf("expected no stored sessions, got %d", n)
	}

	login(t, c, srv, "rso", "s3cret")
	if n := h.Sessions.Len(); n != 1 {
		t.Fatalf("expected one session after login, got %d", n)
	}
}

func TestLoginFailure(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	for _, creds := range [][2]string{{"rso", "wrong"}, {"nobody", "s3cret"}, {"", ""}, {"rso", ""}} {
		resp := login(t, c, srv, creds[0], creds[1])
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%v: expected 401, got %d", creds, resp.StatusCode)
		}
	}
	if code := getJSON(t, c, srv.URL+"/api/status", nil); code != http.StatusUnauthorized {
		t.Fatalf("failed login must not authenticate, got %d", code)
	}
}

func TestLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)

	resp := login(t, c, srv, "rso", "s3cret")
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected redirect to dashboard, got %d", resp.StatusCode)
	}

	var status models.StatusResponse
	if code := getJSON(t, c, srv.URL+"/api/status", &status); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if status.User != "rso" || !status.Authenticated || len(status.Files) != len(state.Slots) {
		t.Fatalf("unexpected status %+v", status)
	}

	page, err := c.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	html, _ := io.ReadAll(page.Body)
	page.Body.Close()
	if page.StatusCode != http.StatusOK || !strings.Contains(string(html), "DOC-1") {
		t.Fatalf("expected dashboard page, got %d", page.StatusCode)
	}

	out, err := c.Post(srv.URL+"/logout", "application/x-www-form-urlencoded", nil)
	if err != nil {
		t.Fatal(err)
	}
	out.Body.Close()
	if code := getJSON(t, c, srv.URL+"/api/kpis", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", code)
	}
}

func TestUploadReceiptLog(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "s3cret")

	res := upload(t, c, srv,
		map[string][]byte{"receipt": []byte(receiptCSV), "sealed": []byte("")},
		map[string]string{"receipt": "receipts.csv", "sealed": "empty.csv"},
	)
	if len(res.Accepted) != 1 || res.Accepted[0].Rows != 3 {
		t.Fatalf("expected receipt accepted with 3 rows, got %+v", res.Accepted)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "empty.csv") {
		t.Fatalf("expected one warning for empty.csv, got %v", res.Warnings)
	}

	var kpis models.KPIResponse
	getJSON(t, c, srv.URL+"/api/kpis", &kpis)
	values := map[string]string{}
	for _, k := range kpis.KPIs {
		values[k.Label] = k.Value
	}
	if values["Last receipt date"] != "2024-03-05" || values["Sealed sources"] != "2" || values["Last QC date"] != "2024-03-05" || values["In vivo count"] != "2" {
		t.Fatalf("unexpected KPI values %v", values)
	}

	var tally models.Tally
	if code := getJSON(t, c, srv.URL+"/api/tally/receipt", &tally); code != http.StatusOK {
		t.Fatalf("expected tally, got %d", code)
	}
	if !tally.HasData || tally.Entries[0].Label != "F-18" || tally.Entries[0].Count != 2 {
		t.Fatalf("unexpected tally %+v", tally)
	}

	var preview models.PreviewResponse
	if code := getJSON(t, c, srv.URL+"/api/preview?rows=2", &preview); code != http.StatusOK {
		t.Fatalf("expected preview, got %d", code)
	}
	if preview.Rows != 3 || len(preview.Data) != 2 || preview.Filename != "receipts.csv" {
		t.Fatalf("unexpected preview %+v", preview)
	}

	resp, err := c.Get(srv.URL + "/charts/receipt.png")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatalf("expected chart PNG, got %d", resp.StatusCode)
	}
	if code := getJSON(t, c, srv.URL+"/charts/sealed.png", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty tally, got %d", code)
	}
	if code := getJSON(t, c, srv.URL+"/api/tally/zoning", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for uncharted slot, got %d", code)
	}
}

func TestUploadWarningNamesFileOnce(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "s3cret")

	res := upload(t, c, srv, map[string][]byte{"tld": []byte("legacy")}, map[string]string{"tld": "tld.xls"})
	if len(res.Warnings) != 1 || res.Warnings[0] != "Could not read tld.xls: unsupported file format" {
		t.Fatalf("unexpected warnings %q", res.Warnings)
	}
}

func TestClearSlot(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "s3cret")
	upload(t, c, srv, map[string][]byte{"receipt": []byte(receiptCSV)}, map[string]string{"receipt": "r.csv"})

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/upload/receipt/clear", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if code := getJSON(t, c, srv.URL+"/api/preview", nil); code != http.StatusNotFound {
		t.Fatalf("expected no preview after clear, got %d", code)
	}
}

func TestDoseSearch(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "s3cret")

	var dose models.DoseResponse
	getJSON(t, c, srv.URL+"/api/dose", &dose)
	if dose.Summary.Monitored != 20 || dose.Summary.Range != "0.105 – 0.159" || dose.Summary.Annual != "0.52" {
		t.Fatalf("unexpected built-in summary %+v", dose.Summary)
	}

	var none models.DoseResponse
	getJSON(t, c, srv.URL+"/api/dose?q=zzz", &none)
	if len(none.Records) != 0 || none.Summary.Monitored != 20 {
		t.Fatalf("search should filter records but not the summary: %+v", none)
	}
}

func TestReceiptRouteImage(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "s3cret")

	if code := getJSON(t, c, srv.URL+"/images/receipt-route.png", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 without floor plan, got %d", code)
	}

	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	png.Encode(&buf, img)

	res := upload(t, c, srv,
		map[string][]byte{"floorplan": buf.Bytes(), "route_overlay": []byte("not an image")},
		map[string]string{"floorplan": "plan.png", "route_overlay": "overlay.png"},
	)
	if len(res.Accepted) != 1 || len(res.Warnings) != 1 {
		t.Fatalf("expected plan accepted and overlay rejected, got %+v", res)
	}

	resp, err := c.Get(srv.URL + "/images/receipt-route.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	cfg, err := png.DecodeConfig(resp.Body)
	if err != nil || cfg.Width != 12 || cfg.Height != 8 {
		t.Fatalf("expected 12x8 PNG, got %+v %v", cfg, err)
	}

	// a tiny file whose header claims 60000x60000 pixels
	huge := append([]byte(nil), buf.Bytes()...)
	binary.BigEndian.PutUint32(huge[16:20], 60000)
	binary.BigEndian.PutUint32(huge[20:24], 60000)
	binary.BigEndian.PutUint32(huge[29:33], crc32.ChecksumIEEE(huge[12:29]))

	res = upload(t, c, srv, map[string][]byte{"zoning": huge}, map[string]string{"zoning": "zones.png"})
	if len(res.Accepted) != 0 || len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "too large") {
		t.Fatalf("expected oversized zoning plan to be rejected, got %+v", res)
	}
	if code := getJSON(t, c, srv.URL+"/images/zoning.png", nil); code != http.StatusNotFound {
		t.Fatalf("rejected image must leave the slot empty, got %d", code)
	}
}

func TestUploadTooLarge(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "s3cret")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("receipt", "big.csv")
	fw.Write(bytes.Repeat([]byte("a,b\n"), 1<<19))
	mw.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	c := newClient(t)
	login(t, c, srv, "rso", "nope")

	resp, err := c.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `dashboard_login_attempts_total{outcome="failure"} 1`) {
		t.Fatal("expected failed login to be counted")
	}
}
