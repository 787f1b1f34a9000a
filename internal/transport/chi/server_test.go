package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gochi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/printdoc"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/domain/trial"
	"github.com/NCIOCPL/clinical-trials-search-print/internal/repository/printcache"
	healthuc "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/health"
	printuc "github.com/NCIOCPL/clinical-trials-search-print/internal/usecase/print"
)

// --- Fakes ---

type fetcherFunc func(ctx context.Context, ids []string) ([]trial.Trial, error)

func (f fetcherFunc) FetchTrials(ctx context.Context, ids []string) ([]trial.Trial, error) {
	return f(ctx, ids)
}

type rendererFunc func(ctx context.Context, page printdoc.Page) (string, error)

func (f rendererFunc) Render(ctx context.Context, page printdoc.Page) (string, error) {
	return f(ctx, page)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func echoFetcher() fetcherFunc {
	return func(_ context.Context, ids []string) ([]trial.Trial, error) {
		out := make([]trial.Trial, 0, len(ids))
		for _, id := range ids {
			out = append(out, trial.Trial{NCIID: id, CurrentTrialStatus: "Active"})
		}
		return out, nil
	}
}

func simpleRenderer() rendererFunc {
	return func(_ context.Context, page printdoc.Page) (string, error) {
		var b strings.Builder
		b.WriteString(`<html><a href="` + printdoc.URLPlaceholder + `">self</a>`)
		for _, t := range page.Trials {
			b.WriteString("<p>" + t.NCIID + "</p>")
		}
		b.WriteString("</html>")
		return b.String(), nil
	}
}

type testEnv struct {
	router http.Handler
	cache  *printcache.MemoryCache
}

func newTestEnv(t *testing.T, fetcher printuc.TrialFetcher, opts Options) testEnv {
	t.Helper()
	cache := printcache.NewMemoryCache()
	printSvc := printuc.New(fetcher, simpleRenderer(), cache, printuc.Config{
		DefaultNewSearchLink: "/research/participate/clinical-trials-search",
	})
	healthSvc := healthuc.New(cache, nil)

	r := gochi.NewRouter()
	NewServer(printSvc, healthSvc, zap.NewNop(), opts).Routes(r)
	return testEnv{router: r, cache: cache}
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const validBody = `{"trial_ids":["NCI-2014-01507","NCI-2015-00054"],"link_template":"/clinicaltrials/<TRIAL_ID>"}`

// --- Tests ---

func TestGenerateAndDisplay(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})

	rr := do(env.router, http.MethodPost, "/CTS.Print", validBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("POST status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp generateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, err := uuid.Parse(resp.PrintID)
	if err != nil {
		t.Fatalf("printID %q is not a UUID: %v", resp.PrintID, err)
	}

	for _, path := range []string{"/CTS.Print/Display?printid=", "/CTS.Print?printid="} {
		rr = do(env.router, http.MethodGet, path+id.String(), "")
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d", path, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
		html := rr.Body.String()
		if !strings.Contains(html, `href="/CTS.Print/Display?printid=`+id.String()+`"`) {
			t.Errorf("page does not link to itself: %s", html)
		}
		if strings.Index(html, "NCI-2014-01507") > strings.Index(html, "NCI-2015-00054") {
			t.Error("trials out of requested order")
		}
	}

	md, ok := env.cache.Metadata(id)
	if !ok || md != validBody {
		t.Errorf("metadata = %q, %v", md, ok)
	}
}

func TestGenerate_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})

	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{"not json", "trial_ids=1", "Unable to parse request body."},
		{"empty body", "", "Unable to parse request body."},
		{"missing trial ids", `{"link_template":"/t/<TRIAL_ID>"}`, "Field 'trial_ids' not found."},
		{"missing link template", `{"trial_ids":["A"]}`, "Field 'link_template' not found."},
		{"relative link template", `{"trial_ids":["A"],"link_template":"t/<TRIAL_ID>"}`,
			"Field 'link_template' has an invalid value."},
		{"bad new search link", `{"trial_ids":["A"],"link_template":"/t/<TRIAL_ID>","new_search_link":"/s?q=1"}`,
			"Field 'new_search_link' has an invalid value."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(env.router, http.MethodPost, "/CTS.Print", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rr.Code)
			}
			if rr.Body.String() != tc.wantBody {
				t.Errorf("body = %q, want %q", rr.Body.String(), tc.wantBody)
			}
		})
	}
	if env.cache.Len() != 0 {
		t.Errorf("cache holds %d pages after rejected requests", env.cache.Len())
	}
}

func TestGenerate_FetchErrorIs500(t *testing.T) {
	env := newTestEnv(t, fetcherFunc(func(context.Context, []string) ([]trial.Trial, error) {
		return nil, &domain.TrialsAPIError{StatusCode: http.StatusBadGateway}
	}), Options{})

	rr := do(env.router, http.MethodPost, "/CTS.Print", validBody)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if env.cache.Len() != 0 {
		t.Error("nothing should be saved when the fetch fails")
	}
}

func TestGenerate_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{MaxBodyBytes: 16})

	rr := do(env.router, http.MethodPost, "/CTS.Print", validBody)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestGenerate_RequiresAPIKeyWhenConfigured(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{APIKeys: []string{"secret"}})

	if rr := do(env.router, http.MethodPost, "/CTS.Print", validBody); rr.Code != http.StatusUnauthorized {
		t.Errorf("POST without key = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/CTS.Print", strings.NewReader(validBody))
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("POST with key = %d, want 200", rr.Code)
	}

	if rr := do(env.router, http.MethodGet, "/CTS.Print/Display?printid="+uuid.NewString(), ""); rr.Code != http.StatusNotFound {
		t.Errorf("display should not require a key, got %d", rr.Code)
	}
}

func TestDisplay_Errors(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"not a uuid", "/CTS.Print/Display?printid=chicken", http.StatusBadRequest, "Invalid printid"},
		{"missing printid", "/CTS.Print/Display", http.StatusBadRequest, "Invalid printid"},
		{"empty printid", "/CTS.Print?printid=", http.StatusBadRequest, "Invalid printid"},
		{"unknown id", "/CTS.Print/Display?printid=" + uuid.NewString(), http.StatusNotFound, "Not Found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(env.router, http.MethodGet, tc.target, "")
			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if rr.Body.String() != tc.wantBody {
				t.Errorf("body = %q, want %q", rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestDisplay_BlankPageIsNotFound(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})
	id := uuid.New()
	if err := env.cache.Save(context.Background(), id, "{}", "  \n"); err != nil {
		t.Fatal(err)
	}

	if rr := do(env.router, http.MethodGet, "/CTS.Print/Display?printid="+id.String(), ""); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPut, "/CTS.Print"},
		{http.MethodDelete, "/CTS.Print"},
		{http.MethodPost, "/CTS.Print/Display"},
	} {
		rr := do(env.router, tc.method, tc.path, "")
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s = %d, want 405", tc.method, tc.path, rr.Code)
		}
		if rr.Body.String() != "Method not allowed." {
			t.Errorf("%s %s body = %q", tc.method, tc.path, rr.Body.String())
		}
	}
}

func TestCustomBasePath(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{BasePath: "/print"})

	if rr := do(env.router, http.MethodPost, "/print", validBody); rr.Code != http.StatusOK {
		t.Errorf("POST /print = %d", rr.Code)
	}
	if rr := do(env.router, http.MethodPost, "/CTS.Print", validBody); rr.Code != http.StatusNotFound {
		t.Errorf("default path should not be routed, got %d", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})
	rr := do(env.router, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var report healthuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Status != healthuc.Healthy || report.Checks[healthuc.CheckCache] != healthuc.CheckOK {
		t.Errorf("report = %+v", report)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	printSvc := printuc.New(echoFetcher(), simpleRenderer(), printcache.NewMemoryCache(), printuc.Config{})
	healthSvc := healthuc.New(
		pingerFunc(func(context.Context) error { return nil }),
		pingerFunc(func(context.Context) error { return errors.New("api down") }),
	)
	r := gochi.NewRouter()
	NewServer(printSvc, healthSvc, zap.NewNop(), Options{}).Routes(r)

	rr := do(r, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, echoFetcher(), Options{})
	if rr := do(env.router, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
