package demoserver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/raysh454/netshield/internal/assessor/pagesignals"
	"github.com/raysh454/netshield/internal/demoserver"
)

func newDemo(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, rawURL string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func setVersion(t *testing.T, base, path string, version string) *http.Response {
	t.Helper()
	resp, err := http.PostForm(base+"/demo/set-version", url.Values{"path": {path}, "version": {version}})
	if err != nil {
		t.Fatalf("set-version: %v", err)
	}
	resp.Body.Close()
	return resp
}

func TestDemoServer_FixturesMatchAnalyzer(t *testing.T) {
	t.Parallel()
	ts := newDemo(t)

	for _, page := range demoserver.GetAllPages() {
		for v, pv := range page.Versions {
			resp := setVersion(t, ts.URL, page.Path, strconv.Itoa(v))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("set-version %s v%d: status %d", page.Path, v, resp.StatusCode)
			}

			pageURL := ts.URL + page.Path
			_, body := get(t, pageURL)
			info, err := pagesignals.Extract(pageURL, body)
			if err != nil {
				t.Fatalf("Extract %s v%d: %v", page.Path, v, err)
			}

			got := demoserver.Expectation{
				HasLoginForm:      info.HasLoginForm,
				HiddenIframeCount: info.HiddenIframeCount,
				ExternalLinkCount: info.ExternalLinkCount,
			}
			if got != pv.Expect {
				t.Errorf("%s v%d: analyzer saw %+v, fixture expects %+v", page.Path, v, got, pv.Expect)
			}
		}
	}
}

func TestDemoServer_Headers(t *testing.T) {
	t.Parallel()
	ts := newDemo(t)

	resp, _ := get(t, ts.URL+"/signin")
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q", resp.Header.Get("X-Frame-Options"))
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
}

func TestDemoServer_UnknownPath(t *testing.T) {
	t.Parallel()
	ts := newDemo(t)

	resp, _ := get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestDemoServer_VersionControl(t *testing.T) {
	t.Parallel()
	ts := newDemo(t)

	if resp := setVersion(t, ts.URL, "/missing", "2"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown page status = %d", resp.StatusCode)
	}
	if resp := setVersion(t, ts.URL, "/signin", "zero"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad version status = %d", resp.StatusCode)
	}

	for _, path := range []string{"/demo/bump-all", "/demo/bump-all"} {
		resp, err := http.Post(ts.URL+path, "text/plain", nil)
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
	}

	_, body := get(t, ts.URL+"/demo/get-versions")
	var infos []demoserver.VersionInfo
	if err := json.Unmarshal(body, &infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	current := map[string]int{}
	for _, info := range infos {
		current[info.Path] = info.CurrentVersion
	}
	// bumping caps at the newest version
	if current["/"] != 1 || current["/signin"] != 2 || current["/promo"] != 2 {
		t.Errorf("versions after bump = %v", current)
	}
	if infos[0].Path != "/" {
		t.Errorf("versions not sorted: %+v", infos)
	}

	resp, err := http.Post(ts.URL+"/demo/reset", "text/plain", nil)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	resp.Body.Close()

	_, page := get(t, ts.URL+"/signin")
	if strings.Contains(string(page), "suspended") {
		t.Error("reset did not restore the clean sign-in page")
	}

	if resp, _ := get(t, ts.URL+"/demo/reset"); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET reset status = %d", resp.StatusCode)
	}
}

func TestDemoServer_ControlPanel(t *testing.T) {
	t.Parallel()
	ts := newDemo(t)

	resp, body := get(t, ts.URL+"/demo/control")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/signin") {
		t.Errorf("control panel status=%d", resp.StatusCode)
	}
}
