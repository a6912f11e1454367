package console

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/customDefenderInstall/internal/install"
)

func TestNormalizeBaseURL(t *testing.T) {
	for raw, expected := range map[string]string{
		"https://console.local:8083":            "https://console.local:8083",
		"https://console.local:8083/":           "https://console.local:8083",
		"https://console.local:8083/api":        "https://console.local:8083",
		"https://console.local:8083/api/v1":     "https://console.local:8083",
		"https://console.local:8083/api/v1/":    "https://console.local:8083",
		"https://cloud.example.com/us-1-123456": "https://cloud.example.com/us-1-123456",
	} {
		assert.Equal(t, expected, NormalizeBaseURL(raw), "input: %s", raw)
	}
}

func newFakeConsole(t *testing.T) *httptest.Server {
	t.Helper()

	router := httprouter.New()
	router.POST("/api/v1/scripts/defender.sh", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(401)
			return
		}
		w.Write([]byte("#!/bin/bash\necho defender\n"))
	})

	svr := httptest.NewServer(router)
	t.Cleanup(svr.Close)
	return svr
}

func TestFetchScript(t *testing.T) {
	svr := newFakeConsole(t)

	t.Run("success", func(t *testing.T) {
		client := NewClient(svr.URL+"/api/v1/", "test-token", Options{Timeout: time.Second * 5})

		body, err := client.FetchScript(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "#!/bin/bash\necho defender\n", string(body))
	})

	t.Run("bad credential surfaces the status", func(t *testing.T) {
		client := NewClient(svr.URL, "wrong-token", Options{Timeout: time.Second * 5})

		_, err := client.FetchScript(context.Background())

		fe := &install.FetchError{}
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 401, fe.Status)
	})

	t.Run("get is rejected by the route", func(t *testing.T) {
		resp, err := http.Get(svr.URL + "/api/v1/scripts/defender.sh")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, 405, resp.StatusCode)
	})
}
