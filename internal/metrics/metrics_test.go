package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dfryer1193/alttext/media/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())

	outcome := domain.NewSyncOutcome()
	outcome.Attempted = 6
	outcome.RecordUpdate()
	outcome.RecordUpdate()
	outcome.RecordUpdate()
	outcome.RecordSkip(domain.SkipForbidden)
	outcome.RecordSkip(domain.SkipForbidden)
	outcome.RecordSkip(domain.SkipUnresolvable)

	m.RecordOutcome("bulk", outcome)

	if got := testutil.ToFloat64(m.SyncItemsTotal.WithLabelValues("bulk", "updated")); got != 3 {
		t.Errorf("updated = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.SyncItemsTotal.WithLabelValues("bulk", "forbidden")); got != 2 {
		t.Errorf("forbidden = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SyncItemsTotal.WithLabelValues("bulk", "unresolvable-filename")); got != 1 {
		t.Errorf("unresolvable = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SyncRunsTotal.WithLabelValues("bulk")); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/items/:id", http.MethodGet, "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alttext_http_requests_total") {
		t.Error("metrics output missing alttext_http_requests_total")
	}
}
