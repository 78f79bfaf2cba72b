package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/movies/:id", "404"))
	RecordHTTPRequest("GET", "/movies/:id", 404, 3*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/movies/:id", "404"))
	assert.Equal(t, before+1, after)
}

func TestRecordRepoOp_CountsErrors(t *testing.T) {
	c := RepoOpErrors.WithLabelValues("memory", "user", "create")
	before := testutil.ToFloat64(c)

	RecordRepoOp("memory", "user", "create", time.Now(), nil)
	assert.Equal(t, before, testutil.ToFloat64(c))

	RecordRepoOp("memory", "user", "create", time.Now(), errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordPublish_Outcome(t *testing.T) {
	ok := EventsPublished.WithLabelValues("review.created", "ok")
	failed := EventsPublished.WithLabelValues("review.created", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordPublish("review.created", nil)
	RecordPublish("review.created", errors.New("closed"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	require.NoError(t, err)
	for _, p := range problems {
		if p.Metric == "http_requests_total" || p.Metric == "repository_operation_errors_total" {
			t.Errorf("lint problem on %s: %s", p.Metric, p.Text)
		}
	}
}
