package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RunFinished(t *testing.T) {
	r := NewRecorder()
	now := time.Unix(1_770_000_000, 0)

	r.RunFinished("post", OutcomePublished, now)
	r.RunFinished("post", OutcomeRejected, now.Add(time.Hour))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("post", OutcomePublished)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("post", OutcomeRejected)))
	assert.Equal(t, float64(now.Unix()), testutil.ToFloat64(r.LastSuccess))
}

func TestRecorder_Rejected(t *testing.T) {
	r := NewRecorder()
	r.Rejected("link")
	r.Rejected("link")
	r.Rejected("emoji")

	assert.Equal(t, 2, testutil.CollectAndCount(r.Rejections))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Rejections.WithLabelValues("link")))
}

func TestRecorder_ObserveGeneration(t *testing.T) {
	r := NewRecorder()
	r.ObserveGeneration(1500 * time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(r.GenerationDuration))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.RunFinished("briefing", OutcomePublished, time.Now())

	path := filepath.Join(t.TempDir(), "dailypost.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `dailypost_runs_total{command="briefing",outcome="published"} 1`)

	assert.NoError(t, r.WriteTextfile(""))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	r.RunFinished("post", OutcomeFailed, time.Now())
	r.Rejected("link")
	r.ObserveGeneration(time.Second)
	assert.NoError(t, r.WriteTextfile("/nonexistent/x.prom"))
}
