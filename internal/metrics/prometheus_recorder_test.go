package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("pages", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncStageResult("pages", ResultSuccess)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.AddPages(PageWritten, 3)
	pr.AddPages(PageSkipped, 1)
	pr.AddPages(PageUnchanged, 0)
	pr.AddAssetBumps("auto", 2)

	assert.InDelta(t, 3, testutil.ToFloat64(pr.pages.WithLabelValues("written")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.pages.WithLabelValues("skipped")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(pr.assetBumps.WithLabelValues("auto")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(pr.stageResults.WithLabelValues("pages", "success")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome(BuildOutcomeWarning)

	path := filepath.Join(t.TempDir(), "textfile", "sitegen.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitegen_build_outcomes_total{outcome="warning"} 1`)
}

func TestNilPrometheusRecorder(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.ObserveStageDuration("x", time.Second)
		pr.IncBuildOutcome(BuildOutcomeFailed)
		pr.AddPages(PageWritten, 1)
	})
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveStageDuration("x", time.Second)
		r.IncStageResult("x", ResultFatal)
		r.AddAssetBumps("hash", 4)
	})
}
