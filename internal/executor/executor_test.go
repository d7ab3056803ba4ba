package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/besttest/besttest/pkg/types"
)

func sampleCase(t types.CaseType) types.CaseView {
	return types.CaseView{TestCase: types.TestCase{
		Key: "k1", ID: "TC_001", Name: "login works", Priority: types.PriorityHigh,
		Type: t, Reference: "smoke, login", Steps: "open page",
	}}
}

func TestFrameworkFor(t *testing.T) {
	assert.Equal(t, FrameworkPlaywright, FrameworkFor(types.TypeUI))
	assert.Equal(t, FrameworkPlaywright, FrameworkFor(types.TypeE2E))
	assert.Equal(t, FrameworkPlaywright, FrameworkFor(types.TypeFunction))
	assert.Equal(t, FrameworkPytest, FrameworkFor(types.TypeAPI))
	assert.True(t, ValidFramework("robot"))
	assert.False(t, ValidFramework("jest"))
}

func TestVerdictForStatus(t *testing.T) {
	tests := map[string]types.Verdict{
		"passed":  types.VerdictPassed,
		"SUCCESS": types.VerdictPassed,
		"failed":  types.VerdictFailed,
		"error":   types.VerdictFailed,
		"skipped": types.VerdictSkipped,
		"running": types.VerdictNotTested,
	}
	for in, want := range tests {
		assert.Equal(t, want, VerdictForStatus(in), in)
	}
}

func TestSimulatedIsDeterministicPerSeed(t *testing.T) {
	run := func() []types.Verdict {
		sim := NewSimulated(0.5, 0, 42)
		var out []types.Verdict
		for i := 0; i < 20; i++ {
			o, err := sim.Run(context.Background(), sampleCase(types.TypeUI))
			require.NoError(t, err)
			out = append(out, o.Verdict)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestSimulatedRatioBounds(t *testing.T) {
	always := NewSimulated(1, 0, 7)
	never := NewSimulated(0, 0, 7)
	for i := 0; i < 10; i++ {
		o, _ := always.Run(context.Background(), sampleCase(types.TypeUI))
		assert.Equal(t, types.VerdictPassed, o.Verdict)
		o, _ = never.Run(context.Background(), sampleCase(types.TypeUI))
		assert.Equal(t, types.VerdictFailed, o.Verdict)
	}
	assert.Equal(t, DefaultPassRatio, NewSimulated(3, 0, 1).PassRatio)
}

func TestSimulatedHonorsCancel(t *testing.T) {
	sim := NewSimulated(1, time.Hour, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sim.Run(ctx, sampleCase(types.TypeUI))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPRun(t *testing.T) {
	var got RunRequest
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(RunResponse{
			Status: "failed", Message: "assertion failed", Duration: 1.5,
			Screenshots: []string{"shot.png"},
		})
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL+"/", "secret", time.Second)
	out, err := h.Run(context.Background(), sampleCase(types.TypeAPI))
	require.NoError(t, err)

	assert.Equal(t, "/api/pytest/run", gotPath)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "login works", got.TestName)
	assert.Equal(t, []string{"smoke", "login"}, got.Tags)
	assert.Equal(t, "high", got.Priority)

	assert.Equal(t, types.VerdictFailed, out.Verdict)
	assert.Equal(t, "assertion failed", out.Message)
	assert.Equal(t, 1500*time.Millisecond, out.Duration)
	assert.Equal(t, []string{"shot.png"}, out.Screenshots)
}

func TestHTTPRunStatusPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"state":"passed","log":"ok"}}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "", time.Second)
	h.StatusPath = "$.result.state"
	h.MessagePath = "$.result.log"
	out, err := h.Run(context.Background(), sampleCase(types.TypeUI))
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, out.Verdict)
	assert.Equal(t, "ok", out.Message)
}

func TestHTTPRunStatusPathForeignShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"state":"passed"},"message":"ok","duration":"1.2s","screenshots":["a.png",3]}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "", time.Second)
	h.StatusPath = "$.status.state"
	out, err := h.Run(context.Background(), sampleCase(types.TypeUI))
	require.NoError(t, err)
	assert.Equal(t, types.VerdictPassed, out.Verdict)
	assert.Equal(t, "ok", out.Message)
	assert.Zero(t, out.Duration)
	assert.Equal(t, []string{"a.png"}, out.Screenshots)
}

func TestHTTPRunStatusPathMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outcome":"passed"}`))
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL, "", time.Second)
	h.StatusPath = "$.status.state"
	_, err := h.Run(context.Background(), sampleCase(types.TypeUI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status path")
}

func TestHTTPRunBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "", time.Second).Run(context.Background(), sampleCase(types.TypeUI))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFuncExecutor(t *testing.T) {
	var e Executor = FuncExecutor(func(ctx context.Context, c types.CaseView) (Outcome, error) {
		return Outcome{Verdict: types.VerdictSkipped}, nil
	})
	out, err := e.Run(context.Background(), sampleCase(types.TypeUI))
	require.NoError(t, err)
	assert.Equal(t, types.VerdictSkipped, out.Verdict)
}
