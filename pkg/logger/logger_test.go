package logger

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/cts/internal/clock"
	"github.com/giantswarm/cts/pkg/params"
)

func TestLogger_RecordAllocatesPlaceholders(t *testing.T) {
	l := New()
	group, rec := l.Record("foo/bar")

	res1, _ := rec.Record("a", params.Spec{})
	res2, _ := rec.Record("b", params.MustSpec(params.F("x", 1)))

	require.Len(t, group.Cases, 2)
	assert.Same(t, res1, group.Cases[0])
	assert.Same(t, res2, group.Cases[1])
	for _, r := range group.Cases {
		assert.Equal(t, StatusRunning, r.Status)
		assert.Equal(t, float64(-1), r.TimeMS)
		assert.Empty(t, r.Logs)
	}
	assert.Equal(t, "foo/bar", l.Results()[0].Path)
}

func TestCaseRecorder_StatusPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		action func(r *CaseRecorder)
		want   Status
		logs   []string
	}{
		{
			name:   "no calls passes",
			action: func(r *CaseRecorder) {},
			want:   StatusPass,
		},
		{
			name:   "log only passes",
			action: func(r *CaseRecorder) { r.Log("hello") },
			want:   StatusPass,
			logs:   []string{"hello"},
		},
		{
			name:   "warn",
			action: func(r *CaseRecorder) { r.Warn("careful") },
			want:   StatusWarn,
			logs:   []string{"WARN: careful"},
		},
		{
			name:   "fail",
			action: func(r *CaseRecorder) { r.Fail("") },
			want:   StatusFail,
			logs:   []string{"FAIL"},
		},
		{
			name:   "warn then fail",
			action: func(r *CaseRecorder) { r.Warn(""); r.Fail("") },
			want:   StatusFail,
			logs:   []string{"WARN", "FAIL"},
		},
		{
			name:   "fail then warn",
			action: func(r *CaseRecorder) { r.Fail(""); r.Warn("") },
			want:   StatusFail,
			logs:   []string{"FAIL", "WARN"},
		},
		{
			name:   "threw",
			action: func(r *CaseRecorder) { r.Threw(fmt.Errorf("boom")) },
			want:   StatusFail,
			logs:   []string{"EXCEPTION: boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, group := New().Record("")
			res, rec := group.Record("case", params.Spec{})

			rec.Start()
			tt.action(rec)
			require.NoError(t, rec.Finish())

			assert.Equal(t, tt.want, res.Status)
			require.Len(t, res.Logs, len(tt.logs))
			for i, prefix := range tt.logs {
				assert.True(t, strings.HasPrefix(res.Logs[i], prefix), "log %q should start with %q", res.Logs[i], prefix)
			}
		})
	}
}

func TestCaseRecorder_FinishBeforeStart(t *testing.T) {
	_, group := New().Record("")
	res, rec := group.Record("case", params.Spec{})

	assert.ErrorIs(t, rec.Finish(), ErrFinishBeforeStart)
	assert.Equal(t, StatusRunning, res.Status)
}

func TestCaseRecorder_ImmutableAfterFinish(t *testing.T) {
	_, group := New().Record("")
	res, rec := group.Record("case", params.Spec{})

	rec.Start()
	require.NoError(t, rec.Finish())
	assert.ErrorIs(t, rec.Finish(), ErrAlreadyFinished)

	rec.Fail("late")
	rec.Start()
	assert.Equal(t, StatusPass, res.Status)
	assert.Empty(t, res.Logs)
}

func TestCaseRecorder_StartResetsLogs(t *testing.T) {
	_, group := New().Record("")
	res, rec := group.Record("case", params.Spec{})

	rec.Start()
	rec.Fail("first attempt")
	rec.Start()
	rec.Log("second attempt")
	require.NoError(t, rec.Finish())

	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, []string{"second attempt"}, res.Logs)
}

func TestCaseRecorder_Timing(t *testing.T) {
	c := clock.NewMock(time.Time{})
	_, group := New(WithClock(c)).Record("")
	res, rec := group.Record("case", params.Spec{})

	rec.Start()
	c.Advance(1500 * time.Microsecond)
	require.NoError(t, rec.Finish())

	assert.Equal(t, 1.5, res.TimeMS)
}

func TestCaseRecorder_ThrewKeepsStack(t *testing.T) {
	_, group := New().Record("")
	res, rec := group.Record("case", params.Spec{})

	rec.Start()
	rec.Threw(errors.Wrap(errors.New("inner"), "outer"))
	require.NoError(t, rec.Finish())

	require.Len(t, res.Logs, 1)
	assert.True(t, strings.HasPrefix(res.Logs[0], "EXCEPTION: outer: inner"))
	assert.Contains(t, res.Logs[0], "\n    at ")
}

func TestCaseRecorder_ConcurrentLogging(t *testing.T) {
	_, group := New().Record("")
	res, rec := group.Record("case", params.Spec{})

	rec.Start()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Log(fmt.Sprintf("line %d", i))
		}()
	}
	wg.Wait()
	require.NoError(t, rec.Finish())
	assert.Len(t, res.Logs, 20)
}

func TestLogger_ResultsIsSnapshot(t *testing.T) {
	l := New()
	_, group := l.Record("g")
	_, rec := group.Record("case", params.Spec{})

	before := l.Results()
	rec.Start()
	rec.Log("x")
	require.NoError(t, rec.Finish())

	assert.Equal(t, StatusRunning, before[0].Cases[0].Status)
	assert.Equal(t, StatusPass, l.Results()[0].Cases[0].Status)
}

func TestDocument_RoundTrip(t *testing.T) {
	c := clock.NewMock(time.Time{})
	l := New(WithClock(c), WithVersion("1.2.3"))

	_, group := l.Record("foo")
	_, rec := group.Record("hello", params.MustSpec(params.F("a", 1), params.F("s", "x")))
	rec.Start()
	c.Advance(2 * time.Millisecond)
	rec.Warn("w")
	require.NoError(t, rec.Finish())
	group.Record("pending", params.Spec{})

	for _, render := range []func() ([]byte, error){
		func() ([]byte, error) { return l.JSON("") },
		func() ([]byte, error) { return l.JSON("  ") },
		l.YAML,
	} {
		data, err := render()
		require.NoError(t, err)

		doc, err := ParseDocument(data)
		require.NoError(t, err)
		assert.Equal(t, "1.2.3", doc.Version)
		require.Len(t, doc.Results, 1)
		require.Len(t, doc.Results[0].Cases, 2)

		done := doc.Results[0].Cases[0]
		assert.Equal(t, "hello", done.Name)
		assert.True(t, done.Params.Equal(params.MustSpec(params.F("s", "x"), params.F("a", 1))))
		assert.Equal(t, StatusWarn, done.Status)
		assert.Equal(t, float64(2), done.TimeMS)
		require.Len(t, done.Logs, 1)

		pending := doc.Results[0].Cases[1]
		assert.True(t, pending.Params.IsNull())
		assert.Equal(t, StatusRunning, pending.Status)
		assert.Equal(t, float64(-1), pending.TimeMS)
	}
}

func TestLogger_WriteTo(t *testing.T) {
	l := New()
	l.Record("g")

	var buf bytes.Buffer
	_, err := l.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"version": "dev"`)
	assert.Contains(t, buf.String(), `"path": "g"`)
}
