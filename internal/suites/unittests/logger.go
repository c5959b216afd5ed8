package unittests

import (
	"context"
	"strings"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
)

// recordOne runs action between Start and Finish on a case of a fresh logger.
func recordOne(t *Fixture, action func(rec *logger.CaseRecorder)) *logger.Result {
	_, g := logger.New().Record("foo/bar")
	res, rec := g.Record("baz", params.Spec{})
	rec.Start()
	action(rec)
	if err := rec.Finish(); err != nil {
		t.Fail("finish: " + err.Error())
	}
	return res
}

// LoggerGroup checks the recorder state machine.
func LoggerGroup() group.Runnable {
	g := newGroup()

	g.Test("construct", func(ctx context.Context, t *Fixture) error {
		l := logger.New()
		gl, _ := l.Record("foo/bar")
		t.ExpectEqual(gl.Path, "foo/bar", "path")
		t.ExpectEqual(len(gl.Cases), 0, "cases")
		t.ExpectEqual(len(l.Results()), 1, "results")
		return nil
	})

	g.Test("empty", func(ctx context.Context, t *Fixture) error {
		_, gr := logger.New().Record("foo/bar")
		res, rec := gr.Record("baz", params.Spec{})
		t.ExpectEqual(res.Status, logger.StatusRunning, "status before start")
		t.ExpectEqual(res.TimeMS, float64(-1), "timems before start")

		rec.Start()
		t.ExpectEqual(res.Status, logger.StatusRunning, "status while running")
		if err := rec.Finish(); err != nil {
			return err
		}
		t.ExpectEqual(res.Status, logger.StatusPass, "status")
		t.Expect(res.TimeMS >= 0, "timems is set")
		return nil
	})

	g.Test("pass", func(ctx context.Context, t *Fixture) error {
		res := recordOne(t, func(rec *logger.CaseRecorder) { rec.Log("hello") })
		t.ExpectEqual(res.Status, logger.StatusPass, "status")
		t.ExpectEqual(res.Logs, []string{"hello"}, "logs")
		return nil
	})

	g.Test("warn", func(ctx context.Context, t *Fixture) error {
		res := recordOne(t, func(rec *logger.CaseRecorder) { rec.Warn("") })
		t.ExpectEqual(res.Status, logger.StatusWarn, "status")
		t.Expect(len(res.Logs) == 1 && strings.HasPrefix(res.Logs[0], "WARN"), "one WARN line")
		return nil
	})

	g.Test("fail", func(ctx context.Context, t *Fixture) error {
		res := recordOne(t, func(rec *logger.CaseRecorder) { rec.Fail("bye") })
		t.ExpectEqual(res.Status, logger.StatusFail, "status")
		t.Expect(len(res.Logs) == 1 && strings.HasPrefix(res.Logs[0], "FAIL: bye"), "one FAIL line")
		return nil
	})

	g.Test("fail_beats_warn", func(ctx context.Context, t *Fixture) error {
		res := recordOne(t, func(rec *logger.CaseRecorder) {
			rec.Fail("")
			rec.Warn("")
		})
		t.ExpectEqual(res.Status, logger.StatusFail, "status")
		t.ExpectEqual(len(res.Logs), 2, "log lines")
		return nil
	})

	g.Test("finish_before_start", func(ctx context.Context, t *Fixture) error {
		_, gr := logger.New().Record("foo/bar")
		res, rec := gr.Record("baz", params.Spec{})
		t.ExpectErrorIs(rec.Finish(), logger.ErrFinishBeforeStart, "finish")
		t.ExpectEqual(res.Status, logger.StatusRunning, "status")
		return nil
	})

	g.Test("document", func(ctx context.Context, t *Fixture) error {
		l := logger.New(logger.WithVersion("self"))
		_, gr := l.Record("g")
		_, rec := gr.Record("c", params.MustSpec(params.F("a", 1)))
		rec.Start()
		rec.Log("x")
		if err := rec.Finish(); err != nil {
			return err
		}
		data, err := l.JSON("")
		if err != nil {
			return err
		}
		doc, err := logger.ParseDocument(data)
		if err != nil {
			return err
		}
		t.ExpectEqual(doc.Version, "self", "version")
		t.Expect(len(doc.Results) == 1 && doc.Results[0].Cases[0].Params.Equal(params.MustSpec(params.F("a", 1))), "params survive")
		return nil
	})

	return g
}
