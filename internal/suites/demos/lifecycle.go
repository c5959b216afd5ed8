package demos

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/giantswarm/cts/pkg/group"
	"github.com/giantswarm/cts/pkg/logger"
	"github.com/giantswarm/cts/pkg/params"
)

// workdir gives each case its own temporary directory.
type workdir struct {
	*group.DefaultFixture
	dir string
}

func (w *workdir) Init(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "cts-demo-")
	if err != nil {
		return errors.Wrap(err, "create workdir")
	}
	w.dir = dir
	w.Logf("workdir %s", dir)
	return nil
}

func (w *workdir) Finalize(ctx context.Context) error {
	if w.dir == "" {
		return nil
	}
	return errors.Wrap(os.RemoveAll(w.dir), "remove workdir")
}

// LifecycleGroup uses a fixture that sets up and tears down a directory.
func LifecycleGroup() group.Runnable {
	g := group.New(func(rec *logger.CaseRecorder, p params.Spec) *workdir {
		return &workdir{DefaultFixture: group.NewDefaultFixture(rec, p)}
	})

	g.Test("write_read", func(ctx context.Context, t *workdir) error {
		content, _ := t.Params().Lookup("content").AsString()
		path := filepath.Join(t.dir, "file")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			return err
		}
		got, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		t.Expect(string(got) == content, "content round trips")
		return nil
	}).Params(params.Options("content", "", "abc", "line1\nline2"))

	g.Test("isolated", func(ctx context.Context, t *workdir) error {
		entries, err := os.ReadDir(t.dir)
		if err != nil {
			return err
		}
		t.Expect(len(entries) == 0, "workdir starts empty")
		return nil
	})

	return g
}
