package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestLoadInternsIdenticalContent(t *testing.T) {
	s := NewStore()

	a := s.RegisterSnippet("(+ 1 2)")
	b := s.Load([]byte("(+ 1 2)"), "/tmp/other.sexp")
	c := s.RegisterSnippet("(+ 1 3)")

	require.Same(t, a, b)
	require.NotSame(t, a, c)
	require.Equal(t, 2, s.Len())
	// 最初に登録した Origin が残る
	require.Equal(t, "", b.Origin)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.sexp")
	require.NoError(t, os.WriteFile(path, []byte("(set x 1)"), 0o644))

	s := NewStore()
	buf, err := s.LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, path, buf.Origin)
	require.Equal(t, "prog.sexp", buf.Name)
	require.Equal(t, "(set x 1)", buf.Text)

	again := s.RegisterSnippet("(set x 1)")
	require.Same(t, buf, again)

	got, ok := s.Lookup(buf.Hash)
	require.True(t, ok)
	require.Same(t, buf, got)
}

func TestLoadFileMissing(t *testing.T) {
	s := NewStore()
	_, err := s.LoadFile(filepath.Join(t.TempDir(), "missing.sexp"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, 0, s.Len())
}

func TestLoadConcurrentConverges(t *testing.T) {
	s := NewStore()
	const n = 64

	var mu sync.Mutex
	seen := map[*Buffer]struct{}{}

	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			buf := s.RegisterSnippet("(car (a b c))")
			mu.Lock()
			seen[buf] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, seen, 1)
	require.Equal(t, 1, s.Len())
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.sexp", "b.sexp", "c.sexp"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(strings.TrimSuffix(name, ".sexp")), 0o644))
		paths = append(paths, p)
	}

	s := NewStore()
	bufs, err := s.LoadFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, bufs, 3)
	for i, buf := range bufs {
		require.Equal(t, paths[i], buf.Origin)
	}

	_, err = s.LoadFiles(context.Background(), append(paths, filepath.Join(dir, "nope.sexp")))
	require.ErrorIs(t, err, os.ErrNotExist)
}
