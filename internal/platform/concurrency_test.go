package platform_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/core"
)

// TestConcurrency_SharedRoot runs two services over the same root, as two
// processes would, and checks that the history of an attribute stays
// contiguous when both write to it at once.
func TestConcurrency_SharedRoot(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping concurrency test in short mode")
	}

	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	a, err := platform.New(root, platform.WithAutoInit(true))
	require.NoError(t, err)
	b, err := platform.New(root, platform.WithMustExist(true))
	require.NoError(t, err)

	const perWriter = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*perWriter)

	for name, svc := range map[string]*core.Service{"a": a, "b": b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				if _, err := svc.SetAttribute(ctx, "acme", core.AttrContent, fmt.Sprintf("%s-%d", name, i)); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	history, err := a.History(ctx, "acme", core.AttrContent)
	require.NoError(t, err)
	require.Len(t, history, 2*perWriter)
	for i, v := range history {
		assert.Equal(t, i+1, v.Number)
	}

	rec, err := b.GetRecord(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, history[len(history)-1].Content, *rec.Blog.Content)
	assert.Equal(t, 2*perWriter, rec.Blog.Versions[core.AttrContent])
}
