package stages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-studio/vitrine/internal/artifact"
	"github.com/vitrine-studio/vitrine/internal/publish"
	"github.com/vitrine-studio/vitrine/internal/session"
)

type fakeUploader struct {
	dir    string
	prefix string
	keys   []string
	err    error
}

func (f *fakeUploader) UploadDir(ctx context.Context, dir, prefix string) ([]string, error) {
	f.dir, f.prefix = dir, prefix
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

func publishableRun(t *testing.T) *session.State {
	t.Helper()
	run := plannedRun(t)
	require.NoError(t, run.Set(ownerCoding, session.KeyCoding, &CodingResult{
		Success:  true,
		SitePath: "/tmp/site/ana-y-leo",
	}))
	return run
}

func TestPublish_UploadsSite(t *testing.T) {
	run := publishableRun(t)
	store := artifact.NewMemoryStore()
	up := &fakeUploader{keys: []string{"ana-y-leo/index.html", "ana-y-leo/style.css"}}

	pub := &Publish{Uploader: up, BaseURL: "https://sites.example.com", Store: store}
	result, err := pub.Execute(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, []string{"publish.json"}, result.Artifacts)
	assert.Equal(t, "https://sites.example.com/ana-y-leo/", result.Detail)

	assert.Equal(t, "/tmp/site/ana-y-leo", up.dir)
	assert.Equal(t, "ana-y-leo", up.prefix)

	v, ok := run.Get(session.KeyPublisher)
	require.True(t, ok)
	res := v.(*publish.Result)
	assert.True(t, res.Success)
	assert.Equal(t, "https://sites.example.com/ana-y-leo/", res.URL)
	assert.Len(t, res.UploadedFiles, 2)

	_, err = store.GetArtifact(context.Background(), run.RunID(), "publish.json")
	assert.NoError(t, err)
}

func TestPublish_NoBaseURL(t *testing.T) {
	run := publishableRun(t)
	up := &fakeUploader{keys: []string{"ana-y-leo/index.html"}}

	pub := &Publish{Uploader: up, Store: artifact.NewMemoryStore()}
	result, err := pub.Execute(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, "1 files uploaded", result.Detail)
}

func TestPublish_UploadFailureRecordsResult(t *testing.T) {
	run := publishableRun(t)
	up := &fakeUploader{err: fmt.Errorf("bucket unreachable")}

	pub := &Publish{Uploader: up, BaseURL: "https://sites.example.com", Store: artifact.NewMemoryStore()}
	_, err := pub.Execute(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")

	v, ok := run.Get(session.KeyPublisher)
	require.True(t, ok)
	res := v.(*publish.Result)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "bucket unreachable")
}

func TestPublish_RequiresCodingResult(t *testing.T) {
	pub := &Publish{Uploader: &fakeUploader{}, Store: artifact.NewMemoryStore()}

	_, err := pub.Execute(context.Background(), plannedRun(t))
	assert.ErrorIs(t, err, session.ErrMissingKey)
}
