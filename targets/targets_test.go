package targets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonclient "github.com/ben-hur-snyk/snyk-scripts/json"
	"github.com/ben-hur-snyk/snyk-scripts/types"
)

type mockTargetClient struct {
	targets  []types.Target
	listErr  error
	failures map[string]error
	deleted  []string
}

func (m *mockTargetClient) ListTargets(ctx context.Context, orgID string) ([]types.Target, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.targets, nil
}

func (m *mockTargetClient) DeleteTarget(ctx context.Context, orgID string, targetID string) error {
	m.deleted = append(m.deleted, targetID)
	return m.failures[targetID]
}

func newTestDeleter(client *mockTargetClient) (afero.Fs, *TargetDeleter) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	fs := afero.NewMemMapFs()
	return fs, NewTargetDeleter(client, jsonclient.NewJsonClient(fs, "/work", logger), logger)
}

func target(id string, name string) types.Target {
	return types.Target{ID: id, Type: "target", Attributes: map[string]any{"display_name": name}}
}

func readTargets(t *testing.T, fs afero.Fs, name string) []types.Target {
	t.Helper()
	content, err := afero.ReadFile(fs, "/work/"+name)
	require.NoError(t, err)
	var targets []types.Target
	require.NoError(t, json.Unmarshal(content, &targets))
	return targets
}

func TestDeleteAll_ContinuesPastFailures(t *testing.T) {
	client := &mockTargetClient{
		targets: []types.Target{target("t1", "repo-a"), target("t2", "repo-b"), target("t3", "repo-c")},
		failures: map[string]error{
			"t2": errors.New("unexpected status code: 404"),
		},
	}
	fs, deleter := newTestDeleter(client)

	events := 0
	outcome, err := deleter.DeleteAll(context.Background(), "org-1", func(target types.Target, done bool, err error) {
		events++
		if done && target.ID == "t2" {
			assert.Error(t, err)
		}
	})

	assert.ErrorIs(t, err, ErrTargetsFailed)
	require.NotNil(t, outcome)
	assert.Equal(t, []string{"t1", "t2", "t3"}, client.deleted)
	assert.Equal(t, 6, events)
	assert.Len(t, outcome.Successful, 2)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, "t2", outcome.Failed[0].Target.ID)
	assert.Equal(t, len(outcome.Targets), len(outcome.Successful)+len(outcome.Failed))

	assert.Len(t, readTargets(t, fs, TargetsFileName), 3)
	assert.Len(t, readTargets(t, fs, SuccessfulTargetsFileName), 2)
	failed := readTargets(t, fs, FailedTargetsFileName)
	require.Len(t, failed, 1)
	assert.Equal(t, "repo-b", failed[0].DisplayName())
}

func TestDeleteAll_AllSucceed(t *testing.T) {
	client := &mockTargetClient{targets: []types.Target{target("t1", "repo-a")}}
	fs, deleter := newTestDeleter(client)

	outcome, err := deleter.DeleteAll(context.Background(), "org-1", nil)

	require.NoError(t, err)
	assert.Len(t, outcome.Successful, 1)
	content, err := afero.ReadFile(fs, "/work/"+FailedTargetsFileName)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(content))
}

func TestDeleteAll_ListingFailureWritesNothing(t *testing.T) {
	client := &mockTargetClient{listErr: errors.New("error fetching targets: 500")}
	fs, deleter := newTestDeleter(client)

	outcome, err := deleter.DeleteAll(context.Background(), "org-1", nil)

	assert.Error(t, err)
	assert.Nil(t, outcome)
	assert.Empty(t, client.deleted)
	exists, _ := afero.Exists(fs, "/work/"+TargetsFileName)
	assert.False(t, exists)
}
