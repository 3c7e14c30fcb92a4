package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestStatsCommandPrintsJSON(t *testing.T) {
	stdout := new(bytes.Buffer)
	cli := NewJobsCLI(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 2, Retry: 1}})

	require.Equal(t, 0, cli.StatsCommand(context.Background(), stdout, new(bytes.Buffer)))
	var stats QueueStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Retry)
}

func TestStatsCommandReportsErrors(t *testing.T) {
	stderr := new(bytes.Buffer)
	cli := NewJobsCLI(stubInspector{err: errors.New("redis down")})

	assert.Equal(t, 1, cli.StatsCommand(context.Background(), new(bytes.Buffer), stderr))
	assert.Contains(t, stderr.String(), "redis down")
}

func TestInspectQueueWithoutInspector(t *testing.T) {
	var cli *JobsCLI
	_, err := cli.InspectQueue(context.Background())
	assert.Error(t, err)
}
