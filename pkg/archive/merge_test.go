package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

func TestMergeBucketDoesNotMutate(t *testing.T) {
	old := sampleBucket()
	snap := models.Snapshot{"b": {ServiceID: "b", StatusCode: 503}}

	merged := MergeBucket(old, 1741312860000, snap, logger.NewTestLogger())

	assert.Len(t, old, 1)
	assert.Len(t, merged, 2)
	assert.Equal(t, snap, merged[1741312860000])
	assert.Equal(t, old[1741312800000], merged[1741312800000])
}

func TestMergeBucketNilOld(t *testing.T) {
	snap := models.Snapshot{"a": {ServiceID: "a"}}

	merged := MergeBucket(nil, 1, snap, logger.NewTestLogger())
	assert.Equal(t, models.DayBucket{1: snap}, merged)
}

func TestMergeBucketCollisionOverwrites(t *testing.T) {
	var buf bytes.Buffer

	old := sampleBucket()
	snap := models.Snapshot{"a": {ServiceID: "a", StatusCode: 500}}

	merged := MergeBucket(old, 1741312800000, snap, logger.NewWriterLogger(&buf))

	require.Len(t, merged, 1)
	assert.Equal(t, 500, merged[1741312800000]["a"].StatusCode)
	assert.Equal(t, 200, old[1741312800000]["a"].StatusCode)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "overwriting")
}

func TestMergeBucketOutOfOrderWarns(t *testing.T) {
	var buf bytes.Buffer

	merged := MergeBucket(sampleBucket(), 1741312700000, models.Snapshot{}, logger.NewWriterLogger(&buf))

	assert.Len(t, merged, 2)
	assert.Contains(t, buf.String(), "does not advance")
}
