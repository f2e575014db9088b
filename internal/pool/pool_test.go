package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmdig/llmdig/internal/pool"
)

func TestBufferPool_HandsOutCorrectSize(t *testing.T) {
	bp := pool.NewBufferPool(512)
	buf := bp.Get()
	require.NotNil(t, buf)
	assert.Len(t, *buf, 512)
	bp.Put(buf)
}

func TestBufferPool_DropsWrongSize(t *testing.T) {
	bp := pool.NewBufferPool(512)
	short := make([]byte, 16)
	bp.Put(&short) // must not poison the pool
	bp.Put(nil)

	buf := bp.Get()
	assert.Len(t, *buf, 512)
}
