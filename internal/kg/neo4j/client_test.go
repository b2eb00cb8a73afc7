package neo4j

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphFailure(t *testing.T) {
	assert.False(t, graphFailure(nil))
	assert.False(t, graphFailure(context.Canceled))
	assert.False(t, graphFailure(fmt.Errorf("candidates: %w", context.Canceled)))
	assert.True(t, graphFailure(context.DeadlineExceeded))
	assert.True(t, graphFailure(errors.New("connection refused")))
}
