package shared_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reserve/shared"
)

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "reservation:gets", shared.BuildCacheKey("reservation:gets"))
	assert.Equal(t, "reservation:get:abc", shared.BuildCacheKey("reservation:get", "abc"))
	assert.Equal(t, "reservation:gets:room-1:2025-01-01", shared.BuildCacheKey("reservation:gets", "room-1", "2025-01-01"))
}
