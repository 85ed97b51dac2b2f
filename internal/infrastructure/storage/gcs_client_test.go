package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

	name := ObjectName("/categories/", "image/png", now)
	assert.True(t, strings.HasPrefix(name, "public/categories/"))
	assert.True(t, strings.HasSuffix(name, "-20240305103000.png"))

	assert.True(t, strings.HasSuffix(ObjectName("charities", "application/zip", now), ".bin"))
}

func TestObjectFromURL(t *testing.T) {
	name, err := ObjectFromURL("market", "https://storage.googleapis.com/market/public/categories/a.png")
	require.NoError(t, err)
	assert.Equal(t, "public/categories/a.png", name)

	_, err = ObjectFromURL("market", "https://storage.googleapis.com/other/public/a.png")
	assert.Error(t, err)

	_, err = ObjectFromURL("market", "https://example.com/market/a.png")
	assert.Error(t, err)
}
