package conventions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolsen/snap-openstack-sub000/internal/conventions"
)

func TestManifestPath(t *testing.T) {
	assert.Equal(t, "/home/ubuntu/.stackup/manifest.yaml", conventions.ManifestPath("/home/ubuntu/.stackup"))
}

func TestDataDir(t *testing.T) {
	t.Setenv("HOME", "/home/ubuntu")
	assert.Equal(t, "/home/ubuntu/.stackup", conventions.DataDir())
}
