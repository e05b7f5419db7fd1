package conventions

import (
	"path/filepath"

	"k8s.io/client-go/util/homedir"
)

const (
	// DefaultDataDir is the default stackup data directory name (relative to home).
	DefaultDataDir = ".stackup"
	// ManifestFile is the default deployment manifest filename.
	ManifestFile = "manifest.yaml"
	// DefaultModel is the orchestrator model used when none is configured.
	DefaultModel = "openstack"
	// DefaultOrchestratorBinary is the orchestrator CLI binary name.
	DefaultOrchestratorBinary = "juju"
)

// DataDir returns the stackup data directory under the home directory.
func DataDir() string {
	return filepath.Join(homedir.HomeDir(), DefaultDataDir)
}

// ManifestPath returns the default manifest path inside a data directory.
func ManifestPath(dataDir string) string {
	return filepath.Join(dataDir, ManifestFile)
}
