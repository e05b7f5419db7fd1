package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wolsen/snap-openstack-sub000/internal/conventions"
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	storageio "github.com/wolsen/snap-openstack-sub000/internal/storage/io"
	"github.com/wolsen/snap-openstack-sub000/internal/utils/overrides"
)

// manifestFlags are the flags shared by the commands that load a manifest.
type manifestFlags struct {
	path string
	sets []string
}

func (m *manifestFlags) register(cmd *kingpin.CmdClause) {
	cmd.Flag("manifest", "Path to the deployment manifest (default <data-dir>/manifest.yaml).").Short('f').StringVar(&m.path)
	cmd.Flag("set", "Override a workload config value (<workload>.<key>=<value>), without value it's taken from STACKUP_<WORKLOAD>_<KEY>. Repeatable.").StringsVar(&m.sets)
}

func (m *manifestFlags) load(ctx context.Context, rootCmd *RootCommand) (model.Manifest, error) {
	path := m.path
	if path == "" {
		path = conventions.ManifestPath(rootCmd.DataDir)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return model.Manifest{}, fmt.Errorf("could not resolve manifest path: %w", err)
	}

	repo := storageio.NewManifestYAMLRepository(os.DirFS(filepath.Dir(abs)))
	manifest, err := repo.GetManifest(ctx, filepath.Base(abs), rootCmd.Model)
	if err != nil {
		return model.Manifest{}, fmt.Errorf("could not load manifest %s: %w", abs, err)
	}

	o, err := overrides.ParseSpecs(m.sets)
	if err != nil {
		return model.Manifest{}, fmt.Errorf("invalid config overrides: %w", err)
	}

	return overrides.Apply(manifest, o)
}
