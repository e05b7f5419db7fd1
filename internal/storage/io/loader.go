package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// ManifestYAMLRepository loads deployment manifests from YAML files.
type ManifestYAMLRepository struct {
	fs fs.FS
}

// NewManifestYAMLRepository creates a new YAML manifest repository.
func NewManifestYAMLRepository(filesystem fs.FS) *ManifestYAMLRepository {
	return &ManifestYAMLRepository{fs: filesystem}
}

// GetManifest loads a manifest from a YAML file and returns a validated domain model.
// An empty model in the file is replaced by defaultModel.
func (r *ManifestYAMLRepository) GetManifest(ctx context.Context, path, defaultModel string) (model.Manifest, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Manifest{}, fmt.Errorf("reading manifest file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Manifest{}, ctx.Err()
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return model.Manifest{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if m.Model == "" {
		m.Model = defaultModel
	}

	manifest, err := m.toModel()
	if err != nil {
		return model.Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return model.Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}

	return manifest, nil
}

// Manifest represents the YAML structure of a deployment manifest.
type Manifest struct {
	Model     string     `yaml:"model"`
	Workloads []Workload `yaml:"workloads"`
}

// Workload represents the YAML structure of a workload.
type Workload struct {
	Name             string         `yaml:"name"`
	Charm            string         `yaml:"charm"`
	Channel          string         `yaml:"channel"`
	Machines         []string       `yaml:"machines"`
	Config           map[string]any `yaml:"config"`
	Ask              []string       `yaml:"ask"`
	AcceptedStatuses []string       `yaml:"accepted_statuses"`
	Timeout          string         `yaml:"timeout"`
}

func (m Manifest) toModel() (model.Manifest, error) {
	res := model.Manifest{Model: m.Model}
	for _, w := range m.Workloads {
		wl, err := w.toModel()
		if err != nil {
			return model.Manifest{}, fmt.Errorf("workload %q: %w", w.Name, err)
		}
		res.Workloads = append(res.Workloads, wl)
	}
	return res, nil
}

func (w Workload) toModel() (model.WorkloadSpec, error) {
	spec := model.WorkloadSpec{
		Name:     w.Name,
		Charm:    w.Charm,
		Channel:  w.Channel,
		Machines: w.Machines,
		Ask:      w.Ask,
	}

	if w.Charm == "" {
		spec.Charm = w.Name
	}

	if len(w.Config) > 0 {
		spec.Config = make(map[string]string, len(w.Config))
		for k, v := range w.Config {
			if v == nil {
				continue
			}
			spec.Config[k] = fmt.Sprint(v)
		}
	}

	for _, s := range w.AcceptedStatuses {
		status, err := parseWorkloadStatus(s)
		if err != nil {
			return model.WorkloadSpec{}, err
		}
		spec.AcceptedStatuses = append(spec.AcceptedStatuses, status)
	}

	if w.Timeout != "" {
		d, err := time.ParseDuration(w.Timeout)
		if err != nil {
			return model.WorkloadSpec{}, fmt.Errorf("invalid timeout %q: %w", w.Timeout, model.ErrNotValid)
		}
		spec.Timeout = d
	}

	return spec, nil
}

func parseWorkloadStatus(s string) (model.WorkloadStatus, error) {
	switch status := model.WorkloadStatus(s); status {
	case model.WorkloadStatusActive,
		model.WorkloadStatusBlocked,
		model.WorkloadStatusWaiting,
		model.WorkloadStatusMaintenance,
		model.WorkloadStatusUnknown,
		model.WorkloadStatusError,
		model.WorkloadStatusTerminated:
		return status, nil
	default:
		return "", fmt.Errorf("unknown workload status %q: %w", s, model.ErrNotValid)
	}
}
