package jujucli

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

// statusDoc is the subset of `juju status --format=yaml` we use.
type statusDoc struct {
	Model struct {
		Name string `yaml:"name"`
	} `yaml:"model"`
	Machines     map[string]machineStatus     `yaml:"machines"`
	Applications map[string]applicationStatus `yaml:"applications"`
}

type statusInfo struct {
	Current string `yaml:"current"`
	Message string `yaml:"message"`
	Since   string `yaml:"since"`
}

type machineStatus struct {
	JujuStatus statusInfo `yaml:"juju-status"`
}

type applicationStatus struct {
	Charm             string                `yaml:"charm"`
	CharmName         string                `yaml:"charm-name"`
	CharmChannel      string                `yaml:"charm-channel"`
	ApplicationStatus statusInfo            `yaml:"application-status"`
	Units             map[string]unitStatus `yaml:"units"`
}

type unitStatus struct {
	WorkloadStatus statusInfo `yaml:"workload-status"`
	JujuStatus     statusInfo `yaml:"juju-status"`
	Leader         bool       `yaml:"leader"`
	Machine        string     `yaml:"machine"`
}

// configDoc is the subset of `juju config --format=yaml` we use.
type configDoc struct {
	Settings map[string]struct {
		Value  any    `yaml:"value"`
		Source string `yaml:"source"`
	} `yaml:"settings"`
}

const sinceLayout = "02 Jan 2006 15:04:05Z07:00"

func parseStatus(data []byte) (*statusDoc, error) {
	var doc statusDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse status: %w", err)
	}
	return &doc, nil
}

func parseConfig(data []byte) (map[string]string, error) {
	var doc configDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}

	config := map[string]string{}
	for k, s := range doc.Settings {
		if s.Value == nil {
			continue
		}
		config[k] = fmt.Sprint(s.Value)
	}
	return config, nil
}

// workloadNames returns the sorted application names.
func (d *statusDoc) workloadNames() []string {
	names := make([]string, 0, len(d.Applications))
	for name := range d.Applications {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// workload maps an application of the status to the model.
func (d *statusDoc) workload(name string) (*model.Workload, bool) {
	app, ok := d.Applications[name]
	if !ok {
		return nil, false
	}

	charm := app.CharmName
	if charm == "" {
		charm = app.Charm
	}

	w := &model.Workload{
		Name:    name,
		Charm:   charm,
		Channel: app.CharmChannel,
		Status:  workloadStatus(app.ApplicationStatus.Current),
		Message: app.ApplicationStatus.Message,
	}
	for unitName, u := range app.Units {
		w.Units = append(w.Units, model.Unit{
			Name:           unitName,
			Workload:       name,
			AgentStatus:    model.AgentStatus(u.JujuStatus.Current),
			WorkloadStatus: workloadStatus(u.WorkloadStatus.Current),
			Message:        u.WorkloadStatus.Message,
			Machine:        u.Machine,
			Leader:         u.Leader,
			Since:          parseSince(u.WorkloadStatus.Since),
		})
	}
	model.SortUnits(w.Units)

	return w, true
}

func workloadStatus(s string) model.WorkloadStatus {
	if s == "" {
		return model.WorkloadStatusUnknown
	}
	return model.WorkloadStatus(s)
}

func parseSince(s string) time.Time {
	t, err := time.Parse(sinceLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
