package overrides

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
)

var (
	workloadRegexp = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	keyRegexp      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
)

// Overrides are config values by workload and key.
type Overrides map[string]map[string]string

// ParseSpecs parses `<workload>.<key>=<value>` specs. A spec without value,
// `<workload>.<key>`, takes the value from the STACKUP_<WORKLOAD>_<KEY> environment variable.
// Later specs override earlier ones.
func ParseSpecs(specs []string) (Overrides, error) {
	res := Overrides{}

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("config spec cannot be empty")
		}

		target, value, hasValue := strings.Cut(spec, "=")
		workload, key, ok := strings.Cut(target, ".")
		if !ok || !workloadRegexp.MatchString(workload) || !keyRegexp.MatchString(key) {
			return nil, fmt.Errorf("invalid config spec %q, expected <workload>.<key>=<value>", spec)
		}

		if !hasValue {
			envName := EnvName(workload, key)
			v, ok := os.LookupEnv(envName)
			if !ok {
				return nil, fmt.Errorf("environment variable %q is not set", envName)
			}
			value = v
		}

		if res[workload] == nil {
			res[workload] = map[string]string{}
		}
		res[workload][key] = value
	}

	return res, nil
}

// EnvName returns the environment variable a config value is inherited from.
func EnvName(workload, key string) string {
	name := "STACKUP_" + workload + "_" + key
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// MergeMaps merges override on top of base into a new map.
func MergeMaps(base map[string]string, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}

	return merged
}

// Apply returns a copy of the manifest with the overrides merged into the workload
// configs. Overrides for workloads that are not in the manifest fail.
func Apply(m model.Manifest, o Overrides) (model.Manifest, error) {
	for workload := range o {
		if _, ok := m.Workload(workload); !ok {
			return model.Manifest{}, fmt.Errorf("workload %q is not in the manifest: %w", workload, model.ErrNotValid)
		}
	}

	res := model.Manifest{Model: m.Model, Workloads: make([]model.WorkloadSpec, 0, len(m.Workloads))}
	for _, w := range m.Workloads {
		w.Config = MergeMaps(w.Config, o[w.Name])
		res.Workloads = append(res.Workloads, w)
	}

	return res, nil
}
