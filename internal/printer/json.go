package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// JSONPrinter prints deployment information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type workloadOutput struct {
	Name    string            `json:"name"`
	Charm   string            `json:"charm"`
	Channel string            `json:"channel,omitempty"`
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Config  map[string]string `json:"config,omitempty"`
	Units   []unitOutput      `json:"units"`
}

type unitOutput struct {
	Name           string     `json:"name"`
	AgentStatus    string     `json:"agent_status"`
	WorkloadStatus string     `json:"workload_status"`
	Message        string     `json:"message,omitempty"`
	Machine        string     `json:"machine,omitempty"`
	Leader         bool       `json:"leader"`
	Since          *time.Time `json:"since,omitempty"`
}

type resultOutput struct {
	Step    string `json:"step"`
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

type checkOutput struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintWorkloads prints the workloads with their units.
func (j *JSONPrinter) PrintWorkloads(workloads []model.Workload) error {
	items := make([]workloadOutput, 0, len(workloads))
	for _, w := range workloads {
		item := workloadOutput{
			Name:    w.Name,
			Charm:   w.Charm,
			Channel: w.Channel,
			Status:  string(w.Status),
			Message: w.Message,
			Config:  w.Config,
			Units:   make([]unitOutput, 0, len(w.Units)),
		}
		for _, u := range w.Units {
			uo := unitOutput{
				Name:           u.Name,
				AgentStatus:    string(u.AgentStatus),
				WorkloadStatus: string(u.WorkloadStatus),
				Message:        u.Message,
				Machine:        u.Machine,
				Leader:         u.Leader,
			}
			if !u.Since.IsZero() {
				since := u.Since.UTC()
				uo.Since = &since
			}
			item.Units = append(item.Units, uo)
		}
		items = append(items, item)
	}

	return j.encode(items)
}

// PrintResults prints the plan step results in execution order.
func (j *JSONPrinter) PrintResults(results *plan.Results) error {
	items := []resultOutput{}
	if results != nil {
		for _, key := range results.Keys() {
			res, _ := results.ByKey(key)
			items = append(items, resultOutput{Step: plan.ShortKey(key), Result: res.Type.String(), Message: res.Text()})
		}
	}

	return j.encode(items)
}

// PrintChecks prints the check results.
func (j *JSONPrinter) PrintChecks(results []model.CheckResult) error {
	items := make([]checkOutput, 0, len(results))
	for _, r := range results {
		items = append(items, checkOutput{ID: r.ID, Status: string(r.Status), Message: r.Message})
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
