package printer

import (
	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// Printer knows how to print deployment information in different formats.
type Printer interface {
	PrintWorkloads(workloads []model.Workload) error
	PrintResults(results *plan.Results) error
	PrintChecks(results []model.CheckResult) error
	PrintMessage(msg string) error
}
