package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/wolsen/snap-openstack-sub000/internal/model"
	"github.com/wolsen/snap-openstack-sub000/internal/plan"
)

// TablePrinter prints deployment information in a table format.
type TablePrinter struct {
	writer io.Writer
	now    func() time.Time
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w, now: time.Now}
}

// PrintWorkloads prints a workloads table followed by a units table.
func (t *TablePrinter) PrintWorkloads(workloads []model.Workload) error {
	if len(workloads) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "WORKLOAD\tSTATUS\tCHARM\tCHANNEL\tUNITS\tMESSAGE")
	for _, w := range workloads {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", w.Name, w.Status, w.Charm, w.Channel, len(w.Units), w.Message)
	}

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "UNIT\tWORKLOAD\tAGENT\tMACHINE\tSINCE\tMESSAGE")
	now := t.now()
	for _, w := range workloads {
		for _, u := range w.Units {
			name := u.Name
			if u.Leader {
				name += "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", name, u.WorkloadStatus, u.AgentStatus, u.Machine, Age(u.Since, now), u.Message)
		}
	}

	return tw.Flush()
}

// PrintResults prints the plan step results in execution order.
func (t *TablePrinter) PrintResults(results *plan.Results) error {
	if results == nil || results.Len() == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "STEP\tRESULT\tMESSAGE")
	for _, key := range results.Keys() {
		res, _ := results.ByKey(key)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", plan.ShortKey(key), res.Type, res.Text())
	}

	return tw.Flush()
}

// PrintChecks prints the check results followed by a summary line.
func (t *TablePrinter) PrintChecks(results []model.CheckResult) error {
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", checkIcon(r.Status), r.ID, r.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, warnings, errors := model.CountByStatus(results)
	if warnings == 0 && errors == 0 {
		fmt.Fprintln(t.writer, "All checks passed!")
		return nil
	}

	var summary []string
	if errors > 0 {
		summary = append(summary, fmt.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		summary = append(summary, fmt.Sprintf("%d warning(s)", warnings))
	}
	fmt.Fprintln(t.writer, strings.Join(summary, ", "))

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func checkIcon(status model.CheckStatus) string {
	switch status {
	case model.CheckStatusOK:
		return "OK"
	case model.CheckStatusWarning:
		return "!!"
	case model.CheckStatusError:
		return "XX"
	default:
		return "??"
	}
}
