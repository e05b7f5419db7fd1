// Package lib provides a Go SDK to converge orchestrator models programmatically.
//
// This package allows applications to deploy, upgrade, inspect and tear down
// workloads without shelling out to the stackup CLI binary. It is useful for
// scripting, automation, and building tools on top of stackup.
//
// # Quick Start
//
// Create a client and converge a model to a manifest:
//
//	client, err := lib.New(lib.Config{Model: "openstack"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := client.Deploy(ctx, lib.Manifest{
//	    Workloads: []lib.WorkloadSpec{
//	        {Name: "keystone", Channel: "2024.1/stable", Machines: []string{"0", "1"}},
//	    },
//	}, nil)
//	for _, s := range res.Steps {
//	    fmt.Printf("%s: %s\n", s.Step, s.Result)
//	}
//
// # Orchestrators
//
// The SDK supports two orchestrator types:
//
//   - [OrchestratorJuju]: A real juju controller driven through the juju CLI.
//     Requires the juju binary and a bootstrapped controller.
//   - [OrchestratorFake]: In-memory fake orchestrator for unit testing. No real
//     infrastructure is needed, units are active as soon as they are created.
//
// # Waiting
//
// Every mutation waits until the model converges. Use [Client.Wait] to wait on
// your own conditions:
//
//	err := client.Wait(ctx, lib.WaitOpts{
//	    Mode:     lib.WaitActive,
//	    Entities: []string{"keystone"},
//	    Timeout:  10 * time.Minute,
//	})
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Workload or unit does not exist.
//   - [ErrNotValid]: Invalid input (e.g. a manifest without workloads).
//   - [ErrTimeout]: A wait expired before the model converged.
//   - [ErrWait]: The orchestrator reported an error state while waiting.
//   - [ErrStepFailed]: A plan step failed.
//   - [ErrCheckFailed]: A preflight check failed.
//
// # Testing
//
// Use [OrchestratorFake] to write tests without real infrastructure:
//
//	client, _ := lib.New(lib.Config{Orchestrator: lib.OrchestratorFake})
package lib
