// Package automation provides the rule scheduler for Gray Logic Rules.
//
// An automation is a compiled condition plus what to do when it holds:
// a step pipeline (Delay, Compute, Action, Switch) or a legacy flat action
// list. Each started automation runs on its own goroutine and evaluates its
// condition once per period (1/frequency seconds).
//
// Architecture:
//
//	┌───────────────────────────────────────────────────────┐
//	│                  Engine (engine.go)                    │
//	│  One goroutine per automation, atomic state + enable   │
//	│  ┌──────────────┐    ┌──────────────┐                │
//	│  │   Registry   │───▶│  Automation  │                │
//	│  │(registry.go) │    │(automation.go)│               │
//	│  └──────────────┘    └──────────────┘                │
//	│        │                                              │
//	│        ▼                                              │
//	│  ┌──────────────────────────────────────────────┐    │
//	│  │  Cycle                                        │    │
//	│  │  1. Wait until no `after` automation runs     │    │
//	│  │  2. Evaluate condition (errors → false)       │    │
//	│  │  3. Run steps (steps.go) or legacy batch      │    │
//	│  │     (legacy.go), publish via entities         │    │
//	│  │  4. Apply starts / stops                      │    │
//	│  │  5. Record run, broadcast WebSocket event     │    │
//	│  └──────────────────────────────────────────────┘    │
//	└───────────────────────────────────────────────────────┘
//
// # States
//
//	IDLE → RUNNING → EXITED_SUCCESS  (check-once finished)
//	               → EXITED_FAILURE  (error or panic escaped a cycle)
//
// A failed automation is never rescheduled. Restart brings a check-once
// automation back from EXITED_SUCCESS.
//
// # Thread Safety
//
// Engine and Registry are safe for concurrent use. An ExecutionContext
// belongs to a single run and is not shared.
//
// # Usage
//
//	a, err := automation.New(automation.Definition{
//	    Name:      "cool_down",
//	    Condition: cond,
//	    Steps:     steps,
//	    Enabled:   true,
//	})
//
//	engine, err := automation.NewEngine([]*automation.Automation{a}, entities, store, log)
//	engine.SetHub(hub)
//	if err := engine.StartAll(ctx); err != nil {
//	    return err
//	}
//	defer engine.Stop()
package automation
