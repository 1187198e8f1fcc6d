// Package engine provides the core types and orchestration logic for the
// packsync build engine.
//
// # Overview
//
// The engine runs build cycles for content pack projects. A cycle moves a
// project from its source tree to the deployment directory through four
// stages:
//
//  1. Compile - Run the TypeScript compiler over the compiled-source
//     directory, if the project has one (Compiler)
//  2. Scan - Parse script sources for library references (libscan.Scanner)
//  3. Sync - Mirror the behavior and resource pack trees into the
//     deployment directory (syncer.Syncer)
//  4. Materialize - Copy the referenced libraries into the deployed
//     scripts/libraries directory (syncer.Materialize)
//
// # Core Domain Types
//
//   - Project: A content pack project rooted at a workspace subdirectory
//   - Deployment: The deployment root and its per-project pack directories
//   - Cycle: One execution of the full pipeline with its outcome and stats
//   - CycleError: A classified failure from any stage of a cycle
//
// # Error Classification
//
// Cycle errors carry a class that decides how the orchestrator reacts:
//
//   - compile: The compiler reported diagnostics; syncing still proceeds
//   - filesystem: A copy or delete failed; remaining entries still run
//   - scan: Library scanning failed; the cycle continues with no libraries
//   - config: The workspace or project is misconfigured; the cycle aborts
//
// Only config errors are fatal. Use IsFatal to decide whether a cycle
// result should stop a watch session:
//
//	cycle, err := orch.RunCycle(ctx, project)
//	if engine.IsFatal(err) {
//	    // Stop watching; the configuration must be fixed first.
//	}
//
// # Thread Safety
//
// An Orchestrator is safe for concurrent use. Cycles for different projects
// may run in parallel; sequence numbers are assigned per project under an
// internal lock.
package engine
