// Package core runs RDSInstance manifests through the RDS use case and keeps
// track of what was applied. It is shared by the CLI and the HTTP API.
package core

import (
	"context"
	"fmt"
	"os"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
)

// Engine is the main engine that executes operations on RDS instances
type Engine struct {
	useCase ports.RDSUseCase
	state   StateStore
	dryRun  bool
	output  OutputWriter
}

// OutputWriter interface for custom output
type OutputWriter interface {
	Write(format string, args ...interface{})
	WriteVerbose(format string, args ...interface{})
}

// DefaultOutputWriter writes progress to stderr so stdout stays machine readable
type DefaultOutputWriter struct {
	Verbose bool
}

func (w *DefaultOutputWriter) Write(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func (w *DefaultOutputWriter) WriteVerbose(format string, args ...interface{}) {
	if w.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// SilentOutputWriter writes nothing (for the API)
type SilentOutputWriter struct{}

func (w *SilentOutputWriter) Write(format string, args ...interface{})        {}
func (w *SilentOutputWriter) WriteVerbose(format string, args ...interface{}) {}

// EngineConfig holds the engine configuration
type EngineConfig struct {
	UseCase ports.RDSUseCase
	State   StateStore
	DryRun  bool
	Verbose bool
	Output  OutputWriter
}

// NewEngine creates a new engine
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Output == nil {
		cfg.Output = &DefaultOutputWriter{Verbose: cfg.Verbose}
	}

	return &Engine{
		useCase: cfg.UseCase,
		state:   cfg.State,
		dryRun:  cfg.DryRun,
		output:  cfg.Output,
	}
}

// Plan reports what Apply would do for each instance. A plan that cannot be
// computed, such as one changing an immutable field, fails the whole call.
func (e *Engine) Plan(ctx context.Context, instances []InstanceManifest) (*PlanResult, error) {
	result := &PlanResult{}

	for _, m := range instances {
		plan, err := e.useCase.Plan(ctx, m.ToDomain())
		if err != nil {
			return nil, fmt.Errorf("failed to plan %s: %w", GetResourceID(m.Resource), err)
		}

		item := PlanItem{
			Kind:       m.Kind,
			Name:       m.Metadata.Name,
			Namespace:  m.Metadata.Namespace,
			Action:     plan.Action,
			InstanceID: plan.InstanceID,
			FlavorID:   plan.FlavorID,
		}
		for _, r := range plan.Resizes {
			item.Changes = append(item.Changes, fmt.Sprintf("%s: %s -> %s", r.Field, r.Old, r.New))
		}

		switch plan.Action {
		case rds.ActionCreate:
			result.ToCreate = append(result.ToCreate, item)
		case rds.ActionResize:
			result.ToResize = append(result.ToResize, item)
		case rds.ActionDelete:
			result.ToDelete = append(result.ToDelete, item)
		default:
			result.NoChange = append(result.NoChange, item)
		}
	}

	return result, nil
}

// Apply converges each instance in document order. A failing instance is
// recorded and does not stop the others.
func (e *Engine) Apply(ctx context.Context, instances []InstanceManifest) (*ApplyResult, error) {
	result := &ApplyResult{}

	for _, m := range instances {
		e.output.WriteVerbose("Processing %s...", GetResourceID(m.Resource))

		item := ResourceResult{
			Kind:      m.Kind,
			Name:      m.Metadata.Name,
			Namespace: m.Metadata.Namespace,
		}

		if e.dryRun {
			plan, err := e.useCase.Plan(ctx, m.ToDomain())
			if err != nil {
				item.Error = err.Error()
				result.add(item)
				continue
			}
			item.Result = resultFromPlan(plan)
			result.Items = append(result.Items, item)
			result.Summary.Skipped++
			continue
		}

		res, err := e.apply(ctx, m)
		item.Result = res
		if err != nil {
			item.Error = err.Error()
		}
		result.add(item)
	}

	return result, nil
}

// Delete deletes each instance, in reverse document order.
func (e *Engine) Delete(ctx context.Context, instances []InstanceManifest) (*ApplyResult, error) {
	reversed := make([]InstanceManifest, 0, len(instances))
	for i := len(instances) - 1; i >= 0; i-- {
		m := instances[i]
		m.Spec.State = rds.StateAbsent
		reversed = append(reversed, m)
	}
	return e.Apply(ctx, reversed)
}

// Get lists resources from the state
func (e *Engine) Get(ctx context.Context, kind string) ([]*ResourceState, error) {
	if kind == "all" {
		kind = ""
	}
	return e.state.ListStates(ctx, kind)
}

func (e *Engine) apply(ctx context.Context, m InstanceManifest) (*rds.Result, error) {
	instance := m.ToDomain()

	result, err := e.useCase.Apply(ctx, instance)
	if err != nil {
		// A partially applied resize still changed the instance
		if result != nil && result.Changed {
			if saveErr := e.state.SaveState(ctx, StateFromResult(m, result)); saveErr != nil {
				e.output.Write("  Failed to save state for %s: %v", GetResourceID(m.Resource), saveErr)
			}
		}
		return result, err
	}

	if instance.State == rds.StateAbsent {
		if err := e.state.DeleteState(ctx, m.Kind, m.Metadata.Namespace, m.Metadata.Name); err != nil {
			return result, fmt.Errorf("failed to delete state: %w", err)
		}
		return result, nil
	}

	if err := e.state.SaveState(ctx, StateFromResult(m, result)); err != nil {
		return result, fmt.Errorf("failed to save state: %w", err)
	}
	return result, nil
}

func (r *ApplyResult) add(item ResourceResult) {
	r.Items = append(r.Items, item)

	if item.Error != "" {
		r.Summary.Failed++
		return
	}

	switch item.Result.Action {
	case rds.ActionCreate:
		r.Summary.Created++
	case rds.ActionResize:
		r.Summary.Resized++
	case rds.ActionDelete:
		r.Summary.Deleted++
	default:
		r.Summary.Unchanged++
	}
}

// Err returns an error when any item failed.
func (r *ApplyResult) Err() error {
	if r.Summary.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d resources failed", r.Summary.Failed, len(r.Items))
}

// resultFromPlan reports a plan without executing it.
func resultFromPlan(plan *rds.Plan) *rds.Result {
	result := &rds.Result{
		Changed:    plan.Changed(),
		Action:     plan.Action,
		InstanceID: plan.InstanceID,
		Message:    "[dry-run] " + plan.String(),
	}
	for _, r := range plan.Resizes {
		result.Resizes = append(result.Resizes, r.Field)
	}
	return result
}
