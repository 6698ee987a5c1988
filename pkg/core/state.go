package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StateStore persists what the CLI applied so later runs can list it.
// The provider stays the source of truth: state is never used for planning.
type StateStore interface {
	SaveState(ctx context.Context, state *ResourceState) error
	// LoadState returns nil, nil when the resource has no state.
	LoadState(ctx context.Context, kind, namespace, name string) (*ResourceState, error)
	DeleteState(ctx context.Context, kind, namespace, name string) error
	// ListStates lists all resources of a kind, or every resource when kind is empty.
	ListStates(ctx context.Context, kind string) ([]*ResourceState, error)
}

// touch sets the timestamps before a save, keeping CreatedAt of earlier saves.
func (s *ResourceState) touch(previous *ResourceState) {
	s.UpdatedAt = time.Now()
	switch {
	case previous != nil && !previous.CreatedAt.IsZero():
		s.CreatedAt = previous.CreatedAt
	case s.CreatedAt.IsZero():
		s.CreatedAt = s.UpdatedAt
	}
}

// stateKey returns the relative location of a resource's state.
func stateKey(kind, namespace, name string) string {
	if namespace == "" {
		namespace = "default"
	}
	return filepath.ToSlash(filepath.Join(kind, namespace, name+".json"))
}

// StateManager manages local state for CLI mode
type StateManager struct {
	StateDir string
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	if stateDir == "" {
		home, _ := os.UserHomeDir()
		stateDir = filepath.Join(home, ".otc-rds-operator", "state")
	}
	return &StateManager{StateDir: stateDir}
}

// GetStatePath returns the path to a resource's state file
func (s *StateManager) GetStatePath(kind, namespace, name string) string {
	return filepath.Join(s.StateDir, filepath.FromSlash(stateKey(kind, namespace, name)))
}

// SaveState saves a resource's state
func (s *StateManager) SaveState(ctx context.Context, state *ResourceState) error {
	statePath := s.GetStatePath(state.Kind, state.Namespace, state.Name)

	if err := os.MkdirAll(filepath.Dir(statePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	previous, err := s.LoadState(ctx, state.Kind, state.Namespace, state.Name)
	if err != nil {
		return err
	}
	state.touch(previous)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	if err := os.WriteFile(statePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// LoadState loads a resource's state
func (s *StateManager) LoadState(_ context.Context, kind, namespace, name string) (*ResourceState, error) {
	data, err := os.ReadFile(s.GetStatePath(kind, namespace, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state ResourceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize state: %w", err)
	}

	return &state, nil
}

// DeleteState deletes a resource's state
func (s *StateManager) DeleteState(_ context.Context, kind, namespace, name string) error {
	if err := os.Remove(s.GetStatePath(kind, namespace, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

// ListStates lists all resources of a kind, or all resources when kind is empty
func (s *StateManager) ListStates(_ context.Context, kind string) ([]*ResourceState, error) {
	var states []*ResourceState

	root := s.StateDir
	if kind != "" {
		root = filepath.Join(s.StateDir, kind)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return states, nil
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var state ResourceState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		states = append(states, &state)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	return states, nil
}
