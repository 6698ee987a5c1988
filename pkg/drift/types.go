// Package drift computes the difference between a desired RDS instance and the
// instance the provider reports.
//
// Every compared field carries a static Mutability. Immutable mismatches can
// only be fixed by recreating the instance and are reported as fatal; resizable
// mismatches become in-place resize actions.
package drift

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"otc-rds-operator/internal/domain/rds"
)

// Mutability classifies how a field may change on a live instance.
type Mutability string

const (
	// Immutable fields cannot be changed without recreating the instance.
	Immutable Mutability = "immutable"

	// Resizable fields are changed in place by a scoped resize action.
	Resizable Mutability = "resizable"

	// Derived fields are never compared by raw value. The name is matched by
	// prefix; a mismatch under that rule is treated as immutable.
	Derived Mutability = "derived"

	// WriteOnly fields are sent on create and never read back.
	WriteOnly Mutability = "writeOnly"
)

// Field paths.
const (
	FieldName             = "name"
	FieldDatastoreType    = "datastore.type"
	FieldDatastoreVersion = "datastore.version"
	FieldFlavor           = rds.FieldFlavor
	FieldVolumeType       = "volume.type"
	FieldVolumeSize       = rds.FieldVolumeSize
	FieldRegion           = "region"
	FieldAvailabilityZone = "availabilityZone"
	FieldVPC              = "vpc"
	FieldSubnet           = "nics.subnetId"
	FieldSecurityGroup    = "securityGroup.id"
	FieldBackupStartTime  = "backupStrategy.startTime"
	FieldBackupKeepDays   = "backupStrategy.keepDays"
	FieldRootPassword     = "dbRtPd"
)

// FieldMutability is the static classification of every field of an instance.
var FieldMutability = map[string]Mutability{
	FieldName:             Derived,
	FieldDatastoreType:    Immutable,
	FieldDatastoreVersion: Immutable,
	FieldFlavor:           Resizable,
	FieldVolumeType:       Immutable,
	FieldVolumeSize:       Resizable,
	FieldRegion:           Immutable,
	FieldAvailabilityZone: Immutable,
	FieldVPC:              Immutable,
	FieldSubnet:           Immutable,
	FieldSecurityGroup:    Immutable,
	FieldBackupStartTime:  Immutable,
	FieldBackupKeepDays:   Immutable,
	FieldRootPassword:     WriteOnly,
}

// MutabilityOf returns the classification of a field. Unknown fields are immutable.
func MutabilityOf(field string) Mutability {
	if m, ok := FieldMutability[field]; ok {
		return m
	}
	return Immutable
}

// Change is a single field that differs between remote and desired state.
type Change struct {
	Field string

	// Old is the value the provider reports, New the desired value.
	Old string
	New string

	// Mutability is the effective classification: Resizable or Immutable.
	Mutability Mutability
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %s -> %s", c.Field, c.Old, c.New)
}

// Diff is the set of changes of one reconciliation pass, sorted by field.
type Diff []Change

func newDiff(changes []Change) Diff {
	d := Diff(changes)
	sort.SliceStable(d, func(i, j int) bool { return d[i].Field < d[j].Field })
	return d
}

// Empty reports whether desired and remote state agree.
func (d Diff) Empty() bool {
	return len(d) == 0
}

// Immutable returns the changes that cannot be applied in place.
func (d Diff) Immutable() []Change {
	return d.filter(Immutable)
}

// Resizable returns the changes that map to resize actions.
func (d Diff) Resizable() []Change {
	return d.filter(Resizable)
}

func (d Diff) filter(m Mutability) []Change {
	var out []Change
	for _, c := range d {
		if c.Mutability == m {
			out = append(out, c)
		}
	}
	return out
}

// Fields returns the changed field paths in order.
func (d Diff) Fields() []string {
	fields := make([]string, len(d))
	for i, c := range d {
		fields[i] = c.Field
	}
	return fields
}

func (d Diff) String() string {
	if d.Empty() {
		return "no drift"
	}
	parts := make([]string, len(d))
	for i, c := range d {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// ErrImmutableField is matched by every ImmutableFieldError.
var ErrImmutableField = errors.New("immutable field changed")

// ImmutableFieldError lists every immutable field whose desired value differs
// from the provider's. No mutation is attempted when it is returned.
type ImmutableFieldError struct {
	Changes []Change
}

func (e *ImmutableFieldError) Error() string {
	parts := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		parts[i] = fmt.Sprintf("%s (is %q, want %q)", c.Field, c.Old, c.New)
	}
	return fmt.Sprintf("%s: %s", ErrImmutableField, strings.Join(parts, ", "))
}

func (e *ImmutableFieldError) Is(target error) bool {
	return target == ErrImmutableField
}

// Fields returns the offending field paths.
func (e *ImmutableFieldError) Fields() []string {
	return Diff(e.Changes).Fields()
}

// Config tunes drift detection.
type Config struct {
	// IgnoreFields lists field paths that are allowed to drift.
	// A trailing "*" matches by prefix, e.g. "backupStrategy.*".
	IgnoreFields []string
}

// DefaultConfig compares every field.
func DefaultConfig() *Config {
	return &Config{}
}

// ShouldIgnoreField checks if a field should be ignored based on ignore patterns.
func (c *Config) ShouldIgnoreField(field string) bool {
	for _, pattern := range c.IgnoreFields {
		if matchPattern(field, pattern) {
			return true
		}
	}
	return false
}

func matchPattern(s, pattern string) bool {
	if pattern == "*" || pattern == s {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(s, prefix)
	}
	return false
}
