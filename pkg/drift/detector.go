package drift

import (
	"strconv"

	"otc-rds-operator/internal/domain/rds"
)

// Detector compares a desired instance with the provider's snapshot.
type Detector interface {
	// Detect returns the changes needed to converge actual onto desired.
	// flavorID is the provider id the desired size class resolved to.
	Detect(desired *rds.Instance, actual *rds.RemoteInstance, flavorID string) Diff
}

type detector struct {
	config *Config
}

// NewDetector creates a new drift detector with the given configuration.
func NewDetector(config *Config) Detector {
	if config == nil {
		config = DefaultConfig()
	}
	return &detector{config: config}
}

type fieldRule struct {
	field   string
	desired func(d *rds.Instance, flavorID string) string
	actual  func(a *rds.RemoteInstance) string
}

// rules lists every compared field. The name and the raw flavor string have
// dedicated handling in Detect.
var rules = []fieldRule{
	{
		field:   FieldDatastoreType,
		desired: func(d *rds.Instance, _ string) string { return d.Datastore.Type },
		actual:  func(a *rds.RemoteInstance) string { return a.Datastore.Type },
	},
	{
		field:   FieldDatastoreVersion,
		desired: func(d *rds.Instance, _ string) string { return d.Datastore.Version },
		actual:  func(a *rds.RemoteInstance) string { return a.Datastore.Version },
	},
	{
		field:   FieldFlavor,
		desired: func(_ *rds.Instance, flavorID string) string { return flavorID },
		actual:  func(a *rds.RemoteInstance) string { return a.FlavorID },
	},
	{
		field:   FieldVolumeType,
		desired: func(d *rds.Instance, _ string) string { return d.Volume.Type },
		actual:  func(a *rds.RemoteInstance) string { return a.Volume.Type },
	},
	{
		field:   FieldVolumeSize,
		desired: func(d *rds.Instance, _ string) string { return itoa(d.Volume.Size) },
		actual:  func(a *rds.RemoteInstance) string { return itoa(a.Volume.Size) },
	},
	{
		field:   FieldRegion,
		desired: func(d *rds.Instance, _ string) string { return d.Region },
		actual:  func(a *rds.RemoteInstance) string { return a.Region },
	},
	{
		field:   FieldAvailabilityZone,
		desired: func(d *rds.Instance, _ string) string { return d.AvailabilityZone },
		actual:  func(a *rds.RemoteInstance) string { return a.AvailabilityZone },
	},
	{
		field:   FieldVPC,
		desired: func(d *rds.Instance, _ string) string { return d.VPC },
		actual:  func(a *rds.RemoteInstance) string { return a.VPC },
	},
	{
		field:   FieldSubnet,
		desired: func(d *rds.Instance, _ string) string { return d.Nics.SubnetID },
		actual:  func(a *rds.RemoteInstance) string { return a.SubnetID },
	},
	{
		field:   FieldSecurityGroup,
		desired: func(d *rds.Instance, _ string) string { return d.SecurityGroup.ID },
		actual:  func(a *rds.RemoteInstance) string { return a.SecurityGroupID },
	},
	{
		field:   FieldBackupStartTime,
		desired: func(d *rds.Instance, _ string) string { return d.BackupStrategy.StartTime },
		actual:  func(a *rds.RemoteInstance) string { return a.BackupStrategy.StartTime },
	},
	{
		field:   FieldBackupKeepDays,
		desired: func(d *rds.Instance, _ string) string { return itoa(d.BackupStrategy.KeepDays) },
		actual:  func(a *rds.RemoteInstance) string { return itoa(a.BackupStrategy.KeepDays) },
	},
}

// Detect implements the Detector interface.
func (d *detector) Detect(desired *rds.Instance, actual *rds.RemoteInstance, flavorID string) Diff {
	var changes []Change

	if !desired.MatchesName(actual.Name) && !d.config.ShouldIgnoreField(FieldName) {
		changes = append(changes, Change{
			Field:      FieldName,
			Old:        actual.Name,
			New:        desired.Name,
			Mutability: Immutable,
		})
	}

	for _, rule := range rules {
		if d.config.ShouldIgnoreField(rule.field) {
			continue
		}

		have := rule.actual(actual)
		want := rule.desired(desired, flavorID)

		// Fields the provider did not report, or the caller did not set,
		// are not compared.
		if have == "" || want == "" || have == want {
			continue
		}

		changes = append(changes, Change{
			Field:      rule.field,
			Old:        have,
			New:        want,
			Mutability: MutabilityOf(rule.field),
		})
	}

	return newDiff(changes)
}

// itoa renders zero as unset.
func itoa(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
