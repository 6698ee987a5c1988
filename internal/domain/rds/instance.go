package rds

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidName             = errors.New("instance name cannot be empty")
	ErrInvalidDatastoreType    = errors.New("datastore type must be one of MySQL, PostgreSQL, SQLServer")
	ErrInvalidDatastoreVersion = errors.New("datastore version cannot be empty")
	ErrInvalidFlavor           = errors.New("flavor cannot be empty")
	ErrInvalidVolumeType       = errors.New("volume type must be empty, COMMON or ULTRAHIGH")
	ErrInvalidVolumeSize       = errors.New("volume size must be a positive integer")
	ErrInvalidState            = errors.New("state must be present or absent")
	ErrInvalidBackupKeepDays   = errors.New("backup keepDays must be between 0 and 732")
)

var validationErrors = []error{
	ErrInvalidName,
	ErrInvalidDatastoreType,
	ErrInvalidDatastoreVersion,
	ErrInvalidFlavor,
	ErrInvalidVolumeType,
	ErrInvalidVolumeSize,
	ErrInvalidState,
	ErrInvalidBackupKeepDays,
}

// IsInvalid reports whether err was returned by Validate.
func IsInvalid(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// State is the desired presence of an instance.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// Datastore types accepted by the RDS v1 API.
const (
	DatastoreMySQL      = "MySQL"
	DatastorePostgreSQL = "PostgreSQL"
	DatastoreSQLServer  = "SQLServer"
)

// Volume types accepted by the RDS v1 API.
const (
	VolumeCommon    = "COMMON"
	VolumeUltraHigh = "ULTRAHIGH"
)

// DefaultBackupStartTime is requested on create when no window is given.
const DefaultBackupStartTime = "00:00:00"

type Datastore struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version" yaml:"version"`
}

type Volume struct {
	Type string `json:"type" yaml:"type"`
	Size int    `json:"size" yaml:"size"`
}

type Nics struct {
	SubnetID string `json:"subnetId" yaml:"subnetId"`
}

type SecurityGroup struct {
	ID string `json:"id" yaml:"id"`
}

type BackupStrategy struct {
	StartTime string `json:"startTime" yaml:"startTime"`
	KeepDays  int    `json:"keepDays" yaml:"keepDays"`
}

// Instance is the desired specification of an RDS instance.
type Instance struct {
	Name      string
	Datastore Datastore

	// Flavor is the size class, e.g. "s1.medium". It is resolved to a
	// provider flavor id through the spec code rds.<type>.<flavor>.
	Flavor string
	Volume Volume

	Region           string
	AvailabilityZone string
	VPC              string
	Nics             Nics
	SecurityGroup    SecurityGroup
	BackupStrategy   BackupStrategy

	// RootPassword is sent on create only and never compared.
	RootPassword string

	State State
}

// Validate checks the instance specification.
func (i *Instance) Validate() error {
	if i.Name == "" {
		return ErrInvalidName
	}

	if i.State != StatePresent && i.State != StateAbsent {
		return ErrInvalidState
	}

	switch i.Datastore.Type {
	case DatastoreMySQL, DatastorePostgreSQL, DatastoreSQLServer:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDatastoreType, i.Datastore.Type)
	}

	// Deletion only needs enough to find the instance.
	if i.State == StateAbsent {
		return nil
	}

	if i.Datastore.Version == "" {
		return ErrInvalidDatastoreVersion
	}

	if i.Flavor == "" {
		return ErrInvalidFlavor
	}

	switch i.Volume.Type {
	case "", VolumeCommon, VolumeUltraHigh:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidVolumeType, i.Volume.Type)
	}

	if i.Volume.Size <= 0 {
		return ErrInvalidVolumeSize
	}

	if i.BackupStrategy.KeepDays < 0 || i.BackupStrategy.KeepDays > 732 {
		return ErrInvalidBackupKeepDays
	}

	return nil
}

// SetDefaults sets default values for optional fields. Fields the provider
// chooses on create stay empty so they are not compared with a live instance.
func (i *Instance) SetDefaults() {
	if i.State == "" {
		i.State = StatePresent
	}
}

// WithCreateDefaults returns a copy with the values the create request needs
// for fields the caller left unset.
func (i *Instance) WithCreateDefaults() *Instance {
	out := *i

	if out.Volume.Type == "" {
		out.Volume.Type = VolumeCommon
	}

	if out.BackupStrategy.StartTime == "" {
		out.BackupStrategy.StartTime = DefaultBackupStartTime
	}

	return &out
}

// SpecCode returns the provider spec code of the desired flavor,
// e.g. "rds.mysql.s1.medium".
func (i *Instance) SpecCode() string {
	return SpecCode(i.Datastore.Type, i.Flavor)
}

// SpecCode builds the provider spec code for a datastore type and size class.
func SpecCode(datastoreType, flavor string) string {
	return fmt.Sprintf("rds.%s.%s", strings.ToLower(datastoreType), flavor)
}

// NamePrefix is the prefix the provider keeps when it decorates instance names.
func (i *Instance) NamePrefix() string {
	return i.Name + "-" + i.Datastore.Type
}

// MatchesName reports whether a provider-side name belongs to this instance.
// The provider appends "-<datastore type>-<suffix>" to the requested name.
func (i *Instance) MatchesName(remoteName string) bool {
	return remoteName == i.Name || strings.HasPrefix(remoteName, i.NamePrefix())
}

// RemoteInstance is a snapshot of an instance as reported by the provider.
type RemoteInstance struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Datastore Datastore `json:"datastore"`
	FlavorID  string    `json:"flavorId"`
	Volume    Volume    `json:"volume"`

	Region           string         `json:"region,omitempty"`
	AvailabilityZone string         `json:"availabilityZone,omitempty"`
	VPC              string         `json:"vpc,omitempty"`
	SubnetID         string         `json:"subnetId,omitempty"`
	SecurityGroupID  string         `json:"securityGroupId,omitempty"`
	BackupStrategy   BackupStrategy `json:"backupStrategy"`

	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// IsAvailable checks if the instance is serving
func (r *RemoteInstance) IsAvailable() bool {
	return r.Status == StatusActive
}

// Instance statuses reported by the RDS v1 API.
const (
	StatusBuild   = "BUILD"
	StatusActive  = "ACTIVE"
	StatusFailed  = "FAILED"
	StatusResize  = "RESIZE FLAVOR"
	StatusDeleted = "DELETED"
)

// Flavor is one row of the provider flavor catalog.
type Flavor struct {
	ID       string
	SpecCode string
	VCPUs    string
	RAM      int
}
