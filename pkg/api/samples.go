package api

// SampleRDSInstance creates a MySQL instance.
var SampleRDSInstance = `{
  "resources": [{
    "apiVersion": "rds.otc-operator.io/v1alpha1",
    "kind": "RDSInstance",
    "metadata": {
      "name": "app-mysql",
      "namespace": "databases"
    },
    "spec": {
      "datastore": {"type": "MySQL", "version": "8.0"},
      "flavor": "s1.medium",
      "volume": {"type": "COMMON", "size": 100},
      "region": "eu-de",
      "availabilityZone": "eu-de-01",
      "vpc": "vpc-0123",
      "nics": {"subnetId": "subnet-0123"},
      "securityGroup": {"id": "sg-0123"},
      "backupStrategy": {"startTime": "01:00:00", "keepDays": 7},
      "dbRtPd": "change-me"
    }
  }]
}`

// SampleRDSInstanceResize grows the instance above.
var SampleRDSInstanceResize = `{
  "resources": [{
    "apiVersion": "rds.otc-operator.io/v1alpha1",
    "kind": "RDSInstance",
    "metadata": {
      "name": "app-mysql",
      "namespace": "databases"
    },
    "spec": {
      "datastore": {"type": "MySQL", "version": "8.0"},
      "flavor": "s1.large",
      "volume": {"type": "COMMON", "size": 200},
      "region": "eu-de",
      "availabilityZone": "eu-de-01",
      "vpc": "vpc-0123",
      "nics": {"subnetId": "subnet-0123"},
      "securityGroup": {"id": "sg-0123"},
      "backupStrategy": {"startTime": "01:00:00", "keepDays": 7}
    }
  }]
}`

// SampleRDSInstanceDelete deletes it; absent instances only need a name and
// a datastore type.
var SampleRDSInstanceDelete = `{
  "resources": [{
    "apiVersion": "rds.otc-operator.io/v1alpha1",
    "kind": "RDSInstance",
    "metadata": {"name": "app-mysql", "namespace": "databases"},
    "spec": {
      "datastore": {"type": "MySQL"},
      "state": "absent"
    }
  }]
}`

// SampleYAML is the same instance as a YAML stream, posted with
// Content-Type application/yaml.
var SampleYAML = `apiVersion: rds.otc-operator.io/v1alpha1
kind: RDSInstance
metadata:
  name: app-postgres
spec:
  datastore:
    type: PostgreSQL
    version: "13"
  flavor: s1.medium
  volume:
    type: ULTRAHIGH
    size: 40
  availabilityZone: eu-de-01
  vpc: vpc-0123
  nics:
    subnetId: subnet-0123
  securityGroup:
    id: sg-0123
`

// SampleOTCConfig is a body for POST /api/v1/config/otc.
var SampleOTCConfig = `{
  "region": "eu-de",
  "authUrl": "https://iam.eu-de.otc.t-systems.com/v3",
  "domainName": "OTC-EU-DE-00000000001000000001",
  "projectName": "eu-de_demo",
  "username": "api-user",
  "password": "change-me"
}`

// GetAllSamples groups the samples by operation.
func GetAllSamples() map[string]map[string]string {
	return map[string]map[string]string{
		"apply": {
			"create": SampleRDSInstance,
			"resize": SampleRDSInstanceResize,
			"yaml":   SampleYAML,
		},
		"plan": {
			"resize": SampleRDSInstanceResize,
		},
		"delete": {
			"absent": SampleRDSInstanceDelete,
		},
		"config": {
			"otc": SampleOTCConfig,
		},
	}
}
