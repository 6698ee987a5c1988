package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
)

// Manifest kinds.
const (
	KindRDSInstance = "RDSInstance"
	KindOTCProvider = "OTCProvider"
)

var (
	ErrUnknownKind       = errors.New("unknown resource kind")
	ErrUnknownAPIVersion = errors.New("unsupported apiVersion")
	ErrNoResources       = errors.New("no resources found in manifests")
)

// ParseFile parses a YAML file containing one or more resources
func ParseFile(filename string) (*Manifests, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML or JSON content containing one or more resources
// separated by ---. Unknown fields are rejected.
func ParseYAML(data []byte) (*Manifests, error) {
	manifests := &Manifests{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	for doc := 1; ; doc++ {
		var node yaml.Node
		err := decoder.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}

		var header Resource
		if err := node.Decode(&header); err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}

		// Empty or comment-only documents
		if header.Kind == "" && header.APIVersion == "" {
			continue
		}

		if header.APIVersion != rdsv1alpha1.GroupVersion.String() {
			return nil, fmt.Errorf("document %d: %w %q", doc, ErrUnknownAPIVersion, header.APIVersion)
		}

		raw, err := yaml.Marshal(&node)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}

		switch header.Kind {
		case KindRDSInstance:
			var m InstanceManifest
			if err := decodeStrict(raw, &m); err != nil {
				return nil, fmt.Errorf("document %d (%s): %w", doc, header.Kind, err)
			}
			manifests.Instances = append(manifests.Instances, m)

		case KindOTCProvider:
			var m ProviderManifest
			if err := decodeStrict(raw, &m); err != nil {
				return nil, fmt.Errorf("document %d (%s): %w", doc, header.Kind, err)
			}
			manifests.Providers = append(manifests.Providers, m)

		default:
			return nil, fmt.Errorf("document %d: %w %q", doc, ErrUnknownKind, header.Kind)
		}
	}

	return manifests, nil
}

// LoadManifests parses all files and requires at least one RDSInstance.
func LoadManifests(files []string) (*Manifests, error) {
	all := &Manifests{}

	for _, file := range files {
		manifests, err := ParseFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		all.Append(manifests)
	}

	if len(all.Instances) == 0 {
		return nil, ErrNoResources
	}

	return all, nil
}

func decodeStrict(data []byte, out interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}

// GetResourceID returns a unique identifier for a resource
func GetResourceID(r Resource) string {
	if r.Metadata.Namespace != "" {
		return fmt.Sprintf("%s/%s/%s", r.Kind, r.Metadata.Namespace, r.Metadata.Name)
	}
	return fmt.Sprintf("%s/%s", r.Kind, r.Metadata.Name)
}
