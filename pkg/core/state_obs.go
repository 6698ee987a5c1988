package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"otc-rds-operator/pkg/metrics"
)

// DefaultOBSStatePrefix is the key prefix of state objects in the bucket.
const DefaultOBSStatePrefix = "otc-rds-operator/state/"

// OBSAPI is the subset of the S3 client used by the OBS state backend.
type OBSAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// OBSStateManager keeps CLI state in an OBS bucket so several operators
// share one view of what was applied.
type OBSStateManager struct {
	client OBSAPI
	Bucket string
	Prefix string
}

// NewOBSStateManager creates a state manager on top of an S3 compatible client.
func NewOBSStateManager(client OBSAPI, bucket, prefix string) *OBSStateManager {
	if prefix == "" {
		prefix = DefaultOBSStatePrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &OBSStateManager{client: client, Bucket: bucket, Prefix: prefix}
}

// NewOBSStateManagerFromConfig creates an OBS client for the provider's region.
func NewOBSStateManagerFromConfig(ctx context.Context, provider *ProviderConfig) (*OBSStateManager, error) {
	awsCfg, err := provider.GetOBSConfig(ctx)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// OBS does not implement the flexible checksum headers
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return NewOBSStateManager(client, provider.OBS.Bucket, ""), nil
}

func (m *OBSStateManager) key(kind, namespace, name string) string {
	return m.Prefix + stateKey(kind, namespace, name)
}

// SaveState uploads a resource's state
func (m *OBSStateManager) SaveState(ctx context.Context, state *ResourceState) error {
	previous, err := m.LoadState(ctx, state.Kind, state.Namespace, state.Name)
	if err != nil {
		return err
	}
	state.touch(previous)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceOBS, "PutObject")
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.Bucket),
		Key:         aws.String(m.key(state.Kind, state.Namespace, state.Name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		recorder.RecordError(err)
		return fmt.Errorf("failed to upload state: %w", err)
	}
	recorder.RecordSuccess()

	return nil
}

// LoadState downloads a resource's state
func (m *OBSStateManager) LoadState(ctx context.Context, kind, namespace, name string) (*ResourceState, error) {
	return m.loadKey(ctx, m.key(kind, namespace, name))
}

func (m *OBSStateManager) loadKey(ctx context.Context, key string) (*ResourceState, error) {
	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceOBS, "GetObject")
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			recorder.RecordSuccess()
			return nil, nil
		}
		recorder.RecordError(err)
		return nil, fmt.Errorf("failed to download state %s: %w", key, err)
	}
	defer out.Body.Close()
	recorder.RecordSuccess()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", key, err)
	}

	var state ResourceState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to deserialize state %s: %w", key, err)
	}

	return &state, nil
}

// DeleteState removes a resource's state
func (m *OBSStateManager) DeleteState(ctx context.Context, kind, namespace, name string) error {
	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceOBS, "DeleteObject")
	_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.Bucket),
		Key:    aws.String(m.key(kind, namespace, name)),
	})
	if err != nil && !isNotFound(err) {
		recorder.RecordError(err)
		return fmt.Errorf("failed to delete state: %w", err)
	}
	recorder.RecordSuccess()

	return nil
}

// ListStates lists all resources of a kind, or all resources when kind is empty
func (m *OBSStateManager) ListStates(ctx context.Context, kind string) ([]*ResourceState, error) {
	var states []*ResourceState

	prefix := m.Prefix
	if kind != "" {
		prefix += kind + "/"
	}

	paginator := s3.NewListObjectsV2Paginator(m.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.Bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceOBS, "ListObjectsV2")
		page, err := paginator.NextPage(ctx)
		if err != nil {
			recorder.RecordError(err)
			return nil, fmt.Errorf("failed to list states: %w", err)
		}
		recorder.RecordSuccess()

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}

			state, err := m.loadKey(ctx, key)
			if err != nil {
				return nil, err
			}
			// Deleted between list and get
			if state == nil {
				continue
			}
			states = append(states, state)
		}
	}

	return states, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
