package v1alpha1

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

var _ = Describe("RDSInstance Webhook", func() {
	var (
		obj       *RDSInstance
		validator *RDSInstanceValidator
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		validator = &RDSInstanceValidator{}
		obj = &RDSInstance{
			ObjectMeta: metav1.ObjectMeta{
				Name:      "test-rdsinstance",
				Namespace: "default",
			},
			Spec: RDSInstanceSpec{
				ProviderRef: ProviderReference{Name: "test-provider"},
				Name:        "test-mysql",
				Datastore:   DatastoreSpec{Type: "MySQL", Version: "5.6.30"},
				Flavor:      "s1.medium",
				Volume:      VolumeSpec{Type: "COMMON", Size: 100},
				RootPasswordSecretRef: &SecretReference{
					Name: "db-root",
					Key:  "password",
				},
			},
		}
	})

	Context("ValidateCreate", func() {
		It("should accept a valid RDSInstance", func() {
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf(ContainSubstring("deletionPolicy")))
		})

		It("should reject empty ProviderRef", func() {
			obj.Spec.ProviderRef.Name = ""
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("providerRef")))
		})

		It("should reject an unknown datastore", func() {
			obj.Spec.Datastore.Type = "Oracle"
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a non positive volume size", func() {
			obj.Spec.Volume.Size = 0
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(err).To(MatchError(ContainSubstring("volume.size")))
		})

		It("should warn when no root password is referenced", func() {
			obj.Spec.RootPasswordSecretRef = nil
			obj.Spec.DeletionPolicy = "Delete"
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf(ContainSubstring("root password")))
		})
	})

	Context("ValidateUpdate", func() {
		It("should accept a volume resize", func() {
			updated := obj.DeepCopy()
			updated.Spec.Volume.Size = 200
			updated.Spec.Flavor = "s1.large"
			_, err := validator.ValidateUpdate(ctx, obj, updated)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject a volume type change", func() {
			updated := obj.DeepCopy()
			updated.Spec.Volume.Type = "ULTRAHIGH"
			_, err := validator.ValidateUpdate(ctx, obj, updated)
			Expect(err).To(MatchError(ContainSubstring("spec.volume.type is immutable")))
		})

		It("should reject a shrinking volume", func() {
			updated := obj.DeepCopy()
			updated.Spec.Volume.Size = 50
			_, err := validator.ValidateUpdate(ctx, obj, updated)
			Expect(err).To(MatchError(ContainSubstring("cannot shrink")))
		})
	})

	Context("ValidateDelete", func() {
		It("should always accept", func() {
			_, err := validator.ValidateDelete(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
