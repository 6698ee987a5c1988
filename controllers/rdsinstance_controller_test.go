package controllers

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
	"otc-rds-operator/pkg/drift"
)

type fakeUseCase struct {
	result  *rds.Result
	err     error
	applied []*rds.Instance
}

func (f *fakeUseCase) Plan(_ context.Context, _ *rds.Instance) (*rds.Plan, error) {
	return nil, errors.New("not used")
}

func (f *fakeUseCase) Apply(_ context.Context, instance *rds.Instance) (*rds.Result, error) {
	f.applied = append(f.applied, instance)
	return f.result, f.err
}

type fakeFactory struct {
	useCase *fakeUseCase
	err     error
	config  *drift.Config
}

func (f *fakeFactory) GetRDSUseCase(_ context.Context, _ rdsv1alpha1.ProviderReference, _ string, driftConfig *drift.Config) (ports.RDSUseCase, error) {
	f.config = driftConfig
	if f.err != nil {
		return nil, f.err
	}
	return f.useCase, nil
}

var _ = Describe("RDSInstance Controller", func() {
	var (
		ctx        context.Context
		k8sClient  client.Client
		useCase    *fakeUseCase
		factory    *fakeFactory
		events     *record.FakeRecorder
		reconciler *RDSInstanceReconciler
		key        types.NamespacedName
		obj        *rdsv1alpha1.RDSInstance
	)

	BeforeEach(func() {
		ctx = context.Background()
		key = types.NamespacedName{Name: "test-mysql", Namespace: "default"}

		obj = &rdsv1alpha1.RDSInstance{
			ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
			Spec: rdsv1alpha1.RDSInstanceSpec{
				ProviderRef: rdsv1alpha1.ProviderReference{Name: "otc"},
				Name:        "test-mysql",
				Datastore:   rdsv1alpha1.DatastoreSpec{Type: "MySQL", Version: "5.6.30"},
				Flavor:      "s1.medium",
				Volume:      rdsv1alpha1.VolumeSpec{Type: "COMMON", Size: 100},
				RootPasswordSecretRef: &rdsv1alpha1.SecretReference{
					Name: "db-root",
					Key:  "password",
				},
				IgnoreDriftFields: []string{"backupStrategy.*"},
			},
		}

		secret := &corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: "db-root", Namespace: "default"},
			Data:       map[string][]byte{"password": []byte("Secret-123")},
		}

		useCase = &fakeUseCase{}
		factory = &fakeFactory{useCase: useCase}
		events = record.NewFakeRecorder(10)
		k8sClient = fake.NewClientBuilder().
			WithScheme(testScheme).
			WithObjects(obj, secret).
			WithStatusSubresource(&rdsv1alpha1.RDSInstance{}).
			Build()

		reconciler = &RDSInstanceReconciler{
			Client:         k8sClient,
			Scheme:         testScheme,
			Recorder:       events,
			UseCaseFactory: factory,
		}
	})

	Context("when the instance is created", func() {
		BeforeEach(func() {
			useCase.result = &rds.Result{
				Changed:    true,
				Action:     rds.ActionCreate,
				InstanceID: "new-id",
				Status:     rds.StatusBuild,
				Message:    "instance created",
			}
		})

		It("should add the finalizer and pass the root password", func() {
			_, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())

			updated := &rdsv1alpha1.RDSInstance{}
			Expect(k8sClient.Get(ctx, key, updated)).To(Succeed())
			Expect(updated.Finalizers).To(ContainElement(rdsFinalizerName))

			Expect(useCase.applied).To(HaveLen(1))
			Expect(useCase.applied[0].RootPassword).To(Equal("Secret-123"))
			Expect(useCase.applied[0].State).To(Equal(rds.StatePresent))
			Expect(factory.config.IgnoreFields).To(ConsistOf("backupStrategy.*"))
		})

		It("should record the pending status and requeue quickly", func() {
			res, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RequeueAfter).To(Equal(30 * time.Second))

			updated := &rdsv1alpha1.RDSInstance{}
			Expect(k8sClient.Get(ctx, key, updated)).To(Succeed())
			Expect(updated.Status.InstanceID).To(Equal("new-id"))
			Expect(updated.Status.Ready).To(BeFalse())
			Expect(updated.Status.LastAction).To(Equal("create"))

			cond := meta.FindStatusCondition(updated.Status.Conditions, "Ready")
			Expect(cond).NotTo(BeNil())
			Expect(cond.Reason).To(Equal("InstanceCreating"))

			Expect(events.Events).To(Receive(ContainSubstring("Created")))
		})
	})

	Context("when the instance is converged", func() {
		It("should mark the instance ready", func() {
			useCase.result = &rds.Result{
				Action:     rds.ActionNoOp,
				InstanceID: "8f3",
				Status:     rds.StatusActive,
				Message:    "instance is up to date",
				Instance: &rds.RemoteInstance{
					ID:       "8f3",
					FlavorID: "F1",
					Volume:   rds.Volume{Type: "COMMON", Size: 100},
					Hostname: "192.168.0.10",
					Port:     3306,
				},
			}

			res, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RequeueAfter).To(Equal(5 * time.Minute))

			updated := &rdsv1alpha1.RDSInstance{}
			Expect(k8sClient.Get(ctx, key, updated)).To(Succeed())
			Expect(updated.Status.Ready).To(BeTrue())
			Expect(updated.Status.Hostname).To(Equal("192.168.0.10"))
			Expect(updated.Status.VolumeSize).To(Equal(100))
			Expect(events.Events).NotTo(Receive())
		})
	})

	Context("when an immutable field changed", func() {
		It("should report the drift without returning an error", func() {
			useCase.err = &drift.ImmutableFieldError{Changes: []drift.Change{
				{Field: "volume.type", Old: "COMMON", New: "ULTRAHIGH", Mutability: drift.Immutable},
			}}

			res, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RequeueAfter).To(Equal(5 * time.Minute))

			updated := &rdsv1alpha1.RDSInstance{}
			Expect(k8sClient.Get(ctx, key, updated)).To(Succeed())
			Expect(updated.Status.Drift).To(ConsistOf(rdsv1alpha1.DriftDetail{
				Field:      "volume.type",
				Expected:   "ULTRAHIGH",
				Actual:     "COMMON",
				Mutability: "immutable",
			}))

			cond := meta.FindStatusCondition(updated.Status.Conditions, "Ready")
			Expect(cond).NotTo(BeNil())
			Expect(cond.Reason).To(Equal("ImmutableFieldChanged"))
			Expect(events.Events).To(Receive(ContainSubstring("SyncFailed")))
		})
	})

	Context("when the transport fails", func() {
		It("should return the error for a retry", func() {
			useCase.err = errors.New("connection refused")

			_, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).To(MatchError("connection refused"))
		})
	})

	Context("when the provider is not ready", func() {
		It("should requeue without applying", func() {
			factory.err = errors.New("OTCProvider otc is not ready")

			res, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.RequeueAfter).To(Equal(time.Minute))
			Expect(useCase.applied).To(BeEmpty())
		})
	})

	Context("when the CR is deleted", func() {
		BeforeEach(func() {
			useCase.result = &rds.Result{Changed: true, Action: rds.ActionNoOp}
			_, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())
			useCase.applied = nil

			current := &rdsv1alpha1.RDSInstance{}
			Expect(k8sClient.Get(ctx, key, current)).To(Succeed())
			Expect(k8sClient.Delete(ctx, current)).To(Succeed())
		})

		It("should delete the OTC instance and release the CR", func() {
			useCase.result = &rds.Result{Changed: true, Action: rds.ActionDelete, Message: "instance deleted"}

			_, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).NotTo(HaveOccurred())

			Expect(useCase.applied).To(HaveLen(1))
			Expect(useCase.applied[0].State).To(Equal(rds.StateAbsent))

			err = k8sClient.Get(ctx, key, &rdsv1alpha1.RDSInstance{})
			Expect(apierrors.IsNotFound(err)).To(BeTrue())
		})

		It("should keep the finalizer when deletion fails", func() {
			useCase.err = errors.New("boom")

			_, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
			Expect(err).To(HaveOccurred())

			current := &rdsv1alpha1.RDSInstance{}
			Expect(k8sClient.Get(ctx, key, current)).To(Succeed())
			Expect(current.Finalizers).To(ContainElement(rdsFinalizerName))
		})
	})

	Context("when the CR does not exist", func() {
		It("should ignore the request", func() {
			_, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: types.NamespacedName{Name: "gone", Namespace: "default"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(useCase.applied).To(BeEmpty())
		})
	})
})
