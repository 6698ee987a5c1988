package controllers

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
)

type fakeVerifier struct {
	err error
}

func (f *fakeVerifier) Verify(_ context.Context, _ *rdsv1alpha1.OTCProvider) error {
	return f.err
}

var _ = Describe("OTCProvider Controller", func() {
	var (
		ctx        context.Context
		k8sClient  client.Client
		verifier   *fakeVerifier
		reconciler *OTCProviderReconciler
		key        types.NamespacedName
	)

	BeforeEach(func() {
		ctx = context.Background()
		key = types.NamespacedName{Name: "otc", Namespace: "default"}

		provider := &rdsv1alpha1.OTCProvider{
			ObjectMeta: metav1.ObjectMeta{Name: key.Name, Namespace: key.Namespace},
			Spec:       rdsv1alpha1.OTCProviderSpec{Region: "eu-de"},
		}

		verifier = &fakeVerifier{}
		k8sClient = fake.NewClientBuilder().
			WithScheme(testScheme).
			WithObjects(provider).
			WithStatusSubresource(&rdsv1alpha1.OTCProvider{}).
			Build()

		reconciler = &OTCProviderReconciler{
			Client:   k8sClient,
			Scheme:   testScheme,
			Verifier: verifier,
		}
	})

	It("should mark an authenticating provider ready", func() {
		res, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.RequeueAfter).To(Equal(5 * time.Minute))

		updated := &rdsv1alpha1.OTCProvider{}
		Expect(k8sClient.Get(ctx, key, updated)).To(Succeed())
		Expect(updated.Status.Ready).To(BeTrue())
		Expect(updated.Status.LastAuthenticationTime).NotTo(BeNil())
		Expect(meta.IsStatusConditionTrue(updated.Status.Conditions, "Ready")).To(BeTrue())
	})

	It("should report authentication failures", func() {
		verifier.err = errors.New("The request you have made requires authentication.")

		res, err := reconciler.Reconcile(ctx, ctrl.Request{NamespacedName: key})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.RequeueAfter).To(Equal(time.Minute))

		updated := &rdsv1alpha1.OTCProvider{}
		Expect(k8sClient.Get(ctx, key, updated)).To(Succeed())
		Expect(updated.Status.Ready).To(BeFalse())

		cond := meta.FindStatusCondition(updated.Status.Conditions, "Ready")
		Expect(cond).NotTo(BeNil())
		Expect(cond.Reason).To(Equal("AuthenticationFailed"))
		Expect(cond.Message).To(ContainSubstring("requires authentication"))
	})
})
