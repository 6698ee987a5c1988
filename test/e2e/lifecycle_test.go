package e2e_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/pkg/core"
	"otc-rds-operator/pkg/drift"
)

func instanceManifest(flavor string, size int, volumeType string) string {
	return fmt.Sprintf(`
apiVersion: rds.otc-operator.io/v1alpha1
kind: RDSInstance
metadata:
  name: orders-db
  namespace: shop
spec:
  datastore:
    type: MySQL
    version: "8.0"
  flavor: %s
  volume:
    type: %s
    size: %d
  availabilityZone: eu-de-01
  vpc: vpc-e2e
  nics:
    subnetId: subnet-e2e
  securityGroup:
    id: sg-e2e
  backupStrategy:
    startTime: "01:00:00"
    keepDays: 7
  dbRtPd: Sup3r-Secret
`, flavor, volumeType, size)
}

func load(content string) []core.InstanceManifest {
	manifests, err := core.LoadManifests([]string{writeManifest(content)})
	Expect(err).NotTo(HaveOccurred())
	for i := range manifests.Instances {
		if manifests.Instances[i].Spec.Region == "" {
			manifests.Instances[i].Spec.Region = fakeRegion
		}
	}
	return manifests.Instances
}

var _ = Describe("RDSInstance lifecycle", Ordered, func() {
	var (
		engine *core.Engine
		state  *core.StateManager
	)

	BeforeAll(func() {
		otc.Reset()
		engine, state = newEngine(false)
	})

	It("plans a create for a missing instance", func() {
		plan, err := engine.Plan(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.ToCreate).To(HaveLen(1))
		Expect(plan.ToCreate[0].FlavorID).To(Equal(flavorID("mysql", "s1.medium")))

		creates, _, _ := otc.Counters()
		Expect(creates).To(BeZero())
	})

	It("creates the instance and records its state", func() {
		result, err := engine.Apply(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Err()).NotTo(HaveOccurred())
		Expect(result.Summary.Created).To(Equal(1))

		instances := otc.Instances()
		Expect(instances).To(HaveLen(1))
		Expect(instances[0].Name).To(HavePrefix("orders-db-MySQL-"))
		Expect(otc.Passwords()).To(Equal([]string{"Sup3r-Secret"}))

		saved, err := state.LoadState(ctx, core.KindRDSInstance, "shop", "orders-db")
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).NotTo(BeNil())
		Expect(saved.InstanceID).To(Equal(instances[0].ID))
		Expect(saved.Spec.RootPassword).To(BeEmpty())
		logTestInfo("instance created", "id", saved.InstanceID, "name", instances[0].Name)
	})

	It("is idempotent", func() {
		result, err := engine.Apply(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Unchanged).To(Equal(1))
		Expect(result.Changed()).To(BeFalse())

		creates, resizes, _ := otc.Counters()
		Expect(creates).To(Equal(1))
		Expect(resizes).To(BeEmpty())
	})

	It("resizes the flavor before the volume", func() {
		result, err := engine.Apply(ctx, load(instanceManifest("s1.large", 200, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Err()).NotTo(HaveOccurred())
		Expect(result.Summary.Resized).To(Equal(1))
		Expect(result.Items[0].Result.Resizes).To(Equal([]string{rds.FieldFlavor, rds.FieldVolumeSize}))

		_, resizes, _ := otc.Counters()
		Expect(resizes).To(Equal([]string{rds.FieldFlavor, rds.FieldVolumeSize}))

		instance := otc.Instances()[0]
		Expect(instance.Flavor.ID).To(Equal(flavorID("mysql", "s1.large")))
		Expect(instance.Volume.Size).To(Equal(200))
	})

	It("refuses to change an immutable field", func() {
		_, err := engine.Plan(ctx, load(instanceManifest("s1.large", 200, "ULTRAHIGH")))
		Expect(err).To(MatchError(drift.ErrImmutableField))
		Expect(err.Error()).To(ContainSubstring("volume.type"))

		result, err := engine.Apply(ctx, load(instanceManifest("s1.large", 200, "ULTRAHIGH")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Failed).To(Equal(1))

		_, resizes, _ := otc.Counters()
		Expect(resizes).To(HaveLen(2))
		Expect(otc.Instances()[0].Volume.Type).To(Equal("COMMON"))
	})

	It("reports a flavor the datastore does not offer", func() {
		_, err := engine.Plan(ctx, load(instanceManifest("m9.huge", 200, "COMMON")))
		Expect(err).To(MatchError(rds.ErrFlavorNotFound))
	})

	It("detects drift made outside the operator", func() {
		id := otc.Instances()[0].ID
		otc.Mutate(id, func(i *fakeInstance) {
			i.Flavor.ID = flavorID("mysql", "s1.medium")
		})

		plan, err := engine.Plan(ctx, load(instanceManifest("s1.large", 200, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(plan.ToResize).To(HaveLen(1))
		Expect(plan.ToResize[0].Changes).To(ConsistOf(
			fmt.Sprintf("flavor: %s -> %s", flavorID("mysql", "s1.medium"), flavorID("mysql", "s1.large")),
		))

		result, err := engine.Apply(ctx, load(instanceManifest("s1.large", 200, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Resized).To(Equal(1))
	})

	It("surfaces RDS backend timeouts", func() {
		otc.TimeoutOn("/instances")
		defer otc.Reset()

		result, err := engine.Apply(ctx, load(instanceManifest("s1.large", 200, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Failed).To(Equal(1))
		Expect(result.Items[0].Error).To(ContainSubstring("internal RDS API timeout"))
	})
})

var _ = Describe("RDSInstance deletion", Ordered, func() {
	var (
		engine *core.Engine
		state  *core.StateManager
	)

	BeforeAll(func() {
		otc.Reset()
		engine, state = newEngine(false)

		result, err := engine.Apply(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Created).To(Equal(1))
	})

	It("deletes the instance and forgets its state", func() {
		result, err := engine.Delete(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Deleted).To(Equal(1))

		Expect(otc.Instances()).To(BeEmpty())

		states, err := state.ListStates(ctx, core.KindRDSInstance)
		Expect(err).NotTo(HaveOccurred())
		Expect(states).To(BeEmpty())
	})

	It("treats an already absent instance as unchanged", func() {
		result, err := engine.Delete(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Unchanged).To(Equal(1))

		_, _, deletes := otc.Counters()
		Expect(deletes).To(Equal(1))
	})
})

var _ = Describe("Dry run", func() {
	BeforeEach(func() {
		otc.Reset()
	})

	It("plans without touching OTC", func() {
		engine, state := newEngine(true)

		result, err := engine.Apply(ctx, load(instanceManifest("s1.medium", 100, "COMMON")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Summary.Skipped).To(Equal(1))
		Expect(strings.HasPrefix(result.Items[0].Result.Message, "[dry-run]")).To(BeTrue())

		Expect(otc.Instances()).To(BeEmpty())
		states, err := state.ListStates(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(states).To(BeEmpty())
	})
})
