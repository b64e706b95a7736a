package memorypersistence_test

import (
	"context"
	"time"

	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/procession/persistence"
	. "github.com/dogmatiq/procession/persistence/memorypersistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Provider", func() {
	var (
		ctx      context.Context
		provider *Provider
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 1*time.Second)
		DeferCleanup(cancel)

		provider = &Provider{}
	})

	Describe("func Open()", func() {
		It("returns an error if the application's data-store is already open", func() {
			ds, err := provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			DeferCleanup(ds.Close)

			_, err = provider.Open(ctx, "<app-key>")
			Expect(err).To(Equal(persistence.ErrDataStoreLocked))
		})

		It("allows re-opening a closed data-store", func() {
			ds, err := provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ds.Close()).ShouldNot(HaveOccurred())

			ds, err = provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			DeferCleanup(ds.Close)
		})

		It("retains data across a close and re-open", func() {
			ds, err := provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())

			err = ds.SnapshotRepository().SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
				Version:  1,
			})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ds.Close()).ShouldNot(HaveOccurred())

			ds, err = provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			DeferCleanup(ds.Close)

			_, ok, err := ds.SnapshotRepository().LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})
})

var _ = Describe("type dataStore", func() {
	var (
		ctx       context.Context
		dataStore persistence.DataStore
		repo      persistence.SnapshotRepository
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 1*time.Second)
		DeferCleanup(cancel)

		var err error
		dataStore, err = (&Provider{}).Open(ctx, "<app-key>")
		Expect(err).ShouldNot(HaveOccurred())

		repo = dataStore.SnapshotRepository()
	})

	Describe("func LoadSnapshot()", func() {
		It("returns ok == false if no snapshot has been saved", func() {
			_, ok, err := repo.LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("round-trips a saved snapshot", func() {
			expect := persistence.Snapshot{
				SourceID:   "<source>",
				Version:    3,
				SourceType: "<type>",
				Packet: marshalkit.Packet{
					MediaType: "<media-type>",
					Data:      []byte("<data>"),
				},
			}

			err := repo.SaveSnapshot(ctx, expect)
			Expect(err).ShouldNot(HaveOccurred())

			sn, ok, err := repo.LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(sn).To(Equal(expect))
		})

		It("does not share packet data with the caller", func() {
			err := repo.SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
				Packet: marshalkit.Packet{
					Data: []byte("<data>"),
				},
			})
			Expect(err).ShouldNot(HaveOccurred())

			sn, _, err := repo.LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())

			sn.Packet.Data[0] = 'X'

			sn, _, err = repo.LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(sn.Packet.Data).To(Equal([]byte("<data>")))
		})

		It("returns an error if the data-store is closed", func() {
			Expect(dataStore.Close()).ShouldNot(HaveOccurred())

			_, _, err := repo.LoadSnapshot(ctx, "<source>")
			Expect(err).To(Equal(persistence.ErrDataStoreClosed))
		})
	})

	Describe("func SaveSnapshot()", func() {
		It("replaces an existing snapshot", func() {
			err := repo.SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
				Version:  1,
			})
			Expect(err).ShouldNot(HaveOccurred())

			err = repo.SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
				Version:  2,
			})
			Expect(err).ShouldNot(HaveOccurred())

			sn, ok, err := repo.LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(sn.Version).To(BeEquivalentTo(2))
		})

		It("returns an error if the data-store is closed", func() {
			Expect(dataStore.Close()).ShouldNot(HaveOccurred())

			err := repo.SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
			})
			Expect(err).To(Equal(persistence.ErrDataStoreClosed))
		})
	})

	Describe("func RemoveSnapshot()", func() {
		It("removes a saved snapshot", func() {
			err := repo.SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
			})
			Expect(err).ShouldNot(HaveOccurred())

			err = repo.RemoveSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())

			_, ok, err := repo.LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("does nothing if no snapshot has been saved", func() {
			err := repo.RemoveSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
		})
	})

	Describe("func Close()", func() {
		It("returns an error if the data-store is already closed", func() {
			Expect(dataStore.Close()).ShouldNot(HaveOccurred())
			Expect(dataStore.Close()).To(Equal(persistence.ErrDataStoreClosed))
		})
	})
})
