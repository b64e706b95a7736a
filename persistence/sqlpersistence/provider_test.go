package sqlpersistence_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/procession/persistence"
	. "github.com/dogmatiq/procession/persistence/sqlpersistence"
	"github.com/dogmatiq/procession/persistence/sqlpersistence/sqlite"
	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Provider (using the SQLite driver)", func() {
	var (
		ctx      context.Context
		db       *sql.DB
		provider *Provider
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)
		DeferCleanup(cancel)

		var err error
		db, err = sql.Open("sqlite3", ":memory:")
		Expect(err).ShouldNot(HaveOccurred())
		DeferCleanup(db.Close)

		// The in-memory SQLite database is scoped to a single connection.
		db.SetMaxOpenConns(1)

		Expect(sqlite.Driver.CreateSchema(ctx, db)).ShouldNot(HaveOccurred())

		provider = &Provider{
			DB: db,
		}
	})

	Describe("func Open()", func() {
		It("detects the SQLite driver", func() {
			ds, err := provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			DeferCleanup(ds.Close)
		})

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
	})

	Describe("type dataStore", func() {
		var repo persistence.SnapshotRepository

		BeforeEach(func() {
			ds, err := provider.Open(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			DeferCleanup(ds.Close)

			repo = ds.SnapshotRepository()
		})

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

		It("keeps the snapshots of different applications separate", func() {
			other, err := provider.Open(ctx, "<other-app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			DeferCleanup(other.Close)

			err = repo.SaveSnapshot(ctx, persistence.Snapshot{
				SourceID: "<source>",
				Version:  1,
			})
			Expect(err).ShouldNot(HaveOccurred())

			_, ok, err := other.SnapshotRepository().LoadSnapshot(ctx, "<source>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

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

		It("returns an error if the data-store is closed", func() {
			ds, err := provider.Open(ctx, "<closed-app-key>")
			Expect(err).ShouldNot(HaveOccurred())

			r := ds.SnapshotRepository()
			Expect(ds.Close()).ShouldNot(HaveOccurred())

			_, _, err = r.LoadSnapshot(ctx, "<source>")
			Expect(err).To(Equal(persistence.ErrDataStoreClosed))
		})
	})
})
