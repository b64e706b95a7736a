package persistence_test

import (
	"context"
	"errors"
	"time"

	. "github.com/dogmatiq/procession/fixtures"
	. "github.com/dogmatiq/procession/persistence"
	"github.com/dogmatiq/procession/persistence/memorypersistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type DataStoreSet", func() {
	var (
		ctx      context.Context
		provider *ProviderStub
		set      *DataStoreSet
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 1*time.Second)
		DeferCleanup(cancel)

		provider = &ProviderStub{
			Provider: &memorypersistence.Provider{},
		}

		set = &DataStoreSet{
			Provider: provider,
		}

		DeferCleanup(set.Close)
	})

	Describe("func Get()", func() {
		It("opens a data-store", func() {
			ds, err := set.Get(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ds).NotTo(BeNil())
		})

		It("returns the same data-store on subsequent calls", func() {
			ds1, err := set.Get(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())

			ds2, err := set.Get(ctx, "<app-key>")
			Expect(err).ShouldNot(HaveOccurred())

			Expect(ds1).To(BeIdenticalTo(ds2))
		})

		It("returns an error if the provider can not open the data-store", func() {
			provider.OpenFunc = func(
				context.Context,
				string,
			) (DataStore, error) {
				return nil, errors.New("<error>")
			}

			_, err := set.Get(ctx, "<app-key>")
			Expect(err).To(MatchError("<error>"))
		})
	})
})
