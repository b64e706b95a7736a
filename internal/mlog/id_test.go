package mlog_test

import (
	. "github.com/dogmatiq/procession/internal/mlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func FormatID()", func() {
	It("truncates UUIDs to the first 8 characters", func() {
		id := FormatID("4d22ac1f-5e06-4a8f-9688-fcb8e9f8db9a")
		Expect(id).To(Equal("4d22ac1f"))
	})

	It("renders other IDs in full", func() {
		id := FormatID("<some-id>")
		Expect(id).To(Equal("<some-id>"))
	})
})
