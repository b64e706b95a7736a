package mlog_test

import (
	"errors"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/procession/eventstream"
	. "github.com/dogmatiq/procession/internal/mlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("message logging", func() {
	var (
		logger *logging.BufferedLogger
		ev     eventstream.Event
	)

	BeforeEach(func() {
		logger = &logging.BufferedLogger{}

		ev = eventstream.Event{
			ID:            "<event>",
			Offset:        1,
			CorrelationID: "<correlation>",
			Message:       "<payload>",
		}
	})

	Describe("func LogConsume()", func() {
		It("logs the event and its IDs", func() {
			LogConsume(logger, ev, 0)

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "= <event>  ⋲ <correlation>  ▼    string",
				},
			))
		})

		It("shows the retry icon when the event has failed before", func() {
			LogConsume(logger, ev, 2)

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "= <event>  ⋲ <correlation>  ▼ ↻  string",
				},
			))
		})
	})

	Describe("func LogEventFailure()", func() {
		It("logs the cause and the action taken", func() {
			LogEventFailure(logger, ev, errors.New("<cause>"), "<action>")

			Expect(logger.Messages()).To(ContainElement(
				logging.BufferedLogMessage{
					Message: "= <event>  ⋲ <correlation>  ▽ ✖  string ● <cause> ● <action>",
				},
			))
		})
	})
})
