package procession_test

import (
	"context"
	"time"

	. "github.com/dogmatiq/procession"
	"github.com/dogmatiq/procession/commandbus"
	. "github.com/dogmatiq/procession/fixtures"
	"github.com/dogmatiq/procession/process"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Engine", func() {
	var (
		ctx        context.Context
		cancelRun  context.CancelFunc
		definition *DefinitionStub
		bus        *commandbus.Bus
		engine     *Engine
		result     chan error
	)

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)
		DeferCleanup(cancel)

		definition = &DefinitionStub{
			ApplyFunc: AppendValue,
			HandleFunc: func(
				_ process.State,
				ev process.Message,
			) ([]process.Command, error) {
				return []process.Command{
					CommandStub{Value: ev.(EventStub).Value},
				}, nil
			},
		}

		bus = &commandbus.Bus{}

		engine = New(
			WithProcessManager("<workflow>", definition),
			WithDispatcher(bus),
		)

		var runCtx context.Context
		runCtx, cancelRun = context.WithCancel(ctx)
		DeferCleanup(cancelRun)

		result = make(chan error, 1)
		go func() {
			result <- engine.Run(runCtx)
		}()
	})

	Describe("func RouteEvent()", func() {
		It("routes events to workflow instances which dispatch via the engine's dispatcher", func() {
			type dispatched struct {
				Command process.Command
				Options process.DispatchOptions
			}

			var commands []dispatched
			bus.RegisterHandler(
				CommandStub{},
				func(
					_ context.Context,
					c process.Command,
					opts process.DispatchOptions,
				) error {
					commands = append(commands, dispatched{c, opts})
					return nil
				},
			)

			id := uuid.NewString()

			err := engine.RouteEvent(ctx, "<workflow>", id, NewEvent("<event-1>", 1, "<value-1>"))
			Expect(err).ShouldNot(HaveOccurred())

			Expect(commands).To(Equal([]dispatched{
				{
					Command: CommandStub{Value: "<value-1>"},
					Options: process.DispatchOptions{
						CausationID:   "<event-1>",
						CorrelationID: "<correlation>",
					},
				},
			}))
		})

		It("returns an error if the workflow is not hosted by the engine", func() {
			err := engine.RouteEvent(ctx, "<unknown>", uuid.NewString(), NewEvent("<event-1>", 1, "<value-1>"))
			Expect(err).To(MatchError(ContainSubstring("<unknown>")))
		})
	})

	Describe("func StopInstance()", func() {
		It("ends the workflow instance", func() {
			bus.RegisterHandler(
				CommandStub{},
				func(
					context.Context,
					process.Command,
					process.DispatchOptions,
				) error {
					return nil
				},
			)

			id := uuid.NewString()

			err := engine.RouteEvent(ctx, "<workflow>", id, NewEvent("<event-1>", 1, "<value-1>"))
			Expect(err).ShouldNot(HaveOccurred())

			err = engine.StopInstance(ctx, "<workflow>", id)
			Expect(err).ShouldNot(HaveOccurred())

			// The instance starts fresh, so the same event is handled
			// again rather than being deduplicated.
			err = engine.RouteEvent(ctx, "<workflow>", id, NewEvent("<event-1>", 1, "<value-1>"))
			Expect(err).ShouldNot(HaveOccurred())
		})
	})

	Describe("func Run()", func() {
		It("returns when the context is canceled", func() {
			cancelRun()

			Expect(<-result).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("func New()", func() {
	It("panics if no workflows are registered", func() {
		Expect(func() {
			New(
				WithDispatcher(&commandbus.Bus{}),
			)
		}).To(Panic())
	})

	It("panics if no dispatcher is configured", func() {
		Expect(func() {
			New(
				WithProcessManager("<workflow>", &DefinitionStub{}),
			)
		}).To(Panic())
	})

	It("panics if two workflows share a name", func() {
		Expect(func() {
			New(
				WithProcessManager("<workflow>", &DefinitionStub{}),
				WithProcessManager("<workflow>", &DefinitionStub{}),
				WithDispatcher(&commandbus.Bus{}),
			)
		}).To(Panic())
	})
})
