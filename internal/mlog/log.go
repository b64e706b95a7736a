package mlog

import (
	"fmt"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/procession/eventstream"
)

// LogConsume logs a message indicating that an event is being consumed by a
// workflow instance.
//
// fc is the number of times the event has already failed.
func LogConsume(
	log logging.Logger,
	ev eventstream.Event,
	fc uint,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(ev.ID),
				CorrelationIDIcon.WithID(ev.CorrelationID),
			},
			[]Icon{
				ConsumeIcon,
				retryIcon(fc),
			},
			describe(ev.Message),
		),
	)
}

// LogDuplicate logs a message indicating that an event has been dropped
// because it was already applied to the workflow instance.
func LogDuplicate(
	log logging.Logger,
	ev eventstream.Event,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(ev.ID),
				CorrelationIDIcon.WithID(ev.CorrelationID),
			},
			[]Icon{
				ConsumeIcon,
				"",
			},
			describe(ev.Message),
			"event already applied",
		),
	)
}

// LogProduce logs a message indicating that a command is being dispatched
// as a result of an event.
func LogProduce(
	log logging.Logger,
	ev eventstream.Event,
	c interface{},
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				CausationIDIcon.WithID(ev.ID),
				CorrelationIDIcon.WithID(ev.CorrelationID),
			},
			[]Icon{
				ProduceIcon,
				"",
			},
			describe(c),
		),
	)
}

// LogEventFailure logs a message indicating that a workflow definition
// could not handle an event. action describes how the instance proceeds.
func LogEventFailure(
	log logging.Logger,
	ev eventstream.Event,
	cause error,
	action string,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithID(ev.ID),
				CorrelationIDIcon.WithID(ev.CorrelationID),
			},
			[]Icon{
				ConsumeErrorIcon,
				ErrorIcon,
			},
			describe(ev.Message),
			cause.Error(),
			action,
		),
	)
}

// LogCommandFailure logs a message indicating that a command produced by a
// workflow instance could not be dispatched. action describes how the
// instance proceeds.
func LogCommandFailure(
	log logging.Logger,
	ev eventstream.Event,
	c interface{},
	cause error,
	action string,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				CausationIDIcon.WithID(ev.ID),
				CorrelationIDIcon.WithID(ev.CorrelationID),
			},
			[]Icon{
				ProduceErrorIcon,
				ErrorIcon,
			},
			describe(c),
			cause.Error(),
			action,
		),
	)
}

// LogStop logs a message indicating that a workflow instance is stopping.
func LogStop(
	log logging.Logger,
	id string,
	reason error,
) {
	text := []string{"instance stopped"}
	if reason != nil {
		text = append(text, reason.Error())
	}

	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				ProcessIcon.WithLabel("%s", FormatID(id)),
			},
			[]Icon{
				SystemIcon,
				"",
			},
			text...,
		),
	)
}

// retryIcon returns the icon to use alongside ConsumeIcon to indicate how
// many times an event has failed.
func retryIcon(n uint) Icon {
	if n == 0 {
		return ""
	}

	return RetryIcon
}

// describe returns a human-readable description of an application-defined
// message.
func describe(m interface{}) string {
	return fmt.Sprintf("%T", m)
}
