package fixtures

import (
	"reflect"

	"github.com/dogmatiq/marshalkit"
	"github.com/dogmatiq/marshalkit/codec"
	"github.com/dogmatiq/marshalkit/codec/json"
)

// Marshaler is a marshaler that can marshal the stub types in this package.
var Marshaler = newMarshaler()

func newMarshaler() marshalkit.Marshaler {
	m, err := codec.NewMarshaler(
		[]reflect.Type{
			reflect.TypeOf(&StateStub{}),
			reflect.TypeOf(EventStub{}),
			reflect.TypeOf(CommandStub{}),
		},
		[]codec.Codec{
			&json.Codec{},
		},
	)
	if err != nil {
		panic(err)
	}

	return m
}
