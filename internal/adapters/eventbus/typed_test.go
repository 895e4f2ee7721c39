package eventbus

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreUpdate struct {
	Home, Away int
}

func TestTyped_DeliversMatchingPayload(t *testing.T) {
	reg := newTestRegistry()

	var got scoreUpdate
	reg.Subscribe(&ownerA{}, "score", Typed(func(_ string, s scoreUpdate) {
		got = s
	}))

	_, err := reg.Publish("score", scoreUpdate{Home: 2, Away: 1})
	require.NoError(t, err)
	assert.Equal(t, scoreUpdate{Home: 2, Away: 1}, got)
}

func TestTyped_RejectsOtherPayloads(t *testing.T) {
	reg := newTestRegistry()

	called := false
	reg.Subscribe(&ownerA{}, "score", Typed(func(string, scoreUpdate) {
		called = true
	}))

	pub, err := reg.Publish("score", "2-1")
	require.Error(t, err)
	assert.False(t, called)
	require.Len(t, pub.Failures, 1)

	typeErr, ok := pub.Failures[0].Recovered.(*PayloadTypeError)
	require.True(t, ok, "expected a *PayloadTypeError, got %T", pub.Failures[0].Recovered)
	assert.Equal(t, "score", typeErr.Event)
	assert.Equal(t, "eventbus.scoreUpdate", typeErr.Want)
	assert.Contains(t, typeErr.Error(), "string")
}

func TestTyped_NilPayloadForInterfaceTypes(t *testing.T) {
	reg := newTestRegistry()

	anyCalled, stringerCalled := false, false
	var gotAny any = "unset"
	var gotStringer fmt.Stringer

	reg.Subscribe(&ownerA{}, "E", Typed(func(_ string, p any) {
		anyCalled = true
		gotAny = p
	}))
	reg.Subscribe(&ownerB{}, "E", Typed(func(_ string, p fmt.Stringer) {
		stringerCalled = true
		gotStringer = p
	}))

	pub, err := reg.Publish("E", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, pub.Delivered)
	assert.Empty(t, pub.Failures)

	assert.True(t, anyCalled)
	assert.Nil(t, gotAny)
	assert.True(t, stringerCalled)
	assert.Nil(t, gotStringer)
}

func TestTyped_NilPayloadForConcreteTypeFails(t *testing.T) {
	reg := newTestRegistry()

	called := false
	reg.Subscribe(&ownerA{}, "score", Typed(func(string, scoreUpdate) {
		called = true
	}))

	pub, err := reg.Publish("score", nil)
	require.Error(t, err)
	assert.False(t, called)
	require.Len(t, pub.Failures, 1)
	_, ok := pub.Failures[0].Recovered.(*PayloadTypeError)
	assert.True(t, ok)
}
