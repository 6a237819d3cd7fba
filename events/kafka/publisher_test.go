package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type testWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (x *testWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if x.err != nil {
		return x.err
	}
	x.msgs = append(x.msgs, msgs...)
	return nil
}

func (x *testWriter) Close() error {
	x.closed = true
	return nil
}

func TestPublisher(t *testing.T) {
	w := new(testWriter)
	p := &Publisher{writer: w}

	require.NoError(t, p.Publish(context.Background(), nil))
	require.Empty(t, w.msgs)

	events := []state.NotificationEvent{
		{
			ScriptHash: util.Uint160{1},
			Name:       "Credit",
			Item:       stackitem.NewArray([]stackitem.Item{stackitem.NewByteArray([]byte{2}), stackitem.Make(50)}),
		},
		{
			ScriptHash: util.Uint160{1},
			Name:       "SendCoins",
			Item:       stackitem.NewArray([]stackitem.Item{stackitem.Make(100)}),
		},
	}

	require.NoError(t, p.Publish(context.Background(), events))
	require.Len(t, w.msgs, 2)
	require.Equal(t, []byte("Credit"), w.msgs[0].Key)
	require.Equal(t, []byte("SendCoins"), w.msgs[1].Key)

	var decoded state.NotificationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	require.Equal(t, events[0].ScriptHash, decoded.ScriptHash)
	require.Equal(t, events[0].Name, decoded.Name)

	w.err = errors.New("leader not available")
	require.ErrorIs(t, p.Publish(context.Background(), events), w.err)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestNewPublisher(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	require.Equal(t, DefaultTopic, w.Topic)
}
