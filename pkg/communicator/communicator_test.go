package communicator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nxdnradio "github.com/evocount/nxdnradio"
	"github.com/evocount/nxdnradio/pkg/pickle"
)

type fakeSender struct {
	calls   int
	results []bool
	errs    []error
}

func (f *fakeSender) SendEncoded(ctx context.Context, target nxdnradio.UnitID, encoded []byte) (bool, error) {
	i := f.calls
	f.calls++
	var ok bool
	var err error
	if i < len(f.results) {
		ok = f.results[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return ok, err
}

func target(t *testing.T) nxdnradio.UnitID {
	id, err := nxdnradio.ParseUnitID("00006")
	require.NoError(t, err)
	return id
}

// statusCapableSender implements both Sender and StatusSender, the shape
// *radio.Radio satisfies end-to-end.
type statusCapableSender struct {
	fakeSender
	statusCalls int
	lastStatus  []byte
}

func (f *statusCapableSender) SendStatus(ctx context.Context, target nxdnradio.UnitID, status []byte) (bool, error) {
	f.statusCalls++
	f.lastStatus = status
	return true, nil
}

func TestSendStatusRequiresCapableSender(t *testing.T) {
	c := New(&fakeSender{}, DefaultConfig())
	_, err := c.SendStatus(context.Background(), target(t), []byte("busy"))
	assert.ErrorIs(t, err, nxdnradio.ErrIllegalArgument)
}

func TestSendStatusForwardsToCapableSender(t *testing.T) {
	sender := &statusCapableSender{}
	c := New(sender, DefaultConfig())
	ok, err := c.SendStatus(context.Background(), target(t), []byte("busy"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, sender.statusCalls)
	assert.Equal(t, "busy", string(sender.lastStatus))
}

func TestStatusQueueWiredFromSource(t *testing.T) {
	c := New(&fakeSender{}, DefaultConfig())
	assert.Nil(t, c.StatusQueue())

	src := make(chan nxdnradio.InboundStatus, 1)
	c.WithStatusSource(src)
	src <- nxdnradio.InboundStatus{Peer: target(t), Status: []byte("ok")}

	select {
	case rec := <-c.StatusQueue():
		assert.Equal(t, "ok", string(rec.Status))
	default:
		t.Fatal("expected status record on wired queue")
	}
}

func TestSendHappyPath(t *testing.T) {
	sender := &fakeSender{results: []bool{true}}
	c := New(sender, DefaultConfig())
	ok, err := c.Send(context.Background(), target(t), map[string]any{"k": 1}, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, sender.calls)
}

func TestSendConfirmationTimeoutReturnsFalseNotError(t *testing.T) {
	sender := &fakeSender{errs: []error{nxdnradio.ErrConfirmationTimeout}}
	c := New(sender, DefaultConfig())
	ok, err := c.Send(context.Background(), target(t), map[string]any{}, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendPayloadTooLarge(t *testing.T) {
	sender := &fakeSender{}
	c := New(sender, DefaultConfig())
	// Pseudo-random bytes so compression cannot shrink the pickled size
	// back under MaxSize.
	big := make([]byte, nxdnradio.MaxSize)
	x := uint32(1)
	for i := range big {
		x = x*1664525 + 1013904223
		big[i] = byte(x >> 24)
	}
	_, err := c.Send(context.Background(), target(t), big, nil)
	assert.ErrorIs(t, err, nxdnradio.ErrPayloadTooLarge)
	assert.Equal(t, 0, sender.calls)
}

func TestSendRetryPolicyExhausted(t *testing.T) {
	sender := &fakeSender{errs: []error{
		nxdnradio.ErrConfirmationTimeout,
		nxdnradio.ErrConfirmationTimeout,
		nxdnradio.ErrConfirmationTimeout,
	}}
	cfg := DefaultConfig()
	cfg.RetrySending = true
	cfg.MaxRetries = 2
	cfg.RetryMinDelay = time.Millisecond
	cfg.RetryMaxDelay = 2 * time.Millisecond
	c := New(sender, cfg)
	_, err := c.Send(context.Background(), target(t), map[string]any{}, nil)
	assert.ErrorIs(t, err, nxdnradio.ErrSendMaxRetries)
	assert.Equal(t, 3, sender.calls)
}

func TestSendHardErrorStopsImmediately(t *testing.T) {
	sender := &fakeSender{errs: []error{errors.New("boom")}}
	c := New(sender, DefaultConfig())
	_, err := c.Send(context.Background(), target(t), map[string]any{}, nil)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, 1, sender.calls)
}

func TestRunRoutesMultiChunkMessageToTopic(t *testing.T) {
	sender := &fakeSender{}
	c := New(sender, Config{Listeners: []string{"about-you"}, Compression: true, ReceiveTimeout: time.Second})

	codec := pickle.NewCodec(true)
	encoded, err := codec.PickleEnvelope(7, map[string]any{"trigger": "about-you"}, map[string]any{"x": float64(1)})
	require.NoError(t, err)

	chunks := splitForTest(encoded, 5)
	peer := target(t)
	inbound := make(chan nxdnradio.InboundData, len(chunks))
	for _, chunk := range chunks {
		inbound <- nxdnradio.InboundData{Peer: peer, Data: chunk}
	}
	close(inbound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Run(ctx, inbound)

	queue, err := c.GetListenerQueue("about-you")
	require.NoError(t, err)
	select {
	case msg := <-queue:
		assert.Equal(t, 7, msg.Counter)
		assert.Equal(t, peer, msg.Peer)
	case <-time.After(time.Second):
		t.Fatal("expected a routed message on the topic queue")
	}
}

func TestRunRoutesToTargetQueueWhenNoTrigger(t *testing.T) {
	sender := &fakeSender{}
	c := New(sender, DefaultConfig())

	codec := pickle.NewCodec(true)
	encoded, err := codec.PickleEnvelope(1, nil, map[string]any{"x": float64(2)})
	require.NoError(t, err)

	peer := target(t)
	inbound := make(chan nxdnradio.InboundData, 1)
	inbound <- nxdnradio.InboundData{Peer: peer, Data: append([]byte("json"), append(encoded, []byte("json")...)...)}
	close(inbound)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.Run(ctx, inbound)

	queue := c.GetTargetQueue(peer)
	select {
	case msg := <-queue:
		assert.Equal(t, 1, msg.Counter)
	case <-time.After(time.Second):
		t.Fatal("expected a routed message on the target queue")
	}
}

func TestGetListenerQueueNotDefined(t *testing.T) {
	c := New(&fakeSender{}, DefaultConfig())
	_, err := c.GetListenerQueue("nope")
	assert.ErrorIs(t, err, nxdnradio.ErrListenerNotDefined)
}

// splitForTest builds the json…json chunk envelope the way the sender does,
// at a small chunk size to exercise multi-chunk reassembly.
func splitForTest(encoded []byte, size int) [][]byte {
	var chunks [][]byte
	for offset := 0; offset < len(encoded); offset += size {
		end := offset + size
		if end > len(encoded) {
			end = len(encoded)
		}
		chunks = append(chunks, encoded[offset:end])
	}
	if len(chunks) == 0 {
		chunks = [][]byte{{}}
	}
	chunks[0] = append([]byte("json"), chunks[0]...)
	last := len(chunks) - 1
	chunks[last] = append(chunks[last], []byte("json")...)
	return chunks
}
