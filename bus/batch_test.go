package bus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrySendVTakesWhatFits(t *testing.T) {
	t.Parallel()
	_, b := newTestBus(t)
	d := b.Open(3)
	n, err := b.TrySendV(d, []uint32{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	buf := make([]uint32, 5)
	n, err = b.TryRecvV(d, buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, buf[:n])
}

func TestTrySendVOnFullChannel(t *testing.T) {
	t.Parallel()
	_, b := newTestBus(t)
	d := b.Open(2)
	n, err := b.TrySendV(d, []uint32{1, 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = b.TrySendV(d, []uint32{3})
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Zero(t, n)
	assert.ErrorIs(t, b.LastError(), ErrWouldBlock)
}

func TestTryRecvVOnEmptyChannel(t *testing.T) {
	t.Parallel()
	_, b := newTestBus(t)
	d := b.Open(2)
	n, err := b.TryRecvV(d, make([]uint32, 4))
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.Zero(t, n)
}

func TestTryRecvVTakesFromHead(t *testing.T) {
	t.Parallel()
	_, b := newTestBus(t)
	d := b.Open(5)
	_, err := b.TrySendV(d, []uint32{1, 2, 3, 4})
	require.NoError(t, err)

	buf := make([]uint32, 3)
	n, err := b.TryRecvV(d, buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, buf[:n])
	v, err := b.TryRecv(d)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), v)
}

func TestSendVCompletesAcrossWaits(t *testing.T) {
	t.Parallel()
	s, b := newTestBus(t)
	d := b.Open(2)
	values := []uint32{1, 2, 3, 4, 5}
	var sent int
	s.Go(func(_ context.Context) error {
		n, err := b.SendV(d, values)
		sent = n
		return err
	})
	var got []uint32
	s.Go(func(_ context.Context) error {
		for range values {
			v, err := b.Recv(d)
			if err != nil {
				return err
			}
			got = append(got, v)
		}
		return nil
	})
	require.NoError(t, s.Run())
	assert.Equal(t, len(values), sent)
	assert.Equal(t, values, got)
}

func TestSendVReportsProgressWhenClosed(t *testing.T) {
	t.Parallel()
	s, b := newTestBus(t)
	d := b.Open(2)
	s.Go(func(_ context.Context) error {
		n, err := b.SendV(d, []uint32{1, 2, 3, 4, 5})
		assert.ErrorIs(t, err, ErrNoChannel)
		assert.Equal(t, 2, n)
		return nil
	})
	s.Go(func(_ context.Context) error {
		return b.Close(d)
	})
	require.NoError(t, s.Run())
}

func TestSendVWithNothingToSend(t *testing.T) {
	t.Parallel()
	_, b := newTestBus(t)
	d := b.Open(0)
	n, err := b.SendV(d, nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
	_, err = b.SendV(d+1, nil)
	assert.ErrorIs(t, err, ErrNoChannel)
}

func TestRecvVFillsTheBuffer(t *testing.T) {
	t.Parallel()
	s, b := newTestBus(t)
	d := b.Open(1)
	buf := make([]uint32, 4)
	var received int
	s.Go(func(_ context.Context) error {
		n, err := b.RecvV(d, buf)
		received = n
		return err
	})
	s.Go(func(_ context.Context) error {
		for v := uint32(10); v < 14; v++ {
			if err := b.Send(d, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, s.Run())
	assert.Equal(t, 4, received)
	assert.Equal(t, []uint32{10, 11, 12, 13}, buf)
}

func TestRecvVReportsProgressWhenClosed(t *testing.T) {
	t.Parallel()
	s, b := newTestBus(t)
	d := b.Open(4)
	require.NoError(t, b.TrySend(d, 1))
	s.Go(func(_ context.Context) error {
		n, err := b.RecvV(d, make([]uint32, 3))
		assert.ErrorIs(t, err, ErrNoChannel)
		assert.Equal(t, 1, n)
		return nil
	})
	s.Go(func(_ context.Context) error {
		return b.Close(d)
	})
	require.NoError(t, s.Run())
}

func TestSendVWakesOneReceiverPerValue(t *testing.T) {
	t.Parallel()
	s, b := newTestBus(t)
	d := b.Open(3)
	sum := uint32(0)
	for i := 0; i < 3; i++ {
		s.Go(func(_ context.Context) error {
			v, err := b.Recv(d)
			sum += v
			return err
		})
	}
	s.Go(func(_ context.Context) error {
		n, err := b.TrySendV(d, []uint32{1, 2, 3})
		assert.Equal(t, 3, n)
		return err
	})
	require.NoError(t, s.Run())
	assert.Equal(t, uint32(6), sum)
}

func TestRecvVWakesOneSenderPerSlot(t *testing.T) {
	t.Parallel()
	s, b := newTestBus(t)
	d := b.Open(2)
	_, err := b.TrySendV(d, []uint32{1, 2})
	require.NoError(t, err)
	for v := uint32(3); v <= 4; v++ {
		s.Go(func(_ context.Context) error {
			return b.Send(d, v)
		})
	}
	s.Go(func(_ context.Context) error {
		buf := make([]uint32, 2)
		n, err := b.TryRecvV(d, buf)
		assert.Equal(t, 2, n)
		assert.Equal(t, []uint32{1, 2}, buf)
		return err
	})
	require.NoError(t, s.Run())
	n, err := b.Len(d)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
