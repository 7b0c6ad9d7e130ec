// Package workload drives producers and consumers over a bus so the CLI and
// examples can exercise it end to end.
package workload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NetPo4ki/go-corobus/bus"
	"github.com/NetPo4ki/go-corobus/internal/config"
	"github.com/NetPo4ki/go-corobus/sched"
)

type Stats struct {
	Channels int
	Sent     int
	Received int
	Elapsed  time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("channels=%d sent=%d received=%d elapsed=%s", s.Channels, s.Sent, s.Received, s.Elapsed)
}

// Run opens cfg.Channels channels on b, starts one consumer per channel and
// cfg.Producers producers, and runs s until everything has drained. The last
// producer to finish waits for the channels to empty and closes them, which
// is what stops the consumers.
func Run(s *sched.Scheduler, b *bus.Bus, cfg config.Config) (Stats, error) {
	stats := Stats{Channels: cfg.Channels}
	ds := make([]int, cfg.Channels)
	for i := range ds {
		ds[i] = b.Open(cfg.Capacity)
	}

	for _, d := range ds {
		s.Go(func(_ context.Context) error {
			n, err := consume(b, d, cfg.Batch)
			stats.Received += n
			return err
		})
	}

	remaining := cfg.Producers
	for p := 0; p < cfg.Producers; p++ {
		s.Go(func(_ context.Context) error {
			var (
				n   int
				err error
			)
			first := uint32(p * cfg.Messages)
			if cfg.Broadcast {
				n, err = broadcast(b, first, cfg.Messages)
			} else {
				n, err = scatter(b, ds, p, first, cfg.Messages, cfg.Batch)
			}
			stats.Sent += n
			if err != nil {
				return err
			}
			if remaining--; remaining == 0 {
				return drainAndClose(s, b, ds)
			}
			return nil
		})
	}

	start := time.Now()
	err := s.Run()
	stats.Elapsed = time.Since(start)
	if err == nil && stats.Sent != stats.Received {
		err = fmt.Errorf("workload: sent %d values but received %d", stats.Sent, stats.Received)
	}
	return stats, err
}

// consume reads channel d in batches until it closes.
func consume(b *bus.Bus, d, batch int) (int, error) {
	buf := make([]uint32, batch)
	total := 0
	for {
		n, err := b.RecvV(d, buf)
		total += n
		if errors.Is(err, bus.ErrNoChannel) {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// broadcast delivers every value to every open channel. It reports the
// number of copies enqueued.
func broadcast(b *bus.Bus, first uint32, count int) (int, error) {
	copies := 0
	for i := 0; i < count; i++ {
		if err := b.Broadcast(first + uint32(i)); err != nil {
			return copies, fmt.Errorf("broadcast %d: %w", first+uint32(i), err)
		}
		copies += b.Count()
	}
	return copies, nil
}

// scatter sends count values in batches, spreading the batches round-robin
// over ds starting at offset.
func scatter(b *bus.Bus, ds []int, offset int, first uint32, count, batch int) (int, error) {
	buf := make([]uint32, 0, batch)
	sent := 0
	for k := 0; sent < count; k++ {
		buf = buf[:0]
		for len(buf) < batch && sent+len(buf) < count {
			buf = append(buf, first+uint32(sent+len(buf)))
		}
		d := ds[(offset+k)%len(ds)]
		n, err := b.SendV(d, buf)
		sent += n
		if err != nil {
			return sent, fmt.Errorf("send to channel %d: %w", d, err)
		}
	}
	return sent, nil
}

func drainAndClose(s *sched.Scheduler, b *bus.Bus, ds []int) error {
	for _, d := range ds {
		for {
			n, err := b.Len(d)
			if err != nil {
				return err
			}
			if n == 0 {
				break
			}
			s.Yield()
		}
	}
	for _, d := range ds {
		if err := b.Close(d); err != nil {
			return fmt.Errorf("close channel %d: %w", d, err)
		}
	}
	return nil
}
