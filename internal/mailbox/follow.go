package mailbox

import (
	"sync"
	"sync/atomic"
	"time"
)

// defaultPollInterval is the default interval for the Follow poller.
const defaultPollInterval = 500 * time.Millisecond

// Follow polls the chat log and invokes handler for each message appended
// after the call. It returns a cancel function that stops the follower.
// The follower runs in a separate goroutine and delivers messages in
// sequence order.
//
// The follower snapshots the current last sequence number synchronously,
// so any Append after Follow returns is guaranteed to be delivered.
func (s *Store) Follow(handler func(Message)) (cancel func()) {
	var stopped atomic.Bool
	var wg sync.WaitGroup

	seen, err := s.LastSeq()
	if err != nil {
		// If the initial snapshot fails, start from 0 so we don't miss
		// messages. This may re-deliver existing messages but is safer
		// than silently skipping them.
		seen = 0
	}

	wg.Go(func() {
		for !stopped.Load() {
			time.Sleep(s.pollInterval)
			if stopped.Load() {
				return
			}

			messages, err := s.ReadAll()
			if err != nil {
				// Transient read failures are expected; retry on the
				// next poll.
				continue
			}

			for _, msg := range messages {
				if msg.Seq > seen {
					handler(msg)
					seen = msg.Seq
				}
			}
		}
	})

	return func() {
		stopped.Store(true)
		wg.Wait()
	}
}
