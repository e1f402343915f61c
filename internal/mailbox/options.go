package mailbox

import "time"

// Option configures a Store.
type Option func(*Store)

// WithChatFile overrides the chat log file name within the workspace.
func WithChatFile(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.chatFile = name
		}
	}
}

// WithPollInterval configures the interval between Follow polls.
// Zero or negative values are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}
