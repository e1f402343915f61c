package mailbox

import "sort"

// sortMessages sorts messages by sequence number, breaking ties by timestamp.
func sortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Seq != msgs[j].Seq {
			return msgs[i].Seq < msgs[j].Seq
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}
