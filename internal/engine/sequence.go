package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// unresolvedSequence marks a message whose position could not be extracted
// from its name or subject.
const unresolvedSequence = -1

var (
	emailNumberPattern   = regexp.MustCompile(`(?i)email\s*#\s*(\d+)`)
	hashNumberPattern    = regexp.MustCompile(`#\s*(\d+)`)
	leadingNumberPattern = regexp.MustCompile(`^\s*(\d+)\.`)
)

// extractSequenceNumber pulls a sequence marker out of a flow message,
// trying patterns in priority order: "Email #N" in the message name,
// "#N" in the subject, then a leading "N." in the name. Returns
// unresolvedSequence when nothing matches.
func extractSequenceNumber(m FlowMessageRecord) int {
	for _, try := range []struct {
		re *regexp.Regexp
		s  string
	}{
		{emailNumberPattern, m.Name},
		{hashNumberPattern, m.Subject},
		{leadingNumberPattern, m.Name},
	} {
		if match := try.re.FindStringSubmatch(try.s); match != nil {
			if n, err := strconv.Atoi(match[1]); err == nil {
				return n
			}
		}
	}
	return unresolvedSequence
}

// SequencedMessage is a flow message with its resolved position in the
// flow and its display label.
type SequencedMessage struct {
	FlowMessageRecord
	Position int    `json:"sequence_position"`
	Label    string `json:"label"`
}

// ResolveSequence orders a flow's messages. Messages with an extractable
// sequence number sort by that number and keep it as their position;
// the rest sort after them by creation time ascending and take the next
// positions counting from the resolved set.
func ResolveSequence(messages []FlowMessageRecord) []SequencedMessage {
	var resolved, unresolved []SequencedMessage
	for _, m := range messages {
		sm := SequencedMessage{FlowMessageRecord: m, Position: extractSequenceNumber(m)}
		if sm.Position == unresolvedSequence {
			unresolved = append(unresolved, sm)
		} else {
			resolved = append(resolved, sm)
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Position < resolved[j].Position
	})
	sort.SliceStable(unresolved, func(i, j int) bool {
		a, b := unresolved[i].CreatedAt, unresolved[j].CreatedAt
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})

	for i := range unresolved {
		unresolved[i].Position = len(resolved) + i + 1
	}

	out := append(resolved, unresolved...)
	for i := range out {
		out[i].Label = fmt.Sprintf("Email #%d", out[i].Position)
	}
	return out
}
