package ui

import (
	"streamchat/client"
)

// sessionUpdateMsg delivers the latest session state to the Bubble Tea loop.
type sessionUpdateMsg struct {
	snap client.Snapshot
}

// sendDoneMsg is returned once a Send call has settled.
type sendDoneMsg struct {
	err error
}

type markdownRenderedMsg struct {
	MessageIndex int
	Epoch        int
	Rendered     string
}

// flashExpiredMsg clears the status note with the matching id.
type flashExpiredMsg struct {
	id int
}
