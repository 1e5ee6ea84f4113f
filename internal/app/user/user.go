/*
Package user contains the data structures describing a chat participant.

A Record is the presence directory's view of one online user: the identity,
the public profile shown on the roster, and the messages the user authored
during the session.
*/
package user

import "time"

// Profile is the public, client-supplied part of a user record.
type Profile struct {
	// Signature is a short free-text status line.
	Signature string `json:"signature"`

	// Avatar is the URL of the user's avatar image.
	Avatar string `json:"avatar"`
}

// LoggedMessage is one entry of a user's message log.
type LoggedMessage struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Target    string `json:"target,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Record represents one online participant.
type Record struct {
	// Username is unique among online users.
	Username string `json:"username"`

	Profile

	// JoinedAt is when the record entered the presence directory.
	JoinedAt time.Time `json:"joinedAt"`

	// Bot marks the permanent automated responder entry.
	Bot bool `json:"bot,omitempty"`

	// Messages is the append-only log of messages the user sent.
	Messages []LoggedMessage `json:"-"`
}

// Clone returns a deep copy of r, so callers can hold it without sharing the log.
func (r Record) Clone() Record {
	out := r
	if r.Messages != nil {
		out.Messages = make([]LoggedMessage, len(r.Messages))
		copy(out.Messages, r.Messages)
	}
	return out
}

// Public is the roster entry sent to clients.
type Public struct {
	Username     string `json:"username"`
	Signature    string `json:"signature"`
	Avatar       string `json:"avatar"`
	Bot          bool   `json:"bot,omitempty"`
	MessageCount int    `json:"messageCount"`
}

// Public projects r onto its client-visible roster entry.
func (r Record) Public() Public {
	return Public{
		Username:     r.Username,
		Signature:    r.Signature,
		Avatar:       r.Avatar,
		Bot:          r.Bot,
		MessageCount: len(r.Messages),
	}
}
