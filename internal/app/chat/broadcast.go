package chat

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"minsky/internal/app/user"
	"minsky/internal/pkg/logx"
	"minsky/internal/pkg/metrics"
)

// Report summarizes one fan-out.
type Report struct {
	Recipients int
	Delivered  int
	Failed     int
}

type recipient struct {
	username string
	conn     Conn
}

// Broadcaster resolves a delivery scope to live connections and queues a frame on each.
// It reads the presence directory, registry and groups but never mutates them.
type Broadcaster struct {
	// resolve is held while recipients are resolved, so the snapshot is
	// consistent with identify and disconnect.
	resolve sync.Locker

	presence *Presence
	registry *Registry
	groups   *Groups

	logger zerolog.Logger
}

// NewBroadcaster constructs a Broadcaster over the given components.
func NewBroadcaster(resolve sync.Locker, presence *Presence, registry *Registry, groups *Groups) *Broadcaster {
	return &Broadcaster{
		resolve:  resolve,
		presence: presence,
		registry: registry,
		groups:   groups,
		logger:   logx.Component("Broadcaster"),
	}
}

// SendGlobal delivers msg to every online user with a live connection, the sender included.
func (b *Broadcaster) SendGlobal(msg Message) Report {
	frame, err := encodeEvent(TypeMessage, msg)
	if err != nil {
		b.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Error marshaling message for broadcast.")
		return Report{}
	}

	b.resolve.Lock()
	targets := b.onlineRecipientsLocked(b.presence.ListOnline())
	b.resolve.Unlock()

	return b.deliver(frame, targets, msg.ID)
}

// SendToGroup delivers msg to the online members of group and to the sender.
func (b *Broadcaster) SendToGroup(group string, msg Message) Report {
	frame, err := encodeEvent(TypeMessage, msg)
	if err != nil {
		b.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Error marshaling group message for broadcast.")
		return Report{}
	}

	b.resolve.Lock()
	names := b.groups.MembersOf(group)
	if msg.From != "" && !slices.Contains(names, msg.From) {
		names = append(names, msg.From)
	}

	targets := make([]recipient, 0, len(names))
	for _, name := range names {
		if !b.presence.Has(name) {
			continue
		}
		if rc, ok := b.lookupLocked(name); ok {
			targets = append(targets, rc)
		}
	}
	b.resolve.Unlock()

	return b.deliver(frame, targets, msg.ID)
}

// SendNotice delivers a system notice to every online user.
func (b *Broadcaster) SendNotice(text string) Report {
	frame, err := encodeEvent(TypeSystemNotice, NoticePayload{Text: text})
	if err != nil {
		b.logger.Error().Err(err).Msg("Error marshaling system notice.")
		return Report{}
	}

	b.resolve.Lock()
	targets := b.onlineRecipientsLocked(b.presence.ListOnline())
	b.resolve.Unlock()

	return b.deliver(frame, targets, "")
}

// SendRoster delivers the current roster to every online user.
func (b *Broadcaster) SendRoster() Report {
	b.resolve.Lock()
	records := b.presence.ListOnline()
	targets := b.onlineRecipientsLocked(records)
	b.resolve.Unlock()

	frame, err := encodeEvent(TypeRoster, rosterOf(records))
	if err != nil {
		b.logger.Error().Err(err).Msg("Error marshaling roster.")
		return Report{}
	}

	return b.deliver(frame, targets, "")
}

// onlineRecipientsLocked maps presence records to live connections, skipping
// records with none (the bot).
func (b *Broadcaster) onlineRecipientsLocked(records []user.Record) []recipient {
	targets := make([]recipient, 0, len(records))
	for _, rec := range records {
		if rec.Bot {
			continue
		}
		if rc, ok := b.lookupLocked(rec.Username); ok {
			targets = append(targets, rc)
		}
	}
	return targets
}

func (b *Broadcaster) lookupLocked(username string) (recipient, bool) {
	id, err := b.registry.Lookup(username)
	if err != nil {
		return recipient{}, false
	}

	conn, ok := b.registry.Conn(id)
	if !ok {
		return recipient{}, false
	}

	return recipient{username: username, conn: conn}, true
}

// deliver queues frame on every target. A failed delivery is logged and
// counted but never stops the rest of the fan-out.
func (b *Broadcaster) deliver(frame []byte, targets []recipient, messageID string) Report {
	report := Report{Recipients: len(targets)}

	for _, t := range targets {
		if err := t.conn.Deliver(frame); err != nil {
			report.Failed++
			metrics.DeliveriesTotal.WithLabelValues(metrics.ResultFailed).Inc()
			b.logger.Warn().
				Err(err).
				Str("username", t.username).
				Str("message_id", messageID).
				Msg("Delivery failed, skipping recipient.")
			continue
		}

		report.Delivered++
		metrics.DeliveriesTotal.WithLabelValues(metrics.ResultDelivered).Inc()
	}

	return report
}

