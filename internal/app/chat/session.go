/*
Package chat contains the presence and real-time messaging core.

This file defines the Session, the per-connection protocol state machine:
Connected, then Identified once a username is bound, InGroup while the user has a
group focus, and finally Closed. Protocol violations are reported to the
offending connection only.
*/
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"minsky/internal/app/user"
	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/logx"
	"minsky/internal/pkg/metrics"
	"minsky/internal/pkg/randx"
)

// State is a session's protocol state.
type State int

const (
	StateConnected State = iota
	StateIdentified
	StateInGroup
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateIdentified:
		return "identified"
	case StateInGroup:
		return "in_group"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives the chat protocol for one connection.
type Session struct {
	hub  *Hub
	id   ConnID
	conn Conn

	// limiter throttles inbound events; nil disables throttling.
	limiter *rate.Limiter

	// mu protects state, username and group.
	mu       sync.Mutex
	state    State
	username string
	group    string

	closeOnce sync.Once

	logger zerolog.Logger
}

// NewSession registers conn with the hub and returns its session in the
// Connected state.
func NewSession(hub *Hub, conn Conn, limiter *rate.Limiter) *Session {
	id := hub.Connect(conn)

	return &Session{
		hub:     hub,
		id:      id,
		conn:    conn,
		limiter: limiter,
		state:   StateConnected,
		logger:  logx.Logger().With().Str("conn_id", string(id)).Logger(),
	}
}

// ID returns the connection identifier.
func (s *Session) ID() ConnID { return s.id }

// State returns the current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Username returns the bound username, empty before identify.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Group returns the current group focus, empty when none.
func (s *Session) Group() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.group
}

// HandleFrame decodes and dispatches one inbound frame. Any error is reported
// back to this connection as a system notice.
func (s *Session) HandleFrame(raw []byte) {
	if s.limiter != nil && !s.limiter.Allow() {
		s.reject(errs.NewError(errs.ErrRateLimitExceeded))
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn().Err(err).Int("frame_bytes", len(raw)).Msg("Client sent invalid JSON")
		s.reject(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	if err := s.dispatch(env); err != nil {
		s.reject(err)
	}
}

func (s *Session) dispatch(env Envelope) error {
	switch env.Type {
	case TypeIdentify:
		var p IdentifyPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		return s.Identify(p.Username, user.Profile{Signature: p.Signature, Avatar: p.Avatar})

	case TypeJoinGroup:
		var p JoinGroupPayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		return s.JoinGroup(p.Name)

	case TypeLeaveGroup:
		return s.LeaveGroup()

	case TypeMessage:
		var p MessagePayload
		if err := decodePayload(env.Payload, &p); err != nil {
			return err
		}
		_, err := s.Send(p.Text, p.Target)
		return err

	case TypeRoster:
		return s.SendRoster()

	default:
		s.logger.Warn().Str("msg_type", string(env.Type)).Msg("Client sent unsupported message type")
		return errs.NewError(errs.ErrUnsupportedEvent, strconv.Quote(string(env.Type)))
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

// Identify binds username and a profile to this connection and announces the
// arrival to everyone.
func (s *Session) Identify(username string, profile user.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return errs.NewError(errs.ErrConnectionNotFound)
	case StateIdentified, StateInGroup:
		return errs.NewError(errs.ErrAlreadyBound)
	}

	if !randx.IsValidUsername(username) {
		return errs.NewError(errs.ErrInvalidName)
	}

	if err := validateProfile(profile); err != nil {
		return err
	}

	if _, err := s.hub.Identify(s.id, username, profile); err != nil {
		return err
	}

	s.state = StateIdentified
	s.username = username
	s.logger = s.logger.With().Str("username", username).Logger()

	s.hub.Broadcaster().SendNotice(fmt.Sprintf("%s joined the chat", username))
	s.hub.Broadcaster().SendRoster()
	return nil
}

func validateProfile(p user.Profile) error {
	if !randx.IsValidSignature(p.Signature) {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if p.Avatar == "" {
		return nil
	}

	u, err := url.Parse(p.Avatar)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

// JoinGroup makes name the user's group focus, leaving the previous one.
func (s *Session) JoinGroup(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdentifiedLocked(); err != nil {
		return err
	}

	if !randx.IsValidGroupName(name) {
		return errs.NewError(errs.ErrInvalidName)
	}

	if s.state == StateInGroup && s.group == name {
		s.noticeLocked(fmt.Sprintf("You are already in group %s", name))
		return nil
	}

	if err := s.hub.SwitchGroup(s.id, s.username, s.group, name); err != nil {
		return err
	}

	s.state = StateInGroup
	s.group = name

	s.noticeLocked(fmt.Sprintf("You joined group %s", name))
	return nil
}

// LeaveGroup drops the current group focus.
func (s *Session) LeaveGroup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdentifiedLocked(); err != nil {
		return err
	}

	if s.state != StateInGroup {
		return errs.NewError(errs.ErrGroupNotFound)
	}

	left := s.group
	if err := s.hub.SwitchGroup(s.id, s.username, left, ""); err != nil {
		return err
	}

	s.state = StateIdentified
	s.group = ""

	s.noticeLocked(fmt.Sprintf("You left group %s", left))
	return nil
}

// Send posts text to the global room, or to the current group when target names it.
func (s *Session) Send(text, target string) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdentifiedLocked(); err != nil {
		return Report{}, err
	}

	if text == "" {
		return Report{}, errs.NewError(errs.ErrEmptyMessage)
	}

	if len(text) > MaxContentBytes {
		return Report{}, errs.NewError(errs.ErrMessageContentTooLong)
	}

	if target != "" && (s.state != StateInGroup || target != s.group) {
		return Report{}, errs.NewError(errs.ErrGroupNotFound, target)
	}

	report, err := s.hub.Post(NewMessage(s.username, text, target))
	if err != nil {
		return Report{}, err
	}

	if report.Failed > 0 {
		s.logger.Debug().
			Int("recipients", report.Recipients).
			Int("failed", report.Failed).
			Msg("Message fan-out had failed deliveries.")
	}
	return report, nil
}

// SendRoster delivers the current roster to this connection only.
func (s *Session) SendRoster() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireIdentifiedLocked(); err != nil {
		return err
	}

	frame, err := encodeEvent(TypeRoster, rosterOf(s.hub.Presence().ListOnline()))
	if err != nil {
		return errs.NewError(errs.ErrUnknown, err)
	}
	return s.deliverSelf(frame)
}

func (s *Session) requireIdentifiedLocked() error {
	switch s.state {
	case StateClosed:
		return errs.NewError(errs.ErrConnectionNotFound)
	case StateConnected:
		return errs.NewError(errs.ErrNotIdentified)
	}
	return nil
}

// Close runs the disconnect transition exactly once: the connection is
// released, the user leaves presence and every group, and, if it had
// identified, everyone is told it left.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.group = ""
		s.mu.Unlock()

		username, _, ok := s.hub.Disconnect(s.id)
		s.conn.Close()

		if !ok || username == "" || s.hub.ShuttingDown() {
			return
		}

		s.hub.Broadcaster().SendNotice(fmt.Sprintf("%s left the chat", username))
		s.hub.Broadcaster().SendRoster()
	})
}

// reject reports err to this connection as a system notice.
func (s *Session) reject(err error) {
	customErr := errs.From(err)
	metrics.ProtocolErrorsTotal.WithLabelValues(strconv.Itoa(customErr.Code)).Inc()

	s.logger.Debug().Int("code", customErr.Code).Str("reason", customErr.Message).Msg("Rejected client event.")

	frame, encErr := encodeEvent(TypeSystemNotice, NoticePayload{Text: customErr.Message, Code: customErr.Code})
	if encErr != nil {
		s.logger.Error().Err(encErr).Msg("Failed to build error notice.")
		return
	}

	if err := s.deliverSelf(frame); err != nil && !errors.Is(err, errs.NewError(errs.ErrConnectionNotFound)) {
		s.logger.Warn().Err(err).Msg("Failed to queue error notice.")
	}
}

// noticeLocked sends an informational notice to this connection only.
func (s *Session) noticeLocked(text string) {
	frame, err := encodeEvent(TypeSystemNotice, NoticePayload{Text: text})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build notice.")
		return
	}

	if err := s.deliverSelf(frame); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to queue notice.")
	}
}

func (s *Session) deliverSelf(frame []byte) error {
	return s.conn.Deliver(frame)
}
