/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or event parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that an inbound frame was not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrUnsupportedEvent indicates that the client sent an event type the server does not handle.
	ErrUnsupportedEvent = 1008
)

// 2xxx: Presence, Group, and Message Errors
const (
	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrEmptyMessage indicates that a message had no text.
	ErrEmptyMessage = 2202

	// ErrNameTaken indicates that the requested username is already online.
	ErrNameTaken = 2301

	// ErrInvalidName indicates that a username or group name is not well formed.
	ErrInvalidName = 2302

	// ErrUserNotFound indicates that the user is not online.
	ErrUserNotFound = 2303

	// ErrGroupNotFound indicates that the group is unknown or the user is not a member of it.
	ErrGroupNotFound = 2304

	// ErrAlreadyBound indicates that the connection already has an identity.
	ErrAlreadyBound = 2305

	// ErrNotIdentified indicates that the connection must identify before this event.
	ErrNotIdentified = 2306

	// ErrConnectionNotFound indicates that the connection is unknown or already closed.
	ErrConnectionNotFound = 2307
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrDeliveryFailed indicates that a single delivery to a recipient could not be queued.
	ErrDeliveryFailed = 5001
)
