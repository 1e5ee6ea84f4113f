/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, WebSocket notices and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported message format."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnsupportedEvent:  {Code: ErrUnsupportedEvent, Message: "Unsupported event type %s."},

	// 2xxx: Presence, Group, and Message Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrEmptyMessage:          {Code: ErrEmptyMessage, Message: "Message is empty."},
	ErrNameTaken:             {Code: ErrNameTaken, Message: "Username %s is already taken.", Status: http.StatusConflict},
	ErrInvalidName:           {Code: ErrInvalidName, Message: "Invalid name."},
	ErrUserNotFound:          {Code: ErrUserNotFound, Message: "User is not online.", Status: http.StatusNotFound},
	ErrGroupNotFound:         {Code: ErrGroupNotFound, Message: "Group %s not found or you are not a member.", Status: http.StatusNotFound},
	ErrAlreadyBound:          {Code: ErrAlreadyBound, Message: "You are already signed in."},
	ErrNotIdentified:         {Code: ErrNotIdentified, Message: "Please choose a username first."},
	ErrConnectionNotFound:    {Code: ErrConnectionNotFound, Message: "Connection is closed."},

	// 5xxx: Internal System Errors
	ErrUnknown:        {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrDeliveryFailed: {Code: ErrDeliveryFailed, Message: "Message could not be delivered."},
}
