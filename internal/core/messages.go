package core

import (
	"errors"
	"fmt"

	"github.com/jo-hoe/sitelog/internal/backend/commands"
	"github.com/jo-hoe/sitelog/internal/backend/gallery"
)

const (
	MessageAccessDenied   = "Access Denied. Command Authority Required."
	MessageUploadComplete = "Field Log Successfully Synchronized."
	MessageIncomplete     = "Incomplete Payload."
	MessageCapacity       = "Cloud storage capacity exceeded. Please delete older logs to make room."
	MessageDecodeFailure  = "Image could not be decoded."
	MessageUploadTooLarge = "Image exceeds the 32 MiB upload limit."
	MessageEngineError    = "Cloud Engine Error."
	MessagePurged         = "Site record purged."
	MessagePurgeFailure   = "Purge protocol failure."
	MessageConfirmPurge   = "Confirm record purge?"
	MessageCameraRequired = "Camera access is vital for real-time site intelligence."
)

// UploadMessage turns an AddImage error into the notification shown to the owner
func UploadMessage(err error) string {
	var syncErr *gallery.SyncError
	switch {
	case errors.Is(err, ErrIncompletePayload):
		return MessageIncomplete
	case errors.Is(err, gallery.ErrCapacityExceeded):
		return MessageCapacity
	case errors.Is(err, commands.ErrDecode), errors.Is(err, commands.ErrSurface):
		return MessageDecodeFailure
	case errors.As(err, &syncErr) && syncErr.StatusCode > 0:
		return fmt.Sprintf("Sync Failed: %d. %s", syncErr.StatusCode, syncErr.Body)
	default:
		return MessageEngineError
	}
}
