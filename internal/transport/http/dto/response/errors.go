package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrGalleryNotFound = ErrorResponse{
		Status:  "error",
		Error:   "gallery_not_found",
		Details: "Gallery does not exist",
	}

	ErrGalleryExists = ErrorResponse{
		Status:  "error",
		Error:   "gallery_exists",
		Details: "Gallery with this item id already exists",
	}

	ErrConcurrentUpdate = ErrorResponse{
		Status:  "error",
		Error:   "concurrent_update",
		Details: "Gallery was modified by another request, reload and retry",
	}

	ErrInternal = ErrorResponse{
		Status: "error",
		Error:  "internal_error",
	}

	ErrInvalidNotification = ErrorResponse{
		Status: "error",
		Error:  "invalid_notification",
	}

	ErrNotificationNotProcessed = ErrorResponse{
		Status: "error",
		Error:  "notification_not_processed",
	}
)
