package shared

// UploadStatus defines statement upload processing states
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "PENDING"
	UploadStatusProcessing UploadStatus = "PROCESSING"
	UploadStatusCompleted  UploadStatus = "COMPLETED"
	UploadStatusRejected   UploadStatus = "REJECTED"
	UploadStatusFailed     UploadStatus = "FAILED"
)

// IsTerminal reports whether no further processing will happen for the upload
func (s UploadStatus) IsTerminal() bool {
	switch s {
	case UploadStatusCompleted, UploadStatusRejected, UploadStatusFailed:
		return true
	default:
		return false
	}
}

// FailureReason defines upload failure categories
type FailureReason string

const (
	FailureReasonUnsupportedFormat    FailureReason = "UNSUPPORTED_FORMAT"
	FailureReasonDocumentUnreadable   FailureReason = "DOCUMENT_UNREADABLE"
	FailureReasonMissingStatementDate FailureReason = "MISSING_STATEMENT_DATE"
	FailureReasonDuplicateStatement   FailureReason = "DUPLICATE_STATEMENT"
	FailureReasonCardNotFound         FailureReason = "CARD_NOT_FOUND"
	FailureReasonCardAccessDenied     FailureReason = "CARD_ACCESS_DENIED"
	FailureReasonEmptyDocument        FailureReason = "EMPTY_DOCUMENT"
	FailureReasonDocumentTooLarge     FailureReason = "DOCUMENT_TOO_LARGE"
	FailureReasonInvalidRequest       FailureReason = "INVALID_REQUEST"
	FailureReasonUnknownError         FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
