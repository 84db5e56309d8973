package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/card-statement-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	statementFileField = "file"
	multipartOverhead  = 1 << 20
)

// callerID returns the authenticated caller or writes a 401
func callerID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a UUID path parameter or writes a 400
func pathID(c *gin.Context, logger *slog.Logger, param, label string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.Warn("Invalid "+label+" ID", param, raw, "error", err)
		RespondBadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// readStatementFile reads the multipart statement file, enforcing maxBytes
func readStatementFile(c *gin.Context, logger *slog.Logger, maxBytes int64) (string, []byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile(statementFileField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondPayloadTooLarge(c, "Statement file is too large")
			return "", nil, false
		}
		logger.Warn("Missing statement file", "error", err)
		RespondBadRequest(c, "A statement file is required in the 'file' field")
		return "", nil, false
	}

	if fileHeader.Size > maxBytes {
		RespondPayloadTooLarge(c, "Statement file is too large")
		return "", nil, false
	}
	if fileHeader.Size == 0 {
		RespondBadRequest(c, "Statement file is empty")
		return "", nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", "error", err)
		RespondInternalError(c)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		logger.Error("Failed to read uploaded file", "error", err)
		RespondInternalError(c)
		return "", nil, false
	}
	if int64(len(data)) > maxBytes {
		RespondPayloadTooLarge(c, "Statement file is too large")
		return "", nil, false
	}

	return fileHeader.Filename, data, true
}
