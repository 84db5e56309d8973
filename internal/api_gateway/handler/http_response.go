package handler

import (
	"net/http"

	"github.com/card-statement-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every API endpoint answers with
type Response struct {
	Data          any        `json:"data,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo describes the page returned by list endpoints
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

// Generic codes and fallback messages per status
var statusErrors = map[int]ErrorInfo{
	http.StatusBadRequest:            {Code: "BAD_REQUEST"},
	http.StatusUnauthorized:          {Code: "UNAUTHORIZED", Message: "Unauthorized"},
	http.StatusForbidden:             {Code: "FORBIDDEN", Message: "Forbidden"},
	http.StatusNotFound:              {Code: "NOT_FOUND", Message: "Resource not found"},
	http.StatusConflict:              {Code: "CONFLICT"},
	http.StatusRequestEntityTooLarge: {Code: "PAYLOAD_TOO_LARGE", Message: "Statement document is too large"},
	http.StatusInternalServerError:   {Code: "INTERNAL_SERVER_ERROR", Message: "An internal server error occurred"},
}

func newMetaInfo(page, perPage, totalItems int) *MetaInfo {
	meta := &MetaInfo{Page: page, PerPage: perPage, TotalItems: totalItems}
	if perPage > 0 {
		meta.TotalPages = (totalItems + perPage - 1) / perPage
	}
	return meta
}

func write(c *gin.Context, statusCode int, response Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

func RespondWithData(c *gin.Context, statusCode int, data any) {
	write(c, statusCode, Response{Data: data})
}

// RespondWithError writes an error envelope with an explicit code
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	write(c, statusCode, Response{Error: &ErrorInfo{Code: code, Message: message}})
}

// RespondWithPaginatedData writes one page of a list with its meta block
func RespondWithPaginatedData(c *gin.Context, statusCode int, data any, page, perPage, totalItems int) {
	write(c, statusCode, Response{Data: data, Meta: newMetaInfo(page, perPage, totalItems)})
}

// respondStatus writes the generic error for statusCode, defaulting an empty message
func respondStatus(c *gin.Context, statusCode int, message string) {
	info := statusErrors[statusCode]
	if message == "" {
		message = info.Message
	}
	RespondWithError(c, statusCode, info.Code, message)
}

func RespondOK(c *gin.Context, data any) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondAccepted(c *gin.Context, data any) {
	RespondWithData(c, http.StatusAccepted, data)
}

func RespondBadRequest(c *gin.Context, message string) {
	respondStatus(c, http.StatusBadRequest, message)
}

func RespondUnauthorized(c *gin.Context, message string) {
	respondStatus(c, http.StatusUnauthorized, message)
}

func RespondForbidden(c *gin.Context, message string) {
	respondStatus(c, http.StatusForbidden, message)
}

func RespondNotFound(c *gin.Context, message string) {
	respondStatus(c, http.StatusNotFound, message)
}

func RespondConflict(c *gin.Context, message string) {
	respondStatus(c, http.StatusConflict, message)
}

func RespondPayloadTooLarge(c *gin.Context, message string) {
	respondStatus(c, http.StatusRequestEntityTooLarge, message)
}

// RespondUnprocessable carries a domain specific code such as UNSUPPORTED_FORMAT
func RespondUnprocessable(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusUnprocessableEntity, code, message)
}

func RespondInternalError(c *gin.Context) {
	respondStatus(c, http.StatusInternalServerError, "")
}
