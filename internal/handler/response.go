package handler

import (
	"errors"
	"net/http"

	"github.com/blues/tss/internal/auth"
	"github.com/blues/tss/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// AbortResponse 按失败原因映射HTTP状态码
func AbortResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusFromError(err), err.Error())
}

// statusFromError 售卖引擎的失败原因到状态码
func statusFromError(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingSignature),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrNotAuthorized):
		return http.StatusUnauthorized
	case errors.Is(err, logic.ErrNotInitialized),
		errors.Is(err, logic.ErrSaleTokenNotSet),
		errors.Is(err, logic.ErrFundRecipientNotSet):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, logic.ErrInvalidParameters),
		errors.Is(err, logic.ErrInvalidAmount),
		errors.Is(err, logic.ErrTokenNotSupported),
		errors.Is(err, logic.ErrBelowMinBuy),
		errors.Is(err, logic.ErrAboveMaxBuy),
		errors.Is(err, logic.ErrMaxBuyExceeded),
		errors.Is(err, logic.ErrHardCapExceeded):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrSaleOver),
		errors.Is(err, logic.ErrSaleNotOver),
		errors.Is(err, logic.ErrSaleNotSuccessful),
		errors.Is(err, logic.ErrSaleSuccessful),
		errors.Is(err, logic.ErrBeforeTge),
		errors.Is(err, logic.ErrSoftCapNotReached),
		errors.Is(err, logic.ErrNothingToClaim),
		errors.Is(err, logic.ErrNothingToRefund),
		errors.Is(err, logic.ErrEscrowShortfall):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
