package uia

import (
	"fmt"

	"github.com/zoeyai/zoeylocate/pkg/locate"
)

// 可恢复的 COM 错误码（HRESULT）
const (
	// ElementNotAvailable UIA_E_ELEMENTNOTAVAILABLE / EVENT_E_ALL_SUBSCRIBERS_FAILED
	ElementNotAvailable int64 = -2147220991 // 0x80040201
	// UIATimeout UIA_E_TIMEOUT
	UIATimeout int64 = -2146233083 // 0x80131505
	// CallRejected RPC_E_CALL_REJECTED
	CallRejected int64 = -2147418111 // 0x80010001
	// RetryLater RPC_E_SERVERCALL_RETRYLATER
	RetryLater int64 = -2147417846 // 0x8001010A
)

var transientCodes = map[int64]bool{
	ElementNotAvailable: true,
	UIATimeout:          true,
	CallRejected:        true,
	RetryLater:          true,
}

// BridgeError 桥接脚本报告的错误
type BridgeError struct {
	Type    string `json:"type"`
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

func (e *BridgeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (0x%08X): %s", e.Type, uint32(e.Code), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// IsTransient 判断错误是否为时序竞争等可恢复错误
func (e *BridgeError) IsTransient() bool {
	switch e.Type {
	case "TimeoutError", "ElementNotAvailable":
		return true
	case "COMError":
		return transientCodes[e.Code]
	}
	return false
}

// classify 可恢复错误包装为 locate.Transient，其余原样返回
func classify(op string, e *BridgeError) error {
	if e.IsTransient() {
		return locate.Transient(op, e)
	}
	return fmt.Errorf("%s: %w", op, e)
}
