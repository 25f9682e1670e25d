package usecase

import (
	"errors"
	"fmt"
)

var (
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//503 record storeに届かない
	ErrUnavailable = errors.New("record store unavailable")
)

// 400 入力不良（空の明細、数量<=0、不正なstatusなど）
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return "invalid argument: " + e.Reason
}

// 404 参照先が存在しない
type NotFoundError struct {
	Resource string // "product" / "order" など
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// 409 要求数量が在庫を超えた。どの商品かを必ず持つ。
type InsufficientStockError struct {
	ProductID int64
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// 409 並行更新やタイムアウトで予約を確定できなかった
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}
