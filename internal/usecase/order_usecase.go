package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/event"
	"app/internal/infra/cache"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 予約（在庫減算）を含むトランザクションの上限時間。
// 超えたら全体をロールバックしてConflictで返す。
const reservationTimeout = 5 * time.Second

type OrderUsecase struct {
	tx     repo.TransactionManager
	cache  *cache.Store
	events event.Publisher
	log    *slog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, cache *cache.Store, events event.Publisher, log *slog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, cache: cache, events: events, log: log}
}

type LineItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type PlaceOrderInput struct {
	Items          []LineItemInput
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int64           `json:"quantity"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Status     string            `json:"status"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Items      []OrderItemOutput `json:"items"`
}

// ComputeTotal は明細スナップショットから合計金額を出す（小数2桁丸め）。
// 合計はOrder行には保存しない。常にここで導出する。
func ComputeTotal(items []model.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)))
	}
	return total.Round(2)
}

// PlaceOrder は明細セットを検証し、全件分の在庫を確保できた場合だけ注文を作る。
// 途中でどれか1件でも失敗したら、同一トランザクション内の減算ごとロールバックする。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, &InvalidArgumentError{Reason: "items must not be empty"}
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return OrderOutput{}, &InvalidArgumentError{Reason: "invalid product_id"}
		}
		if it.Quantity <= 0 {
			return OrderOutput{}, &InvalidArgumentError{Reason: fmt.Sprintf("quantity must be > 0 for product %d", it.ProductID)}
		}
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, &InvalidArgumentError{Reason: "invalid idempotency_key"}
	}
	if key == "" {
		key = uuid.NewString()
	}

	// 同じキーで作成済みならDBトランザクションを開かずに返す
	if orderID, ok := u.cache.IdemOrderID(ctx, userID, key); ok {
		return u.GetMyOrderDetail(ctx, userID, orderID)
	}

	// 同じ商品集合を逆順に並べた並行注文と行ロックの取り合いにならないよう、
	// 予約は常にproduct_id昇順で行う。
	items := make([]LineItemInput, len(in.Items))
	copy(items, in.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })

	txCtx, cancel := context.WithTimeout(ctx, reservationTimeout)
	defer cancel()

	var out OrderOutput

	err := u.tx.WithinTx(txCtx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(txCtx, userID, key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(txCtx, existing.ID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		// 1. 検証パス：全明細の存在と見かけの在庫を確認。ここでは何も書かない。
		products := make(map[int64]model.Product, len(items))
		for _, it := range items {
			p, err := r.Products().FindByID(txCtx, it.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return &NotFoundError{Resource: "product", ID: it.ProductID}
			}
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			if p.Stock < it.Quantity {
				return &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: p.Stock}
			}
			products[it.ProductID] = p
		}

		// 2. 予約パス：条件付き減算（stock >= qty のときだけ）。
		// 並行注文と競合して足りなくなっていたらここで止まり、txごと巻き戻る。
		now := time.Now()
		orderItems := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(txCtx, it.ProductID, it.Quantity)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			if !ok {
				available := int64(0)
				if p, ferr := r.Products().FindByID(txCtx, it.ProductID); ferr == nil {
					available = p.Stock
				}
				return &InsufficientStockError{ProductID: it.ProductID, Requested: it.Quantity, Available: available}
			}

			//スナップショット
			p := products[it.ProductID]
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            it.Quantity,
				CreatedAt:           now,
			})
		}

		// 3. 注文と明細を同じtxで永続化
		orderID, err := r.Orders().Create(txCtx, model.Order{
			UserID:         userID,
			Status:         model.OrderStatusPending,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			// 同時に同じキーが入ったのかstore障害なのかをキーの再検索で見分ける。
			// どちらでも既存を返さない。返すと自分の減算までcommitされてしまう。
			if _, raced, ferr := r.Orders().FindByIdempotencyKey(txCtx, userID, key); ferr == nil && raced {
				return &ConflictError{Reason: "idempotency key already used"}
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if err := r.OrderItems().CreateBulk(txCtx, orderID, orderItems); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		out = toOrderOutput(model.Order{
			ID:        orderID,
			UserID:    userID,
			Status:    model.OrderStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}, orderItems)
		return nil
	})

	if err != nil {
		return OrderOutput{}, u.mapReservationErr(err)
	}

	// commit後の副作用。失敗しても注文自体は成立している。
	u.cache.SetIdemOrderID(ctx, userID, key, out.ID)
	u.cache.SetOrderStatus(ctx, userID, out.ID, out.Status)
	if u.events != nil {
		u.events.OrderPlaced(toOrderPlacedPayload(out))
	}
	u.log.Info("order placed", "order_id", out.ID, "user_id", userID, "items", len(out.Items), "total", out.TotalPrice.String())

	return out, nil
}

// GetOrderTotal は注文の合計金額を導出して返す。
func (u *OrderUsecase) GetOrderTotal(ctx context.Context, userID int64, orderID int64) (decimal.Decimal, error) {
	out, err := u.GetMyOrderDetail(ctx, userID, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return out.TotalPrice, nil
}

// UpdateStatus はステータスを遷移表に従って進める。後退や飛び越し逆行は不可。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, userID int64, orderID int64, newStatus string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, &InvalidArgumentError{Reason: "invalid order id"}
	}

	st, ok := model.ParseOrderStatus(strings.TrimSpace(newStatus))
	if !ok {
		return OrderOutput{}, &InvalidArgumentError{Reason: "invalid status: " + newStatus}
	}

	var out OrderOutput
	var from model.OrderStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Resource: "order", ID: orderID}
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		//他人の注文は「存在しない扱い」にする
		if o.UserID != userID {
			return &NotFoundError{Resource: "order", ID: orderID}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		// すでに同じなら何もしない
		if o.Status == st {
			out = toOrderOutput(o, items)
			return nil
		}
		if !model.CanTransition(o.Status, st) {
			return &ConflictError{Reason: fmt.Sprintf("cannot transition %s to %s", o.Status, st)}
		}

		from = o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, st); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		o.Status = st
		o.UpdatedAt = time.Now()
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, u.mapReservationErr(err)
	}

	if from != "" {
		u.cache.InvalidateOrderStatus(ctx, userID, orderID)
		u.cache.SetOrderStatus(ctx, userID, orderID, out.Status)
		if u.events != nil {
			u.events.OrderStatusChanged(event.OrderStatusChangedPayload{
				OrderID: orderID,
				From:    string(from),
				To:      out.Status,
			})
		}
		u.log.Info("order status changed", "order_id", orderID, "from", string(from), "to", out.Status)
	}

	return out, nil
}

// GetOrderStatus はステータスのみを返す（ポーリング用）。キャッシュ優先。
func (u *OrderUsecase) GetOrderStatus(ctx context.Context, userID int64, orderID int64) (string, error) {
	if userID <= 0 {
		return "", ErrUnauthorized
	}
	if orderID <= 0 {
		return "", &InvalidArgumentError{Reason: "invalid order id"}
	}

	if status, ok := u.cache.OrderStatus(ctx, userID, orderID); ok {
		return status, nil
	}

	out, err := u.GetMyOrderDetail(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	u.cache.SetOrderStatus(ctx, userID, orderID, out.Status)
	return out.Status, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, ErrUnauthorized
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, u.mapReservationErr(err)
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, &InvalidArgumentError{Reason: "invalid order id"}
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return &NotFoundError{Resource: "order", ID: orderID}
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if o.UserID != userID {
			return &NotFoundError{Resource: "order", ID: orderID}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, u.mapReservationErr(err)
	}
	return out, nil
}

// usecaseの型付きエラーはそのまま、txのタイムアウトはConflict、それ以外はUnavailable。
func (u *OrderUsecase) mapReservationErr(err error) error {
	var (
		na *NotFoundError
		is *InsufficientStockError
		ia *InvalidArgumentError
		cf *ConflictError
	)
	if errors.As(err, &na) || errors.As(err, &is) || errors.As(err, &ia) || errors.As(err, &cf) {
		return err
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ConflictError{Reason: "reservation timed out"}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		TotalPrice: ComputeTotal(items),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		Items:      outItems,
	}
}

func toOrderPlacedPayload(out OrderOutput) event.OrderPlacedPayload {
	items := make([]event.ItemLine, 0, len(out.Items))
	for _, it := range out.Items {
		items = append(items, event.ItemLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	return event.OrderPlacedPayload{
		OrderID: out.ID,
		UserID:  out.UserID,
		Items:   items,
		Total:   out.TotalPrice.StringFixed(2),
	}
}
