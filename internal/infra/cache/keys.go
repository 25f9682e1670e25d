package cache

import "time"

const (
	// Idempotency create order: idem:order:create:{user_id}:{key} -> order_id
	keyIdemOrderCreate = "idem:order:create:%d:%s"

	// Cache status order: order_status:{user_id}:{order_id} -> "Pending" など
	keyOrderStatus = "order_status:%d:%d"
)

var (
	ttlIdempotency = 24 * time.Hour
	ttlStatusCache = 5 * time.Minute
)
