package enum

// ── Order lifecycle (wire values, CHECK-free: legacy store used raw strings) ──

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeDelivery = "DELIVERY"
	OrderTypeTakeaway = "TAKEAWAY"
)

// ── Document collections ──

const (
	CollectionOrders = "orders"
	CollectionMenu   = "menu_items"
	CollectionUsers  = "users"
)

// ── Live-query purposes: at most one active subscription per purpose ──

const (
	PurposePendingOrders   = "pending_orders"
	PurposeCompletedOrders = "completed_orders"
	PurposeMenu            = "menu"
)

// Platform is stamped on every order this service writes, so legacy
// clients can tell order sources apart.
const Platform = "go-api"
