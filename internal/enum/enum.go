package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusAwaitingConfirmation = "AWAITING_CONFIRMATION"
	OrderStatusQueued               = "QUEUED"
	OrderStatusPreparing            = "PREPARING"
	OrderStatusReady                = "READY"
	OrderStatusDelivered            = "DELIVERED"
	OrderStatusCancelled            = "CANCELLED"
)

// ── Arqueo result (CHECK constrained in DB) ──

const (
	ArqueoStatusBalanced = "BALANCED"
	ArqueoStatusSurplus  = "SURPLUS"
	ArqueoStatusShortage = "SHORTAGE"
)

// ── Staff roles (CHECK constrained in DB) ──

const (
	RoleAdmin    = "ADMIN"
	RoleMesero   = "MESERO"
	RoleCocinero = "COCINERO"
	RoleCajero   = "CAJERO"
)

// ── Normalized payment buckets ──

const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodTransfer = "TRANSFER"
)

// ── Dashboard range filters (no DB constraint) ──

const (
	RangeToday  = "today"
	RangeWeek   = "week"
	RangeMonth  = "month"
	RangeCustom = "custom"
)
