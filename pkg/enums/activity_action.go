package enums

// ActivityAction names the audited operations recorded in activity_logs.
type ActivityAction string

const (
	ActivityOrderPlaced        ActivityAction = "order.placed"
	ActivityOrderPlaceFailed   ActivityAction = "order.place_failed"
	ActivityOrderStatusChanged ActivityAction = "order.status_changed"
	ActivityOrderCancelled     ActivityAction = "order.cancelled"
	ActivityOrderExpired       ActivityAction = "order.expired"
	ActivityPaymentVerified    ActivityAction = "payment.verified"
	ActivityPaymentRejected    ActivityAction = "payment.rejected"
	ActivityProductCreated     ActivityAction = "product.created"
	ActivityProductUpdated     ActivityAction = "product.updated"
	ActivityProductDeleted     ActivityAction = "product.deleted"
	ActivityProductRestored    ActivityAction = "product.restored"
	ActivityStockAdjusted      ActivityAction = "product.stock_adjusted"
	ActivitySettingsUpdated    ActivityAction = "settings.updated"
	ActivityStoreOpened        ActivityAction = "settings.store_opened"
	ActivityStoreClosed        ActivityAction = "settings.store_closed"
)

func (a ActivityAction) String() string { return string(a) }
