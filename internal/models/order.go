package models

// Order is the order body exactly as the remote menu service expects it.
// Field names mirror the service's JSON contract.
type Order struct {
	CustomerPhone   string      `json:"customerPhone" validate:"required"`
	CustomerAddress string      `json:"customerAddress,omitempty" validate:"required_if=ServiceType takeaway"`
	TableNumber     string      `json:"tableNumber,omitempty" validate:"required_if=ServiceType dine_in"`
	ServiceType     string      `json:"serviceType" validate:"required,oneof=dine_in takeaway"`
	PaymentMethod   string      `json:"paymentMethod" validate:"required,oneof=cash card online mixed"`
	TotalAmount     float64     `json:"totalAmount"`
	FinalAmount     float64     `json:"finalAmount"`
	DiscountAmount  float64     `json:"discountAmount"`
	Notes           string      `json:"notes,omitempty"`
	RestaurantName  string      `json:"restaurantName,omitempty"`
	Status          string      `json:"status,omitempty"`
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
}

type OrderItem struct {
	ProductID int64   `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Price     float64 `json:"price"`
}

// SubmitResult is what the submission gate reports back to the UI layer.
// Offline means the order was accepted into the local queue instead of
// being confirmed by the remote service.
type SubmitResult struct {
	Success bool   `json:"success"`
	OrderID int64  `json:"orderId,omitempty"`
	Offline bool   `json:"offline,omitempty"`
	Error   string `json:"error,omitempty"`
}
