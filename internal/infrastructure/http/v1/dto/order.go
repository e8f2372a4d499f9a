package dto

import (
	"time"

	"bookstore/internal/core/types"
	"bookstore/internal/domain/orders"
)

// --- Request DTOs ---

// ShipOrderRequest records shipment details.
type ShipOrderRequest struct {
	Carrier    string `json:"carrier" binding:"required"`
	TrackingNo string `json:"trackingNo,omitempty"`
}

// --- Response DTOs ---

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customerId"`
	Status      string              `json:"status"`
	TotalAmount types.Money         `json:"totalAmount"`
	Receiver    ReceiverRequest     `json:"receiver"`
	Items       []OrderItemResponse `json:"items"`
	Shipment    *ShipmentResponse   `json:"shipment,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	PaidAt      *time.Time          `json:"paidAt,omitempty"`
}

// OrderItemResponse represents one order line.
type OrderItemResponse struct {
	ID        string      `json:"id"`
	BookID    string      `json:"bookId"`
	Qty       int64       `json:"qty"`
	UnitPrice types.Money `json:"unitPrice"`
}

// ShipmentResponse carries shipment details once an order ships.
type ShipmentResponse struct {
	Carrier    string     `json:"carrier"`
	TrackingNo string     `json:"trackingNo,omitempty"`
	ShippedAt  *time.Time `json:"shippedAt,omitempty"`
}

// FromOrder converts domain entity to response DTO.
func FromOrder(o *orders.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:          o.ID.String(),
		CustomerID:  o.CustomerID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Receiver: ReceiverRequest{
			Name:  o.Receiver.Name,
			Phone: o.Receiver.Phone,
			Addr:  o.Receiver.Addr,
		},
		CreatedAt: o.CreatedAt,
		PaidAt:    o.PaidAt,
	}

	resp.Items = make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		resp.Items[i] = OrderItemResponse{
			ID:        item.ID.String(),
			BookID:    item.BookID.String(),
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		}
	}

	if o.Shipment != nil {
		resp.Shipment = &ShipmentResponse{
			Carrier:    o.Shipment.Carrier,
			TrackingNo: o.Shipment.TrackingNo,
			ShippedAt:  o.Shipment.ShippedAt,
		}
	}
	return resp
}

// FromOrders converts a slice of domain entities.
func FromOrders(list []*orders.Order) []*OrderResponse {
	items := make([]*OrderResponse, len(list))
	for i, o := range list {
		items[i] = FromOrder(o)
	}
	return items
}
