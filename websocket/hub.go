package websocket

import (
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event types pushed to the admin billing dashboard
const (
	EventPaymentCompleted      = "payment_completed"
	EventSubscriptionActivated = "subscription_activated"
	EventSubscriptionCanceled  = "subscription_canceled"
	EventSubscriptionPastDue   = "subscription_past_due"
	EventManualPaymentPending  = "manual_payment_pending"
	EventManualPaymentReviewed = "manual_payment_reviewed"
)

// BillingEvent is a message sent over WebSocket to connected admins.
type BillingEvent struct {
	Type     string      `json:"type"`
	Message  string      `json:"message"`
	ClinicID string      `json:"clinicId,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	At       time.Time   `json:"at"`
}

// Hub maintains the set of connected admin clients and broadcasts billing
// events to them. Connections are authenticated before they reach the hub.
type Hub struct {
	clients    map[*Client]bool
	byUser     map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		byUser:     make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			if client.UserID != primitive.NilObjectID {
				h.byUser[client.UserID] = client
			}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if client.UserID != primitive.NilObjectID {
					delete(h.byUser, client.UserID)
				}
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected admin. Write errors on one
// connection do not stop delivery to the others.
func (h *Hub) Broadcast(event BillingEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.Conn.WriteJSON(event)
	}
}

// SendToUser sends an event to one connected admin.
func (h *Hub) SendToUser(userID primitive.ObjectID, event BillingEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	client, ok := h.byUser[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(event)
}

// NotifyPaymentCompleted broadcasts a completed payment for a clinic.
func (h *Hub) NotifyPaymentCompleted(clinicID primitive.ObjectID, data interface{}) {
	h.Broadcast(BillingEvent{
		Type:     EventPaymentCompleted,
		Message:  "Payment completed",
		ClinicID: clinicID.Hex(),
		Data:     data,
	})
}

// NotifyManualPaymentPending broadcasts a bank transfer waiting for review.
func (h *Hub) NotifyManualPaymentPending(clinicID primitive.ObjectID, data interface{}) {
	h.Broadcast(BillingEvent{
		Type:     EventManualPaymentPending,
		Message:  "Manual payment submitted for review",
		ClinicID: clinicID.Hex(),
		Data:     data,
	})
}

// NotifySubscriptionChanged broadcasts a subscription status transition.
func (h *Hub) NotifySubscriptionChanged(eventType string, clinicID primitive.ObjectID, data interface{}) {
	h.Broadcast(BillingEvent{
		Type:     eventType,
		Message:  "Subscription status changed",
		ClinicID: clinicID.Hex(),
		Data:     data,
	})
}
