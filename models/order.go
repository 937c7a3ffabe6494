package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string
type PaymentMethod string
type NotificationStatus string

const (
	// Order statuses. Any status may be set to any other by an admin.
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"

	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentCreditCard     PaymentMethod = "Credit Card"
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentJazzCash       PaymentMethod = "JazzCash"
	PaymentEasyPaisa      PaymentMethod = "EasyPaisa"

	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationSkipped NotificationStatus = "skipped"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var paymentMethods = []PaymentMethod{
	PaymentCashOnDelivery,
	PaymentCreditCard,
	PaymentPayPal,
	PaymentJazzCash,
	PaymentEasyPaisa,
}

type Order struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	UserID             uint               `gorm:"index;not null" json:"userId"`
	User               *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Products           []OrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"products"`
	TotalAmount        decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	Status             OrderStatus        `gorm:"type:varchar(20);default:'Pending';not null" json:"status"`
	PaymentMethod      PaymentMethod      `gorm:"type:varchar(32);not null" json:"paymentMethod"`
	Address            string             `gorm:"not null" json:"address"`
	PhoneNumber        string             `gorm:"not null" json:"phoneNumber"`
	NotificationStatus NotificationStatus `gorm:"type:varchar(16)" json:"notificationStatus,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type OrderItem struct {
	ID        uint     `gorm:"primaryKey" json:"-"`
	OrderID   uint     `gorm:"index;not null" json:"-"`
	ProductID uint     `gorm:"not null" json:"product"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"productDetails,omitempty"`
	Quantity  int      `gorm:"not null" json:"quantity"`
}

// ParseOrderStatus maps client input onto a known status, ignoring case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, pm := range paymentMethods {
		if strings.EqualFold(string(pm), strings.TrimSpace(s)) {
			return pm, true
		}
	}
	return "", false
}
