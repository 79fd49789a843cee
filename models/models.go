package models

import "time"

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleDecorator Role = "decorator"
	RoleAdmin     Role = "admin"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityAssigned  Availability = "assigned"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
)

type User struct {
	Email     string       `json:"email" bson:"email"`
	Name      string       `json:"name" bson:"name"`
	Photo     string       `json:"photo,omitempty" bson:"photo,omitempty"`
	Role      Role         `json:"role,omitempty" bson:"role,omitempty"`
	Status    Availability `json:"status,omitempty" bson:"status,omitempty"`
	CreatedAt time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// ServicePackage is read-only from the booking core's perspective.
type ServicePackage struct {
	ServiceID   string    `json:"serviceId" bson:"serviceId"`
	Name        string    `json:"serviceName" bson:"serviceName"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

type Booking struct {
	BookingID      string        `json:"bookingId" bson:"bookingId"`
	CustomerEmail  string        `json:"customerEmail" bson:"customerEmail"`
	CustomerName   string        `json:"customerName,omitempty" bson:"customerName,omitempty"`
	ServiceID      string        `json:"serviceId" bson:"serviceId"`
	ServiceName    string        `json:"serviceName" bson:"serviceName"`
	Price          float64       `json:"price" bson:"price"`
	BookingDate    string        `json:"bookingDate" bson:"bookingDate"`
	ServiceStatus  ServiceStatus `json:"serviceStatus,omitempty" bson:"serviceStatus,omitempty"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	DecoratorEmail string        `json:"decoratorEmail,omitempty" bson:"decoratorEmail,omitempty"`
	DecoratorName  string        `json:"decoratorName,omitempty" bson:"decoratorName,omitempty"`
	TrackingID     string        `json:"trackingId,omitempty" bson:"trackingId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Payment is append-only; transactionId carries the unique index that makes
// settlement reconciliation idempotent.
type Payment struct {
	PaymentID     string        `json:"paymentId" bson:"paymentId"`
	TransactionID string        `json:"transactionId" bson:"transactionId"`
	Amount        float64       `json:"amount" bson:"amount"`
	Currency      string        `json:"currency" bson:"currency"`
	CustomerEmail string        `json:"customerEmail" bson:"customerEmail"`
	BookingID     string        `json:"bookingId" bson:"bookingId"`
	ServiceID     string        `json:"serviceId,omitempty" bson:"serviceId,omitempty"`
	ServiceName   string        `json:"serviceName,omitempty" bson:"serviceName,omitempty"`
	PaymentStatus PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	TrackingID    string        `json:"trackingId" bson:"trackingId"`
	PaidAt        time.Time     `json:"paidAt" bson:"paidAt"`
}

// CompletedService is the archived copy of a Booking; append-only.
type CompletedService struct {
	BookingID      string        `json:"bookingId" bson:"bookingId"`
	CustomerEmail  string        `json:"customerEmail" bson:"customerEmail"`
	CustomerName   string        `json:"customerName,omitempty" bson:"customerName,omitempty"`
	ServiceID      string        `json:"serviceId" bson:"serviceId"`
	ServiceName    string        `json:"serviceName" bson:"serviceName"`
	Price          float64       `json:"price" bson:"price"`
	BookingDate    string        `json:"bookingDate" bson:"bookingDate"`
	Status         string        `json:"status" bson:"status"`
	PaymentStatus  PaymentStatus `json:"paymentStatus" bson:"paymentStatus"`
	DecoratorEmail string        `json:"decoratorEmail,omitempty" bson:"decoratorEmail,omitempty"`
	DecoratorName  string        `json:"decoratorName,omitempty" bson:"decoratorName,omitempty"`
	TrackingID     string        `json:"trackingId,omitempty" bson:"trackingId,omitempty"`
	BookedAt       time.Time     `json:"bookedAt" bson:"bookedAt"`
	CompletedAt    time.Time     `json:"completedAt" bson:"completedAt"`
}

// CompletedMarker is the fixed status stamped on archived bookings.
const CompletedMarker = "Completed"
