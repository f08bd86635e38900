package api

import (
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

type ErrorResponse struct {
	Message   string    `json:"message"`
	RequestId string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
	// Outcome tells the client whether retrying a payment can help.
	Outcome *string `json:"outcome,omitempty"`
}

type ValidationError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

type ValidationErrorResponse struct {
	Message          string            `json:"message"`
	RequestId        string            `json:"requestId"`
	Timestamp        time.Time         `json:"timestamp"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

type SystemInfo struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

type HealthcheckResponse struct {
	Status     string     `json:"status"`
	SystemInfo SystemInfo `json:"systemInfo"`
}

type Metadata struct {
	CurrentPage  int `json:"currentPage"`
	FirstPage    int `json:"firstPage"`
	LastPage     int `json:"lastPage"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
}

type QuoteRequest struct {
	BranchId    int     `json:"branchId" validate:"required,min=1"`
	TableTypeId int     `json:"tableTypeId" validate:"required,min=1"`
	CouponCode  *string `json:"couponCode,omitempty" validate:"omitempty,coupon_code"`
}

type QuoteResponse struct {
	BasePrice   string `json:"basePrice"`
	Discount    string `json:"discount"`
	FinalAmount string `json:"finalAmount"`
}

type CreateReservationRequest struct {
	BranchId    int                `json:"branchId" validate:"required,min=1"`
	TableTypeId int                `json:"tableTypeId" validate:"required,min=1"`
	Name        string             `json:"name" validate:"required,max=100"`
	Email       string             `json:"email" validate:"required,email,max=255"`
	Phone       string             `json:"phone" validate:"required,phone"`
	Date        openapi_types.Date `json:"date" validate:"required,not_past_date"`
	TimeSlot    string             `json:"timeSlot" validate:"required,time_slot"`
	PartySize   int                `json:"partySize" validate:"required,min=1,max=20"`
	CouponCode  *string            `json:"couponCode,omitempty" validate:"omitempty,coupon_code"`
}

type Reservation struct {
	Id              uuid.UUID          `json:"id"`
	BranchId        int                `json:"branchId"`
	TableTypeId     int                `json:"tableTypeId"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Date            openapi_types.Date `json:"date"`
	TimeSlot        string             `json:"timeSlot"`
	PartySize       int                `json:"partySize"`
	BasePrice       string             `json:"basePrice"`
	CouponCode      *string            `json:"couponCode,omitempty"`
	DiscountApplied string             `json:"discountApplied"`
	FinalAmount     string             `json:"finalAmount"`
	Status          string             `json:"status"`
	PaymentMethod   *string            `json:"paymentMethod,omitempty"`
	PaymentId       *string            `json:"paymentId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

type ReservationSummary struct {
	Id            uuid.UUID          `json:"id"`
	BranchId      int                `json:"branchId"`
	TableTypeName string             `json:"tableTypeName"`
	Date          openapi_types.Date `json:"date"`
	TimeSlot      string             `json:"timeSlot"`
	PartySize     int                `json:"partySize"`
	FinalAmount   string             `json:"finalAmount"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
}

type GetReservationsOfUserParams struct {
	Page     *int `validate:"omitempty,min=1"`
	PageSize *int `validate:"omitempty,min=1,max=100"`
}

type UserReservationsResponse struct {
	Reservations []ReservationSummary `json:"reservations"`
	Metadata     Metadata             `json:"metadata"`
}

type InitiatePaymentRequest struct {
	Method string `json:"method" validate:"required,oneof=gateway stored_balance"`
}

type PaymentIntent struct {
	Reference    string `json:"reference"`
	ClientSecret string `json:"clientSecret"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
}

type PaymentInitiationResponse struct {
	Reservation Reservation    `json:"reservation"`
	Payment     *PaymentIntent `json:"payment,omitempty"`
}

type ConfirmGatewayPaymentRequest struct {
	PaymentReference string `json:"paymentReference" validate:"required,max=255"`
}

type WalletTransaction struct {
	Id            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Amount        string     `json:"amount"`
	Description   string     `json:"description"`
	ReservationId *uuid.UUID `json:"reservationId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type WalletResponse struct {
	Balance      string              `json:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
}
