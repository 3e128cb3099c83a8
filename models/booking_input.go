package models

import "time"

// RentalRequestInput is what a renter submits to ask for a product.
type RentalRequestInput struct {
	ProductID     string    `json:"productId" binding:"required"`
	OwnerID       string    `json:"ownerId"`
	OwnerClerkID  string    `json:"ownerClerkId" binding:"required"`
	RenterID      string    `json:"renterId"`
	RenterClerkID string    `json:"renterClerkId" binding:"required"`
	StartDate     time.Time `json:"startDate" binding:"required"`
	EndDate       time.Time `json:"endDate" binding:"required"`
	Pricing       struct {
		Total float64 `json:"total" binding:"required"`
	} `json:"pricing"`
}

type OwnerDecisionInput struct {
	OwnerClerkID string `json:"ownerClerkId"`
	Reason       string `json:"reason"`
}

type ConfirmPaymentInput struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

type ConfirmPickupInput struct {
	OwnerPayoutDestination string `json:"ownerStripeAccountId"`
}

type CompleteInput struct {
	DropLocation string `json:"dropLocation"`
}

type CancelInput struct {
	Reason string `json:"reason"`
}

type IssueCodeInput struct {
	UserType Party `json:"userType" binding:"required"`
}

type VerifyCodeInput struct {
	OTP      string `json:"otp" binding:"required"`
	UserType Party  `json:"userType" binding:"required"`
}
