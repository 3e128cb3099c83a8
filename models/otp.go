package models

import "time"

type OTPType string

const (
	OTPDelivery OTPType = "delivery"
	OTPReturn   OTPType = "return"
)

func (t OTPType) Valid() bool {
	return t == OTPDelivery || t == OTPReturn
}

// OneTimeCode is the handover code both parties confirm at pickup or return.
type OneTimeCode struct {
	ID             string    `bson:"id" json:"id"`
	BookingID      string    `bson:"booking_id" json:"bookingId"`
	Type           OTPType   `bson:"type" json:"type"`
	Code           string    `bson:"code" json:"-"`
	ExpiresAt      time.Time `bson:"expires_at" json:"expiresAt"`
	OwnerVerified  bool      `bson:"owner_verified" json:"ownerVerified"`
	RenterVerified bool      `bson:"renter_verified" json:"renterVerified"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// Verified reports the flag belonging to the given party.
func (o *OneTimeCode) Verified(p Party) bool {
	if p == PartyOwner {
		return o.OwnerVerified
	}
	return o.RenterVerified
}

func (o *OneTimeCode) BothVerified() bool {
	return o.OwnerVerified && o.RenterVerified
}
