package model

import "time"

// User holds the notification preferences the pipeline needs.
// Account management lives outside this service.
type User struct {
	ID                    int64     `db:"id" json:"id"`
	Email                 string    `db:"email" json:"email"`
	FirstName             *string   `db:"first_name" json:"firstName,omitempty"`
	EmailNotifications    bool      `db:"email_notifications" json:"emailNotifications"`
	PushNotifications     bool      `db:"push_notifications" json:"pushNotifications"`
	WhatsAppNotifications bool      `db:"whatsapp_notifications" json:"whatsappNotifications"`
	WhatsAppNumber        *string   `db:"whatsapp_number" json:"whatsappNumber,omitempty"`
	FCMToken              *string   `db:"fcm_token" json:"-"`
	CreatedAt             time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time `db:"updated_at" json:"updatedAt"`
}

// WantsChannel reports whether the user enabled ch and has the address it needs
func (u *User) WantsChannel(ch Channel) bool {
	switch ch {
	case ChannelEmail:
		return u.EmailNotifications
	case ChannelPush:
		return u.PushNotifications && u.FCMToken != nil && *u.FCMToken != ""
	case ChannelWhatsApp:
		return u.WhatsAppNotifications && u.WhatsAppNumber != nil && *u.WhatsAppNumber != ""
	}
	return false
}
