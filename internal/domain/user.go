package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthProvider string

const (
	ProviderLocal  AuthProvider = "LOCAL"
	ProviderGoogle AuthProvider = "GOOGLE"
)

type User struct {
	ID                        primitive.ObjectID `bson:"_id,omitempty"                         json:"id"`
	Name                      string             `bson:"name"                                  json:"name"`
	Email                     string             `bson:"email"                                 json:"email"`
	Password                  string             `bson:"password,omitempty"                    json:"-"` // bcrypt; empty for google-only accounts
	AuthProvider              AuthProvider       `bson:"auth_provider"                         json:"auth_provider"`
	ResetPasswordToken        *string            `bson:"reset_password_token"                  json:"-"`
	ResetPasswordTokenExpired *time.Time         `bson:"reset_password_token_expired"          json:"-"`
	CreatedAt                 time.Time          `bson:"created_at"                            json:"created_at"`
	UpdatedAt                 time.Time          `bson:"updated_at"                            json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a local password.
func (u *User) HasPassword() bool { return u != nil && u.Password != "" }
