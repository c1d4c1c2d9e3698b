// Package users はユーザーレコードの永続化を提供します。
package users

import "time"

// User はユーザーレコードを表します。
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
