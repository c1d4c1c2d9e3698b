// Package session はサーバーサイドセッションの永続化と管理を提供します。
package session

import "time"

// フラッシュメッセージのカテゴリ。
const (
	FlashError = "error"
	FlashInfo  = "info"
)

// FlashEntry はリダイレクトをまたいで一度だけ表示されるメッセージです。
type FlashEntry struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Subject はセッションに紐づく認証済みユーザーへの参照です。
// パスワードハッシュは決して含めません。
type Subject struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session はセッションの現在状態を表します。
// Subject が nil の場合は匿名セッションです。
type Session struct {
	ID        string            `json:"id"`
	Subject   *Subject          `json:"subject,omitempty"`
	Flash     []FlashEntry      `json:"flash,omitempty"`
	Values    map[string]string `json:"values,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Authenticated はセッションが認証済みかどうかを返します。
func (s *Session) Authenticated() bool {
	return s.Subject != nil
}

// PushFlash はフラッシュメッセージをキューの末尾に追加します。
func (s *Session) PushFlash(category, text string) {
	s.Flash = append(s.Flash, FlashEntry{Category: category, Text: text})
}

// DrainFlash はキューの全メッセージを挿入順で返し、同時にキューを空にします。
// 同一リクエスト内で二度呼んでも二度目は何も返しません。
// 呼び出し側が空になった状態を保存する責任を持ちます。
func (s *Session) DrainFlash() []FlashEntry {
	if len(s.Flash) == 0 {
		return nil
	}
	entries := s.Flash
	s.Flash = nil
	return entries
}

// Value はセッションに保存された値を返します。未設定の場合は空文字列です。
func (s *Session) Value(key string) string {
	return s.Values[key]
}

// SetValue はセッションに値を保存します。
func (s *Session) SetValue(key, value string) {
	if s.Values == nil {
		s.Values = make(map[string]string)
	}
	s.Values[key] = value
}
