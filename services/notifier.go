package services

// Типы уведомлений, отправляемых пользователям через WebSocket.
const (
	NotificationInvitationReceived = "invitation.received"
	NotificationInvitationAccepted = "invitation.accepted"
	NotificationInvitationRejected = "invitation.rejected"
	NotificationMembershipRemoved  = "membership.removed"
)

// Notifier доставляет уведомление всем подключениям пользователя.
// Доставка best-effort: офлайн-пользователь уведомление не получит.
type Notifier interface {
	NotifyUser(userID int, notificationType string, payload interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(int, string, interface{}) {}

// InvitationPayload - содержимое уведомлений о приглашениях.
type InvitationPayload struct {
	InvitationID int    `json:"invitation_id"`
	TeamID       int    `json:"team_id"`
	TeamName     string `json:"team_name"`
	EventID      int    `json:"event_id"`
	UserID       int    `json:"user_id"`
	ByUserID     int    `json:"by_user_id"`
}
