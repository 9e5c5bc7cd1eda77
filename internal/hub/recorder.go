package hub

import "review-hub/internal/domain"

// Причины возврата ревью в очередь.
const (
	reasonClientDisconnected   = "client_disconnected"
	reasonHeartbeatTimeout     = "heartbeat_timeout"
	reasonWriteFailed          = "write_failed"
	reasonOutboxFull           = "outbox_full"
	reasonFailed               = "failed"
	reasonDeclined             = "declined"
	reasonDeadlineExceeded     = "deadline_exceeded"
	reasonCancelUnacknowledged = "cancel_unacknowledged"
	reasonHubStopped           = "hub_stopped"
)

// Recorder получает события хаба для метрик. Вызывается под мьютексом хаба,
// поэтому реализация не должна блокироваться.
type Recorder interface {
	ReviewDispatched()
	ReviewRequeued(reason string)
	ClientUnresponsive()
	InvariantViolation(kind string)
	StatusDropped()
}

type nopRecorder struct{}

func (nopRecorder) ReviewDispatched()         {}
func (nopRecorder) ReviewRequeued(string)     {}
func (nopRecorder) ClientUnresponsive()       {}
func (nopRecorder) InvariantViolation(string) {}
func (nopRecorder) StatusDropped()            {}

// StatusListener получает смены статусов ревью в порядке их возникновения.
// Вызывается из отдельной горутины, вне мьютекса хаба.
type StatusListener func(change domain.StatusChange)
