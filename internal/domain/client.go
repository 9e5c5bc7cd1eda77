package domain

import "time"

// ReviewerClient представляет подключенного клиента-ревьювера.
type ReviewerClient struct {
	ID          string    `json:"client_id"`
	Capacity    int       `json:"capacity"`
	Load        int       `json:"load"`
	ConnectedAt time.Time `json:"connected_at"`
}

// Free возвращает true, если у клиента есть свободная емкость.
func (c ReviewerClient) Free() bool {
	return c.Load < c.Capacity
}

// Assignment - привязка одного ревью к одному клиенту.
// Deadline нулевой, если таймаут назначения не задан.
type Assignment struct {
	ReviewID  string    `json:"review_id"`
	ClientID  string    `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
	Deadline  time.Time `json:"deadline,omitempty"`
}

// HasDeadline сообщает, ограничено ли назначение по времени.
func (a Assignment) HasDeadline() bool {
	return !a.Deadline.IsZero()
}
