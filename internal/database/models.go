package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ReviewID  uuid.UUID       `json:"review_id"`
	Payload   json.RawMessage `json:"payload"`
	Status    string          `json:"status"`
	ClientID  sql.NullString  `json:"client_id"`
	Attempts  int32           `json:"attempts"`
	Reason    sql.NullString  `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
