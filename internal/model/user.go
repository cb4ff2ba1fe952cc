package model

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Operador runs the register; gerente additionally sees closing
// discrepancy breakdowns and history; administrador manages users and
// settings.
const (
	RoleOperador      = "operador"
	RoleGerente       = "gerente"
	RoleAdministrador = "administrador"
)

// User stores system users with role-based access, scoped to one clinic.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClinicID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
