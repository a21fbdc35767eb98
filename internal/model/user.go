package model

// ── 角色 ──

const (
	RoleOfficer    = "OFFICER"
	RoleChecker    = "CHECKER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// ValidRole 是否为已知角色
func ValidRole(role string) bool {
	switch role {
	case RoleOfficer, RoleChecker, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// User 用户表 — 对应 users
// 仅 role=OFFICER 且 is_active 的用户参与排班
type User struct {
	UserID                    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username                  string `gorm:"type:varchar(64);not null;uniqueIndex"          json:"username"`
	Name                      string `gorm:"type:varchar(100);not null"                     json:"name"`
	PasswordHash              string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role                      string `gorm:"type:varchar(20);not null;default:'OFFICER'"    json:"role"`
	IsActive                  bool   `gorm:"not null;default:true"                          json:"is_active"`
	DifferentDeviceLoginCount int    `gorm:"not null;default:0"                             json:"different_device_login_count"`
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsSchedulable 是否参与排班
func (u *User) IsSchedulable() bool {
	return u.IsActive && u.Role == RoleOfficer
}
