package models

import (
	"strings"
	"time"
)

// User represents a dashboard account, local or Discord-linked.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Username        string    `gorm:"not null" json:"username"`
	UsernameKey     string    `gorm:"size:191;uniqueIndex;not null" json:"-"` // lowercased Username
	PasswordHash    string    `json:"-"`
	Email           string    `json:"email,omitempty"`
	DiscordID       *string   `gorm:"size:64;uniqueIndex" json:"discordId,omitempty"`
	DiscordUsername string    `json:"discordUsername,omitempty"`
	DiscordAvatar   string    `json:"discordAvatar,omitempty"`
	IsAdmin         bool      `gorm:"not null" json:"isAdmin"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UsernameKey normalizes a username for case-insensitive comparison.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// HasPassword reports whether the user can log in with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// UserPatch carries the fields of a partial user update. Nil fields are left untouched.
type UserPatch struct {
	PasswordHash    *string
	Email           *string
	DiscordUsername *string
	DiscordAvatar   *string
	IsAdmin         *bool
}

func (p UserPatch) Apply(u *User) {
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.DiscordUsername != nil {
		u.DiscordUsername = *p.DiscordUsername
	}
	if p.DiscordAvatar != nil {
		u.DiscordAvatar = *p.DiscordAvatar
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
}

const (
	SettingsID           = 1
	DefaultDashboardName = "MinePanel"
	DefaultSkyportAPIURL = "https://skyport.panel/api"
)

// Settings is the singleton dashboard configuration record.
type Settings struct {
	ID            uint   `json:"id"`
	DashboardName string `json:"dashboardName"`
	SkyportAPIKey string `json:"skyportApiKey"`
	SkyportAPIURL string `json:"skyportApiUrl"`
}

// DefaultSettings returns the record every store starts with.
func DefaultSettings(dashboardName, apiURL string) Settings {
	if dashboardName == "" {
		dashboardName = DefaultDashboardName
	}
	if apiURL == "" {
		apiURL = DefaultSkyportAPIURL
	}
	return Settings{
		ID:            SettingsID,
		DashboardName: dashboardName,
		SkyportAPIURL: apiURL,
	}
}

// SettingsPatch is the body of an admin settings update.
type SettingsPatch struct {
	DashboardName *string `json:"dashboardName" validate:"omitempty,notblank,min=3"`
	SkyportAPIKey *string `json:"skyportApiKey"`
	SkyportAPIURL *string `json:"skyportApiUrl" validate:"omitempty,httpurl"`
}

func (p SettingsPatch) Apply(s *Settings) {
	if p.DashboardName != nil {
		s.DashboardName = *p.DashboardName
	}
	if p.SkyportAPIKey != nil {
		s.SkyportAPIKey = *p.SkyportAPIKey
	}
	if p.SkyportAPIURL != nil {
		s.SkyportAPIURL = *p.SkyportAPIURL
	}
}

// ServerStatus is the last known state of a game server.
type ServerStatus string

const (
	StatusOnline     ServerStatus = "online"
	StatusOffline    ServerStatus = "offline"
	StatusInstalling ServerStatus = "installing"
	StatusStarting   ServerStatus = "starting"
	StatusStopping   ServerStatus = "stopping"
	StatusUnknown    ServerStatus = "unknown"
)

func (s ServerStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusInstalling, StatusStarting, StatusStopping, StatusUnknown:
		return true
	}
	return false
}

// Server represents a Minecraft server shown on the dashboard.
type Server struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"not null" json:"name"`
	Identifier string       `gorm:"size:191;uniqueIndex;not null" json:"identifier"`
	Address    string       `gorm:"not null" json:"address"`
	Status     ServerStatus `gorm:"not null" json:"status"`
	Players    int          `json:"players"`
	MaxPlayers int          `json:"maxPlayers"`
	Memory     string       `json:"memory"`
	Uptime     string       `json:"uptime"`
	LastSeen   *time.Time   `json:"lastSeen"`
}

// ServerPatch carries the fields of a partial server update.
type ServerPatch struct {
	Name       *string       `json:"name" validate:"omitempty,notblank,min=3"`
	Address    *string       `json:"address" validate:"omitempty,notblank,min=3"`
	Status     *ServerStatus `json:"status" validate:"omitempty,oneof=online offline installing starting stopping unknown"`
	Players    *int          `json:"players" validate:"omitempty,gte=0"`
	MaxPlayers *int          `json:"maxPlayers" validate:"omitempty,gte=0"`
	Memory     *string       `json:"memory"`
	Uptime     *string       `json:"uptime"`
	LastSeen   *time.Time    `json:"lastSeen" validate:"omitempty,notfuture"`
}

func (p ServerPatch) Apply(s *Server) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.Players != nil {
		s.Players = *p.Players
	}
	if p.MaxPlayers != nil {
		s.MaxPlayers = *p.MaxPlayers
	}
	if p.Memory != nil {
		s.Memory = *p.Memory
	}
	if p.Uptime != nil {
		s.Uptime = *p.Uptime
	}
	if p.LastSeen != nil {
		t := *p.LastSeen
		s.LastSeen = &t
	}
}

// Node is a hosting node as reported by the Skyport panel. It is never stored.
type Node struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	FQDN       string `json:"fqdn"`
	Memory     int64  `json:"memory"`
	MemoryUsed int64  `json:"memoryUsed"`
	Disk       int64  `json:"disk"`
	DiskUsed   int64  `json:"diskUsed"`
	Servers    int    `json:"servers"`
	Status     string `json:"status"`
}

// Egg is a server template from the Skyport panel, flattened out of its nest.
type Egg struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Nest        string `json:"nest"`
	DockerImage string `json:"dockerImage"`
	Startup     string `json:"startup"`
}
