package service

import (
	"fmt"

	"srcds-admin/internal/config"
	"srcds-admin/internal/logger"
	"srcds-admin/internal/restriction"
	"srcds-admin/internal/storage"
)

// Restriction kinds. One generic engine instance per kind, each with its
// own table and identifier normalizer.
const (
	KindBanSteamID = "ban_steamid"
	KindBanIP      = "ban_ip"
	KindChatBlock  = "chat_block"
	KindVoiceBlock = "voice_block"
)

type kindDef struct {
	table      string
	normalizer restriction.Normalizer
	messageKey string
}

var kindDefs = map[string]kindDef{
	KindBanSteamID: {"banned_steamid", restriction.SteamIDNormalizer{}, "default_ban_reason"},
	KindBanIP:      {"banned_ip_address", restriction.IPAddressNormalizer{}, "default_ban_reason"},
	KindChatBlock:  {"blocked_chat_steamid", restriction.SteamIDNormalizer{}, "default_chat_reason"},
	KindVoiceBlock: {"blocked_voice_steamid", restriction.SteamIDNormalizer{}, "default_voice_reason"},
}

var (
	managers     = map[string]*restriction.Manager{}
	globalConfig *config.Config
)

// Initialize initializes the service with configuration
func Initialize(cfg *config.Config) {
	globalConfig = cfg
}

// InitManagers creates one restriction manager per kind, backed by its
// own table, and migrates the tables.
func InitManagers(notifier restriction.Notifier) error {
	db := storage.GetDB()
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}

	prefix := globalConfig.Database.TablePrefix
	for kind, def := range kindDefs {
		repo := storage.NewRestrictionRepository(db, prefix+def.table)
		if err := repo.MigrateTable(); err != nil {
			return fmt.Errorf("failed to migrate table %s: %w", repo.Table(), err)
		}
		managers[kind] = restriction.NewManager(kind, def.normalizer, repo, notifier)
	}

	return nil
}

// Manager returns the restriction manager for a kind
func Manager(kind string) (*restriction.Manager, bool) {
	m, ok := managers[kind]
	return m, ok
}

// Kinds lists the configured restriction kinds
func Kinds() []string {
	kinds := make([]string, 0, len(managers))
	for kind := range managers {
		kinds = append(kinds, kind)
	}
	return kinds
}

// RefreshAll bulk-reloads every kind's cache from the store. Called once
// at startup; a failing kind fails the whole load.
func RefreshAll() error {
	for kind, m := range managers {
		if err := m.Refresh(); err != nil {
			return fmt.Errorf("failed to refresh %s cache: %w", kind, err)
		}
	}
	return nil
}

// DefaultBanSeconds returns the configured default restriction duration
func DefaultBanSeconds() int64 {
	return globalConfig.Restriction.DefaultBanSeconds
}

// DenialMessage resolves the translatable denial message for a kind
func DenialMessage(kind string) string {
	def, ok := kindDefs[kind]
	if !ok {
		return ""
	}
	if msg, ok := globalConfig.Restriction.DenialMessages[def.messageKey]; ok {
		return msg
	}
	return "Access denied."
}

// LogAdminAction records an admin action in the server log
func LogAdminAction(format string, args ...interface{}) {
	logger.Infof("[admin] "+format, args...)
}
