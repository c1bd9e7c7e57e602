package service

// The game-event bridge: the server's connection admission and
// chat/voice hooks call these with the raw identifiers they carry and
// act on the decision. All checks are cache-only, never touching the
// store, since they run inside the server tick.

// Decision answers a restrict/allow question and carries the denial
// message for the restricted case.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

var allowed = Decision{Allowed: true}

// CheckConnect decides whether a connecting identity may join, testing
// both the SteamID ban list and the IP ban list.
func CheckConnect(steamID, address string) Decision {
	if m, ok := managers[KindBanSteamID]; ok && steamID != "" && m.IsRestricted(steamID) {
		return Decision{Kind: KindBanSteamID, Message: DenialMessage(KindBanSteamID)}
	}
	if m, ok := managers[KindBanIP]; ok && address != "" && m.IsRestricted(address) {
		return Decision{Kind: KindBanIP, Message: DenialMessage(KindBanIP)}
	}
	return allowed
}

// CheckChat decides whether the identity may send chat messages.
func CheckChat(steamID string) Decision {
	if m, ok := managers[KindChatBlock]; ok && m.IsRestricted(steamID) {
		return Decision{Kind: KindChatBlock, Message: DenialMessage(KindChatBlock)}
	}
	return allowed
}

// CheckVoice decides whether the identity may speak.
func CheckVoice(steamID string) Decision {
	if m, ok := managers[KindVoiceBlock]; ok && m.IsRestricted(steamID) {
		return Decision{Kind: KindVoiceBlock, Message: DenialMessage(KindVoiceBlock)}
	}
	return allowed
}
