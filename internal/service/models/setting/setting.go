// Package setting names the keys of the settings table.
package setting

// Keys used by the notification gateway.
const (
	AdminChatID     = "ADMIN_CHAT_ID"
	ShopAdminChatID = "SHOP_ADMIN_CHAT_ID"
)
