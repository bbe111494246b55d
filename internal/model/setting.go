package model

import "time"

// Setting keys read by the server.
const (
	// SettingMCQPassingPercentage is the minimum assessment percentage that
	// turns a submit into a pass. The comparison is inclusive.
	SettingMCQPassingPercentage = "mcq_passing_percentage"
)

// publicSettingKeys may be read by candidates without authentication.
var publicSettingKeys = []string{SettingMCQPassingPercentage}

// PublicSettingKeys lists the settings exposed on the public endpoint.
func PublicSettingKeys() []string {
	return append([]string(nil), publicSettingKeys...)
}

// AppSetting is one row of the key-value settings table.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SettingsMap flattens rows into key-value pairs.
func SettingsMap(rows []AppSetting) map[string]string {
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required,min=1,dive,keys,required,max=100,endkeys,max=1000"`
}
