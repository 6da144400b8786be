package types

import "time"

// InstanceKey tags a mounted instance with where it came from
type InstanceKey struct {
	OriginSection string `json:"origin_section"`
	ApplicationID string `json:"application_id"`
}

// Instance is the single live application mounted in the engagement window
type Instance struct {
	ID        string      `json:"id"`
	Key       InstanceKey `json:"key"`
	Specifier string      `json:"specifier"`
	NodeID    string      `json:"node_id"`
	MountedAt time.Time   `json:"mounted_at"`
}

// InstanceStats contains instance manager statistics
type InstanceStats struct {
	Mounted      bool         `json:"mounted"`
	Current      *InstanceKey `json:"current,omitempty"`
	TotalMounts  int64        `json:"total_mounts"`
	Replacements int64        `json:"replacements"`
	Unmounts     int64        `json:"unmounts"`
}
