package model

type Member struct {
	UUID       string            `json:"UUID"`
	Addr       string            `json:"Addr"`
	Version    string            `json:"Version"`
	LiteMember bool              `json:"LiteMember"`
	Attributes map[string]string `json:"Attributes,omitempty"`
}

type Connection struct {
	ID            int64  `json:"ID"`
	Member        string `json:"Member"`
	RemoteAddr    string `json:"RemoteAddr"`
	MemberAddr    string `json:"MemberAddr"`
	ServerVersion string `json:"ServerVersion"`
	Pending       int    `json:"Pending"`
	Alive         bool   `json:"Alive"`
}
