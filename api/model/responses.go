package model

type GetClusterResponse struct {
	ClientUUID     string `json:"ClientUUID"`
	ClusterID      string `json:"ClusterID"`
	State          string `json:"State"`
	PartitionCount int32  `json:"PartitionCount"`
	Members        int    `json:"Members"`
	Connections    int    `json:"Connections"`
}

type GetMembersResponse struct {
	Members []Member `json:"Members"`
}

type GetConnectionsResponse struct {
	Connections []Connection `json:"Connections"`
}

type GetPartitionResponse struct {
	Key         string `json:"Key"`
	PartitionID int32  `json:"PartitionID"`
	Owner       string `json:"Owner,omitempty"`
	Found       bool   `json:"Found"`
}

type PingResponse struct {
	Member    string  `json:"Member,omitempty"`
	LatencyMs float64 `json:"LatencyMs"`
}

type ErrorResponse struct {
	Error string `json:"Error"`
}
