package model

import "time"

// NoData marks an identity fact that no record has reported yet.
const NoData = "No data"

// ServerIdentity holds the static facts announced by mongod at startup.
type ServerIdentity struct {
	Version        string `json:"mongodb_version"`
	NodeName       string `json:"node_name"`
	ReplicaSetName string `json:"replica_set_name"`
	OSVersion      string `json:"os_version"`
}

func NewServerIdentity() ServerIdentity {
	return ServerIdentity{
		Version:        NoData,
		NodeName:       NoData,
		ReplicaSetName: NoData,
		OSVersion:      NoData,
	}
}

type SlowQueryEvent struct {
	Timestamp  *time.Time `json:"timestamp"`
	DurationMs int64      `json:"duration_ms"`
	Namespace  string     `json:"namespace"`
	Command    any        `json:"command"`
}

type ConnectionEvent struct {
	Timestamp       *time.Time `json:"timestamp"`
	ConnectionCount int64      `json:"connection_count"`
}

// InformationalEvent is any record whose rendering mentions "error".
// Detail repeats Message.
type InformationalEvent struct {
	Timestamp *time.Time `json:"timestamp"`
	Message   string     `json:"message"`
	Detail    string     `json:"detail"`
}
