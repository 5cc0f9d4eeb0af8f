package connmgr

// State is the lifecycle stage of the client on the cluster.
type State int32

const (
	// StateInitial means the client has never been connected.
	StateInitial State = iota
	// StateConnectedToCluster means the client is authenticated with at
	// least one member, but its local state is not yet sent to the cluster.
	StateConnectedToCluster
	// StateInitializedOnCluster means registered listeners and other client
	// state are in place on the current cluster.
	StateInitializedOnCluster
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateConnectedToCluster:
		return "connected_to_cluster"
	case StateInitializedOnCluster:
		return "initialized_on_cluster"
	default:
		return "unknown"
	}
}
