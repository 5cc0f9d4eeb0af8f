package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/maxpoletaev/gridlink/api/model"
	"github.com/maxpoletaev/gridlink/cluster"
	"github.com/maxpoletaev/gridlink/connection"
)

type ClusterHandler struct {
	client Client
}

func NewClusterHandler(client Client) *ClusterHandler {
	return &ClusterHandler{
		client: client,
	}
}

func (api *ClusterHandler) Register(r chi.Router) {
	r.Get("/cluster", api.getCluster)
	r.Get("/cluster/members", api.getMembers)
	r.Get("/cluster/connections", api.getConnections)
	r.Get("/cluster/partitions/{key}", api.getPartition)
}

func (api *ClusterHandler) getCluster(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, model.GetClusterResponse{
		ClientUUID:     api.client.ClientUUID().String(),
		ClusterID:      api.client.ClusterID().String(),
		State:          api.client.State().String(),
		PartitionCount: api.client.PartitionCount(),
		Members:        len(api.client.Members()),
		Connections:    len(api.client.Connections()),
	})
}

func (api *ClusterHandler) getMembers(w http.ResponseWriter, r *http.Request) {
	members := api.client.Members()
	respMembers := make([]model.Member, len(members))

	for i, m := range members {
		respMembers[i] = toMember(m)
	}

	render.JSON(w, r, model.GetMembersResponse{
		Members: respMembers,
	})
}

func (api *ClusterHandler) getConnections(w http.ResponseWriter, r *http.Request) {
	conns := api.client.Connections()
	respConns := make([]model.Connection, len(conns))

	for i, conn := range conns {
		respConns[i] = toConnection(conn)
	}

	render.JSON(w, r, model.GetConnectionsResponse{
		Connections: respConns,
	})
}

func (api *ClusterHandler) getPartition(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	owner, partitionID, found := api.client.PartitionOwner([]byte(key))

	resp := model.GetPartitionResponse{
		Key:         key,
		PartitionID: partitionID,
		Found:       found,
	}

	if found {
		resp.Owner = owner.String()
	}

	render.JSON(w, r, resp)
}

func toMember(m cluster.Member) model.Member {
	return model.Member{
		UUID:       m.UUID.String(),
		Addr:       m.Address.String(),
		Version:    m.Version.String(),
		LiteMember: m.LiteMember,
		Attributes: m.Attributes,
	}
}

func toConnection(conn *connection.Conn) model.Connection {
	return model.Connection{
		ID:            conn.ID(),
		Member:        conn.MemberUUID().String(),
		RemoteAddr:    conn.RemoteAddress().String(),
		MemberAddr:    conn.MemberAddress().String(),
		ServerVersion: conn.ServerVersion(),
		Pending:       conn.Pending(),
		Alive:         conn.IsAlive(),
	}
}
