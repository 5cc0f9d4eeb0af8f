package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/maxpoletaev/gridlink/api/handler/mock"
	"github.com/maxpoletaev/gridlink/api/model"
	"github.com/maxpoletaev/gridlink/errs"
	"github.com/maxpoletaev/gridlink/protocol"
)

func TestPingHandler_ping(t *testing.T) {
	member := uuid.New()

	tests := map[string]struct {
		path        string
		setupClient func(c *mock.MockClient)
		wantStatus  int
	}{
		"AnyMember": {
			path: "/ping",
			setupClient: func(c *mock.MockClient) {
				c.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(protocol.EncodePingResponse(), nil)
			},
			wantStatus: http.StatusOK,
		},
		"GivenMember": {
			path: "/ping/" + member.String(),
			setupClient: func(c *mock.MockClient) {
				c.EXPECT().InvokeOnMember(gomock.Any(), gomock.Any(), member).Return(protocol.EncodePingResponse(), nil)
			},
			wantStatus: http.StatusOK,
		},
		"InvalidMember": {
			path:        "/ping/not-a-uuid",
			setupClient: func(c *mock.MockClient) {},
			wantStatus:  http.StatusBadRequest,
		},
		"Timeout": {
			path: "/ping",
			setupClient: func(c *mock.MockClient) {
				c.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(nil, errs.ErrTimeout)
			},
			wantStatus: http.StatusGatewayTimeout,
		},
		"Offline": {
			path: "/ping",
			setupClient: func(c *mock.MockClient) {
				c.EXPECT().Invoke(gomock.Any(), gomock.Any()).Return(nil, errs.ErrClientOffline.Wrap(fmt.Errorf("no connection")))
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		"MemberLeft": {
			path: "/ping/" + member.String(),
			setupClient: func(c *mock.MockClient) {
				c.EXPECT().InvokeOnMember(gomock.Any(), gomock.Any(), member).Return(nil, errs.ErrTargetNotMember)
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mock.NewMockClient(ctrl)
			tt.setupClient(client)

			recorder := serve(t, client, "POST", tt.path)
			require.Equal(t, tt.wantStatus, recorder.Code)

			if tt.wantStatus != http.StatusOK {
				var resp model.ErrorResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
				require.NotEmpty(t, resp.Error)
			}
		})
	}
}
