package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const ParticipantServiceName = "splitledger.v1.ParticipantService"

const (
	ParticipantServiceCreateParticipantProcedure      = "/splitledger.v1.ParticipantService/CreateParticipant"
	ParticipantServiceGetParticipantProcedure         = "/splitledger.v1.ParticipantService/GetParticipant"
	ParticipantServiceUpdateParticipantProcedure      = "/splitledger.v1.ParticipantService/UpdateParticipant"
	ParticipantServiceDeleteParticipantProcedure      = "/splitledger.v1.ParticipantService/DeleteParticipant"
	ParticipantServiceListParticipantsProcedure       = "/splitledger.v1.ParticipantService/ListParticipants"
	ParticipantServiceGetParticipantBalancesProcedure = "/splitledger.v1.ParticipantService/GetParticipantBalances"
)

// ParticipantServiceHandler is implemented by the server.
type ParticipantServiceHandler interface {
	CreateParticipant(context.Context, *connect.Request[CreateParticipantRequest]) (*connect.Response[CreateParticipantResponse], error)
	GetParticipant(context.Context, *connect.Request[GetParticipantRequest]) (*connect.Response[GetParticipantResponse], error)
	UpdateParticipant(context.Context, *connect.Request[UpdateParticipantRequest]) (*connect.Response[UpdateParticipantResponse], error)
	DeleteParticipant(context.Context, *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error)
	GetParticipantBalances(context.Context, *connect.Request[GetParticipantBalancesRequest]) (*connect.Response[GetParticipantBalancesResponse], error)
}

// NewParticipantServiceHandler returns the mount path and handler for svc.
func NewParticipantServiceHandler(svc ParticipantServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+ParticipantServiceName+"/", map[string]http.Handler{
		ParticipantServiceCreateParticipantProcedure:      connect.NewUnaryHandler(ParticipantServiceCreateParticipantProcedure, svc.CreateParticipant, opts...),
		ParticipantServiceGetParticipantProcedure:         connect.NewUnaryHandler(ParticipantServiceGetParticipantProcedure, svc.GetParticipant, opts...),
		ParticipantServiceUpdateParticipantProcedure:      connect.NewUnaryHandler(ParticipantServiceUpdateParticipantProcedure, svc.UpdateParticipant, opts...),
		ParticipantServiceDeleteParticipantProcedure:      connect.NewUnaryHandler(ParticipantServiceDeleteParticipantProcedure, svc.DeleteParticipant, opts...),
		ParticipantServiceListParticipantsProcedure:       connect.NewUnaryHandler(ParticipantServiceListParticipantsProcedure, svc.ListParticipants, opts...),
		ParticipantServiceGetParticipantBalancesProcedure: connect.NewUnaryHandler(ParticipantServiceGetParticipantBalancesProcedure, svc.GetParticipantBalances, opts...),
	})
}

// ParticipantServiceClient calls a remote ParticipantService.
type ParticipantServiceClient interface {
	CreateParticipant(context.Context, *connect.Request[CreateParticipantRequest]) (*connect.Response[CreateParticipantResponse], error)
	GetParticipant(context.Context, *connect.Request[GetParticipantRequest]) (*connect.Response[GetParticipantResponse], error)
	UpdateParticipant(context.Context, *connect.Request[UpdateParticipantRequest]) (*connect.Response[UpdateParticipantResponse], error)
	DeleteParticipant(context.Context, *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error)
	ListParticipants(context.Context, *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error)
	GetParticipantBalances(context.Context, *connect.Request[GetParticipantBalancesRequest]) (*connect.Response[GetParticipantBalancesResponse], error)
}

// NewParticipantServiceClient creates a client for the service at baseURL.
func NewParticipantServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) ParticipantServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts    = clientOptions(opts)
	return &participantServiceClient{
		createParticipant:      connect.NewClient[CreateParticipantRequest, CreateParticipantResponse](httpClient, baseURL+ParticipantServiceCreateParticipantProcedure, opts...),
		getParticipant:         connect.NewClient[GetParticipantRequest, GetParticipantResponse](httpClient, baseURL+ParticipantServiceGetParticipantProcedure, opts...),
		updateParticipant:      connect.NewClient[UpdateParticipantRequest, UpdateParticipantResponse](httpClient, baseURL+ParticipantServiceUpdateParticipantProcedure, opts...),
		deleteParticipant:      connect.NewClient[DeleteParticipantRequest, DeleteParticipantResponse](httpClient, baseURL+ParticipantServiceDeleteParticipantProcedure, opts...),
		listParticipants:       connect.NewClient[ListParticipantsRequest, ListParticipantsResponse](httpClient, baseURL+ParticipantServiceListParticipantsProcedure, opts...),
		getParticipantBalances: connect.NewClient[GetParticipantBalancesRequest, GetParticipantBalancesResponse](httpClient, baseURL+ParticipantServiceGetParticipantBalancesProcedure, opts...),
	}
}

type participantServiceClient struct {
	createParticipant      *connect.Client[CreateParticipantRequest, CreateParticipantResponse]
	getParticipant         *connect.Client[GetParticipantRequest, GetParticipantResponse]
	updateParticipant      *connect.Client[UpdateParticipantRequest, UpdateParticipantResponse]
	deleteParticipant      *connect.Client[DeleteParticipantRequest, DeleteParticipantResponse]
	listParticipants       *connect.Client[ListParticipantsRequest, ListParticipantsResponse]
	getParticipantBalances *connect.Client[GetParticipantBalancesRequest, GetParticipantBalancesResponse]
}

func (c *participantServiceClient) CreateParticipant(ctx context.Context, req *connect.Request[CreateParticipantRequest]) (*connect.Response[CreateParticipantResponse], error) {
	return c.createParticipant.CallUnary(ctx, req)
}

func (c *participantServiceClient) GetParticipant(ctx context.Context, req *connect.Request[GetParticipantRequest]) (*connect.Response[GetParticipantResponse], error) {
	return c.getParticipant.CallUnary(ctx, req)
}

func (c *participantServiceClient) UpdateParticipant(ctx context.Context, req *connect.Request[UpdateParticipantRequest]) (*connect.Response[UpdateParticipantResponse], error) {
	return c.updateParticipant.CallUnary(ctx, req)
}

func (c *participantServiceClient) DeleteParticipant(ctx context.Context, req *connect.Request[DeleteParticipantRequest]) (*connect.Response[DeleteParticipantResponse], error) {
	return c.deleteParticipant.CallUnary(ctx, req)
}

func (c *participantServiceClient) ListParticipants(ctx context.Context, req *connect.Request[ListParticipantsRequest]) (*connect.Response[ListParticipantsResponse], error) {
	return c.listParticipants.CallUnary(ctx, req)
}

func (c *participantServiceClient) GetParticipantBalances(ctx context.Context, req *connect.Request[GetParticipantBalancesRequest]) (*connect.Response[GetParticipantBalancesResponse], error) {
	return c.getParticipantBalances.CallUnary(ctx, req)
}
