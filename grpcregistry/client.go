package grpcregistry

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"xdao.co/credreg/registry"
)

// Client is a typed wrapper over the Registry gRPC service. Its methods
// mirror registry.Registry, so call sites read the same either way.
type Client struct {
	cc     *grpc.ClientConn
	client RegistryClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewRegistryClient(cc), Timeout: 0}, nil
}

// NewClient wraps an existing connection, e.g. a bufconn in tests.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewRegistryClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) AddRegistrar(caller, target registry.Principal) error {
	in, err := structpb.NewStruct(map[string]any{
		fieldCaller:    caller.String(),
		fieldRegistrar: target.String(),
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err = c.client.AddRegistrar(ctx, in)
	return mapRPC(err)
}

func (c *Client) RemoveRegistrar(caller, target registry.Principal) error {
	in, err := structpb.NewStruct(map[string]any{
		fieldCaller:    caller.String(),
		fieldRegistrar: target.String(),
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err = c.client.RemoveRegistrar(ctx, in)
	return mapRPC(err)
}

func (c *Client) IsRegistrar(p registry.Principal) (bool, error) {
	in, err := structpb.NewStruct(map[string]any{fieldPrincipal: p.String()})
	if err != nil {
		return false, err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.IsRegistrar(ctx, in)
	if err != nil {
		return false, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) IssueCertificate(caller registry.Principal, hash registry.Hash, student registry.Principal, driveLink string) error {
	in, err := structpb.NewStruct(map[string]any{
		fieldCaller:    caller.String(),
		fieldCertHash:  hash.String(),
		fieldStudent:   student.String(),
		fieldDriveLink: driveLink,
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err = c.client.IssueCertificate(ctx, in)
	return mapRPC(err)
}

func (c *Client) RevokeCertificate(caller registry.Principal, hash registry.Hash, reason string) error {
	in, err := structpb.NewStruct(map[string]any{
		fieldCaller:   caller.String(),
		fieldCertHash: hash.String(),
		fieldReason:   reason,
	})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	_, err = c.client.RevokeCertificate(ctx, in)
	return mapRPC(err)
}

func (c *Client) VerifyCertificate(hash registry.Hash) (bool, registry.CertificateRecord, error) {
	in, err := structpb.NewStruct(map[string]any{fieldCertHash: hash.String()})
	if err != nil {
		return false, registry.CertificateRecord{}, err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.VerifyCertificate(ctx, in)
	if err != nil {
		return false, registry.CertificateRecord{}, mapRPC(err)
	}
	fields := reply.GetFields()
	valid := fields[fieldValid].GetBoolValue()
	recSt := fields[fieldRecord].GetStructValue()
	if recSt == nil {
		return valid, registry.CertificateRecord{}, nil
	}
	rec, err := RecordFromStruct(recSt)
	if err != nil {
		return false, registry.CertificateRecord{}, err
	}
	return valid, rec, nil
}

func (c *Client) GetCertificate(hash registry.Hash) (registry.CertificateRecord, error) {
	in, err := structpb.NewStruct(map[string]any{fieldCertHash: hash.String()})
	if err != nil {
		return registry.CertificateRecord{}, err
	}
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.GetCertificate(ctx, in)
	if err != nil {
		return registry.CertificateRecord{}, mapRPC(err)
	}
	return RecordFromStruct(reply)
}

func (c *Client) TotalCertificates() (uint64, error) {
	ctx, cancel := c.ctx()
	defer cancel()
	reply, err := c.client.GetTotalCertificates(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), c.Timeout)
}
