package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"tennisrag/internal/domain"
	"tennisrag/internal/vectorstore"
)

// upsertBatch bounds the number of points sent per Upsert RPC.
const upsertBatch = 256

type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeleteCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// Config holds connection details for a Qdrant instance.
type Config struct {
	Addr       string
	APIKey     string
	UseTLS     bool
	Collection string
	Distance   string
}

// Storage keeps records in a Qdrant collection over gRPC.
// Cosine scores are converted to distances as 1 - score.
type Storage struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
	distance    pb.Distance
}

// NewStorage dials Qdrant at cfg.Addr (host:6334).
func NewStorage(cfg Config) (*Storage, error) {
	dist, err := parseDistance(cfg.Distance)
	if err != nil {
		return nil, err
	}
	creds := insecure.NewCredentials()
	if cfg.UseTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}
	conn, err := grpc.NewClient(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant: dial %s: %w", cfg.Addr, err)
	}
	s := NewWithClients(pb.NewPointsClient(conn), pb.NewCollectionsClient(conn), cfg.Collection)
	s.conn = conn
	s.distance = dist
	return s, nil
}

// NewWithClients builds a Storage from pre-made gRPC clients.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *Storage {
	return &Storage{points: points, collections: collections, collection: collection, distance: pb.Distance_Cosine}
}

// Close closes the underlying gRPC connection, if any.
func (s *Storage) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

func parseDistance(s string) (pb.Distance, error) {
	switch strings.ToLower(s) {
	case "", "cosine":
		return pb.Distance_Cosine, nil
	case "euclid", "l2":
		return pb.Distance_Euclid, nil
	default:
		return 0, fmt.Errorf("qdrant: unsupported distance %q", s)
	}
}

func (s *Storage) exists(ctx context.Context) (bool, error) {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return true, nil
		}
	}
	return false, nil
}

// Init creates the collection if it does not exist.
func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	ok, err := s.exists(ctx)
	if err != nil || ok {
		return err
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dimension),
					Distance: s.distance,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", s.collection, err)
	}
	return nil
}

// Clear drops the collection so the next Init starts empty.
func (s *Storage) Clear(ctx context.Context) error {
	ok, err := s.exists(ctx)
	if err != nil || !ok {
		return err
	}
	if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection}); err != nil {
		return fmt.Errorf("qdrant: delete collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return errors.New("records and vectors length mismatch")
	}
	wait := true
	for start := 0; start < len(records); start += upsertBatch {
		end := min(start+upsertBatch, len(records))
		points := make([]*pb.PointStruct, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, toPoint(records[i], vectors[i]))
		}
		_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: s.collection,
			Wait:           &wait,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("qdrant: upsert %d points: %w", len(points), err)
		}
	}
	return nil
}

func toPoint(r domain.Record, v []float32) *pb.PointStruct {
	return &pb.PointStruct{
		Id: &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: v}},
		},
		Payload: map[string]*pb.Value{
			"text":   {Kind: &pb.Value_StringValue{StringValue: r.Text}},
			"source": {Kind: &pb.Value_StringValue{StringValue: r.Source}},
			"row":    {Kind: &pb.Value_IntegerValue{IntegerValue: int64(r.Row)}},
		},
	}
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]domain.ScoredMatch, error) {
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	out := make([]domain.ScoredMatch, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		payload := p.GetPayload()
		rec := domain.Record{
			ID:     p.GetId().GetUuid(),
			Source: payload["source"].GetStringValue(),
			Row:    int(payload["row"].GetIntegerValue()),
			Text:   payload["text"].GetStringValue(),
		}
		out = append(out, domain.ScoredMatch{Record: rec, Distance: s.toDistance(p.GetScore())})
	}
	return out, nil
}

func (s *Storage) toDistance(score float32) float64 {
	if s.distance == pb.Distance_Cosine {
		return 1 - float64(score)
	}
	return float64(score)
}
