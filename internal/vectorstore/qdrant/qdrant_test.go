package qdrant

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"tennisrag/internal/domain"
)

type mockPoints struct {
	upserts    []*pb.UpsertPoints
	upsertErr  error
	searchReq  *pb.SearchPoints
	searchResp *pb.SearchResponse
	searchErr  error
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upserts = append(m.upserts, in)
	return &pb.PointsOperationResponse{}, m.upsertErr
}

func (m *mockPoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.searchReq = in
	return m.searchResp, m.searchErr
}

type mockCollections struct {
	names   []string
	listErr error
	created *pb.CreateCollection
	deleted string
}

func (m *mockCollections) List(_ context.Context, _ *pb.ListCollectionsRequest, _ ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	resp := &pb.ListCollectionsResponse{}
	for _, n := range m.names {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: n})
	}
	return resp, nil
}

func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.created = in
	m.names = append(m.names, in.GetCollectionName())
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (m *mockCollections) Delete(_ context.Context, in *pb.DeleteCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.deleted = in.GetCollectionName()
	m.names = nil
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func TestInit_CreatesMissingCollection(t *testing.T) {
	cols := &mockCollections{}
	s := NewWithClients(&mockPoints{}, cols, "matches")

	require.NoError(t, s.Init(context.Background(), 768))
	require.NotNil(t, cols.created)
	assert.Equal(t, "matches", cols.created.GetCollectionName())
	assert.Equal(t, uint64(768), cols.created.GetVectorsConfig().GetParams().GetSize())
	assert.Equal(t, pb.Distance_Cosine, cols.created.GetVectorsConfig().GetParams().GetDistance())
}

func TestInit_ExistingCollection(t *testing.T) {
	cols := &mockCollections{names: []string{"matches"}}
	s := NewWithClients(&mockPoints{}, cols, "matches")
	require.NoError(t, s.Init(context.Background(), 4))
	assert.Nil(t, cols.created)
}

func TestInit_ListError(t *testing.T) {
	s := NewWithClients(&mockPoints{}, &mockCollections{listErr: errors.New("unavailable")}, "matches")
	require.Error(t, s.Init(context.Background(), 4))
	require.Error(t, s.Init(context.Background(), 0))
}

func TestClear(t *testing.T) {
	cols := &mockCollections{}
	s := NewWithClients(&mockPoints{}, cols, "matches")
	require.NoError(t, s.Clear(context.Background()))
	assert.Empty(t, cols.deleted)

	cols.names = []string{"matches"}
	require.NoError(t, s.Clear(context.Background()))
	assert.Equal(t, "matches", cols.deleted)
}

func TestUpsert_Batches(t *testing.T) {
	pts := &mockPoints{}
	s := NewWithClients(pts, &mockCollections{}, "matches")

	n := upsertBatch + 3
	records := make([]domain.Record, n)
	vectors := make([][]float32, n)
	for i := range records {
		records[i] = domain.Record{ID: "00000000-0000-0000-0000-000000000001", Row: i, Text: "t", Source: "m.csv"}
		vectors[i] = []float32{1, 0}
	}
	require.NoError(t, s.Upsert(context.Background(), records, vectors))
	require.Len(t, pts.upserts, 2)
	assert.Len(t, pts.upserts[0].GetPoints(), upsertBatch)
	assert.Len(t, pts.upserts[1].GetPoints(), 3)

	p := pts.upserts[1].GetPoints()[0]
	assert.Equal(t, int64(upsertBatch), p.GetPayload()["row"].GetIntegerValue())
	assert.Equal(t, "t", p.GetPayload()["text"].GetStringValue())
}

func TestUpsert_Errors(t *testing.T) {
	s := NewWithClients(&mockPoints{upsertErr: errors.New("boom")}, &mockCollections{}, "matches")
	require.Error(t, s.Upsert(context.Background(), []domain.Record{{}}, nil))
	require.Error(t, s.Upsert(context.Background(), []domain.Record{{}}, [][]float32{{1}}))
}

func TestSearch_ConvertsScores(t *testing.T) {
	pts := &mockPoints{searchResp: &pb.SearchResponse{Result: []*pb.ScoredPoint{
		{
			Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "id-1"}},
			Score: 0.75,
			Payload: map[string]*pb.Value{
				"text":   {Kind: &pb.Value_StringValue{StringValue: "winner_name: Fred Stolle"}},
				"source": {Kind: &pb.Value_StringValue{StringValue: "m.csv"}},
				"row":    {Kind: &pb.Value_IntegerValue{IntegerValue: 12}},
			},
		},
	}}}
	s := NewWithClients(pts, &mockCollections{}, "matches")

	got, err := s.Search(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(4), pts.searchReq.GetLimit())
	assert.Equal(t, "id-1", got[0].Record.ID)
	assert.Equal(t, 12, got[0].Record.Row)
	assert.Equal(t, "winner_name: Fred Stolle", got[0].Record.Text)
	assert.InDelta(t, 0.25, got[0].Distance, 1e-6)
}

func TestSearch_Error(t *testing.T) {
	s := NewWithClients(&mockPoints{searchErr: errors.New("down")}, &mockCollections{}, "matches")
	_, err := s.Search(context.Background(), []float32{1}, 1)
	require.Error(t, err)
}

func TestParseDistance(t *testing.T) {
	d, err := parseDistance("")
	require.NoError(t, err)
	assert.Equal(t, pb.Distance_Cosine, d)
	d, err = parseDistance("Euclid")
	require.NoError(t, err)
	assert.Equal(t, pb.Distance_Euclid, d)
	_, err = parseDistance("dot")
	require.Error(t, err)
}
