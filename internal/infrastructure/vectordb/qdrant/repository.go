// Package qdrant provides an EntityIndex implementation using Qdrant.
package qdrant

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/DarrenZal/MycoMind/internal/domain/entities"
	"github.com/DarrenZal/MycoMind/internal/domain/ports"
	"github.com/DarrenZal/MycoMind/internal/infrastructure/config"
)

// upsertBatch bounds the points sent per Upsert call.
const upsertBatch = 128

// Repository implements the EntityIndex interface using Qdrant.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	apiKey     string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository for the named collection.
func NewRepository(cfg config.QdrantConfig, collection string) (*Repository, error) {
	if collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	creds := insecure.NewCredentials()
	if cfg.APIKey != "" {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: collection,
		apiKey:     cfg.APIKey,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *Repository) withAuth(ctx context.Context) context.Context {
	if r.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", r.apiKey)
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	ctx = r.withAuth(ctx)
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection drops the collection and every point in it.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(r.withAuth(ctx), &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Upsert stores entities. Point IDs derive from the canonical identifier,
// so re-indexing the same vault replaces points instead of adding new ones.
func (r *Repository) Upsert(ctx context.Context, items []ports.IndexedEntity) error {
	ctx = r.withAuth(ctx)
	for start := 0; start < len(items); start += upsertBatch {
		end := min(start+upsertBatch, len(items))
		points := make([]*pb.PointStruct, 0, end-start)
		for _, item := range items[start:end] {
			points = append(points, &pb.PointStruct{
				Id: &pb.PointId{
					PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(item.Entity.ID)},
				},
				Vectors: &pb.Vectors{
					VectorsOptions: &pb.Vectors_Vector{
						Vector: &pb.Vector{Data: item.Embedding},
					},
				},
				Payload: payloadOf(item.Entity),
			})
		}

		_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
			CollectionName: r.collection,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("upserting points: %w", err)
		}
	}
	return nil
}

// Search performs a similarity search over all entities.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]ports.SearchHit, error) {
	return r.search(ctx, embedding, nil, limit)
}

// SearchByType performs a similarity search filtered by entity type.
func (r *Repository) SearchByType(ctx context.Context, embedding []float32, entityType string, limit int) ([]ports.SearchHit, error) {
	filter := &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "type",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: entityType},
						},
					},
				},
			},
		},
	}
	return r.search(ctx, embedding, filter, limit)
}

func (r *Repository) search(ctx context.Context, embedding []float32, filter *pb.Filter, limit int) ([]ports.SearchHit, error) {
	resp, err := r.points.Search(r.withAuth(ctx), &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter:         filter,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	return scoredPointsToHits(resp.Result), nil
}

// Count returns the number of indexed entities.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(r.withAuth(ctx), &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// PointID maps a canonical identifier to a stable Qdrant point UUID.
func PointID(canonicalID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(canonicalID)).String()
}

func payloadOf(e entities.ResolvedEntity) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		"id":   stringValue(e.ID),
		"type": stringValue(e.Type),
		"name": stringValue(e.Name),
		"stub": {Kind: &pb.Value_BoolValue{BoolValue: e.Stub}},
	}
	if d, ok := e.Properties["description"].(string); ok {
		payload["description"] = stringValue(d)
	}
	if e.Provenance != nil {
		payload["source"] = stringValue(e.Provenance.SourceID)
		payload["confidence"] = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: e.Provenance.Confidence}}
	}
	if len(e.Relationships) > 0 {
		if data, err := json.Marshal(e.Relationships); err == nil {
			payload["relationships"] = stringValue(string(data))
		}
	}
	return payload
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

// scoredPointsToHits converts scored points to search hits.
func scoredPointsToHits(points []*pb.ScoredPoint) []ports.SearchHit {
	hits := make([]ports.SearchHit, 0, len(points))
	for _, point := range points {
		payload := point.Payload
		hits = append(hits, ports.SearchHit{
			ID:    getStringValue(payload, "id"),
			Type:  getStringValue(payload, "type"),
			Name:  getStringValue(payload, "name"),
			Stub:  getBoolValue(payload, "stub"),
			Score: point.Score,
		})
	}
	return hits
}

// Helper functions for payload extraction.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getBoolValue(payload map[string]*pb.Value, key string) bool {
	if v, ok := payload[key]; ok {
		return v.GetBoolValue()
	}
	return false
}
